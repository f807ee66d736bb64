// Package config defines the data structures related to configuration and
// includes functions for loading, resolving and validating it.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/internal/brrrr"
	"github.com/iwvelando/property-analyzer/internal/marketdata"
	"github.com/iwvelando/property-analyzer/internal/neighborhoods"
	"github.com/iwvelando/property-analyzer/internal/pipeline"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
	"github.com/iwvelando/property-analyzer/internal/tax"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Configuration holds all configuration for property-analyzer.
type Configuration struct {
	Property   PropertyConfig
	Scenarios  ScenarioConfig
	Projection ProjectionConfig
	BRRRR      *brrrr.Inputs `mapstructure:"brrrr"`
	Tax        TaxConfig
	Market     MarketConfig
	Portfolio  PortfolioConfig
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	Output     OutputConfig  `yaml:"output,omitempty"`
}

// PropertyConfig is the property under analysis. When Neighborhood names a
// known profile, unset price, rent, vacancy and operating assumptions are
// seeded from it.
type PropertyConfig struct {
	Name                    string
	analyzer.PropertyInputs `mapstructure:",squash"`

	// UseMarketRate replaces InterestRate with the current 5-year rate
	// when market data is enabled.
	UseMarketRate bool

	// provided lists the seedable inputs present in the file or environment.
	provided neighborhoods.Provided
}

// ScenarioConfig lists the rates and vacancies to sweep, in percent.
type ScenarioConfig struct {
	Rates     []float64
	Vacancies []float64
}

// ProjectionConfig holds the growth assumptions as decimals.
type ProjectionConfig struct {
	AppreciationRate float64
	RentGrowthRate   float64
	Horizons         []int
	TimelineYears    int
}

// TaxConfig enables the rental tax estimate.
type TaxConfig struct {
	Enabled       bool
	MarginalRate  float64
	BuildingValue float64
	ClaimCCA      *bool `mapstructure:"claimCca"` // nil claims CCA
}

// MarketConfig configures the rate feed.
type MarketConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"baseUrl" mapstructure:"baseUrl"`
	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	CacheTTL      time.Duration `yaml:"cacheTtl" mapstructure:"cacheTtl"`
	RedisAddress  string        `yaml:"redisAddress"`
	FallbackRate  float64       `yaml:"fallbackRate"` // percent
	HistoryMonths int           `yaml:"historyMonths"`
}

// PortfolioConfig selects where saved properties are kept.
type PortfolioConfig struct {
	Driver string // memory, sqlite
	Path   string
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

const redisPrefix = "property-analyzer:"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("projection.appreciationRate", constants.DefaultAppreciationRate)
	v.SetDefault("projection.rentGrowthRate", constants.DefaultRentGrowthRate)
	v.SetDefault("projection.timelineYears", constants.TimelineYears)
	v.SetDefault("market.baseUrl", marketdata.DefaultBaseURL)
	v.SetDefault("market.timeout", marketdata.DefaultTimeout)
	v.SetDefault("market.retries", marketdata.DefaultRetries)
	v.SetDefault("market.cacheTtl", marketdata.DefaultCacheTTL)
	v.SetDefault("market.redisAddress", "")
	v.SetDefault("market.historyMonths", constants.DefaultHistoryMonths)
	v.SetDefault("portfolio.driver", portfolio.DriverMemory)
	v.SetDefault("portfolio.path", "portfolio.db")
	v.SetDefault("logging.level", "")
	v.SetDefault("output.format", "")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. PROPERTY_ANALYZER_* environment variables override
// file values, e.g. PROPERTY_ANALYZER_MARKET_REDISADDRESS.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	configuration.Property.provided = neighborhoods.Provided{}
	for _, field := range neighborhoods.SeededFields {
		if v.IsSet("property." + field) {
			configuration.Property.provided[strings.ToLower(field)] = true
		}
	}
	return &configuration, nil
}

// LoadEnvFile loads variables from a .env file into the environment. A
// missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading env file %s, %w", path, err)
	}
	return nil
}

// PropertyInputs resolves the configured property with ResolveInputs.
func (c *Configuration) PropertyInputs() (analyzer.PropertyInputs, error) {
	return ResolveInputs(c.Property.PropertyInputs, c.Property.provided)
}

// ResolveInputs fills defaults into in. A named neighborhood must exist and
// seeds the values not listed in provided that are zero; otherwise only the
// amortization period and property type are defaulted.
func ResolveInputs(in analyzer.PropertyInputs, provided neighborhoods.Provided) (analyzer.PropertyInputs, error) {
	if in.Neighborhood != "" {
		profile, ok := neighborhoods.Lookup(in.Neighborhood)
		if !ok {
			return in, fmt.Errorf("unknown neighborhood %q", in.Neighborhood)
		}
		in.Neighborhood = profile.Slug
		in = neighborhoods.SeedInputs(profile, in, provided)
	}

	if in.AmortizationYears == 0 {
		in.AmortizationYears = constants.DefaultAmortizationYears
	}
	if in.PropertyType == "" {
		in.PropertyType = analyzer.PropertyTypeHouse
	}
	return in, nil
}

// TaxOptions returns the tax options, or nil when the estimate is disabled.
func (c *Configuration) TaxOptions() *tax.Options {
	if !c.Tax.Enabled {
		return nil
	}
	opts := tax.Options{
		MarginalRate:  c.Tax.MarginalRate,
		BuildingValue: c.Tax.BuildingValue,
		ClaimCCA:      c.Tax.ClaimCCA == nil || *c.Tax.ClaimCCA,
	}.Normalize()
	return &opts
}

// Options returns the pipeline options. summary may be nil.
func (c *Configuration) Options(summary *portfolio.Summary) pipeline.Options {
	return pipeline.Options{
		AppreciationRate: c.Projection.AppreciationRate,
		RentGrowthRate:   c.Projection.RentGrowthRate,
		RateScenarios:    c.Scenarios.Rates,
		VacancyScenarios: c.Scenarios.Vacancies,
		WealthHorizons:   c.Projection.Horizons,
		TimelineYears:    c.Projection.TimelineYears,
		Portfolio:        summary,
		Tax:              c.TaxOptions(),
		BRRRR:            c.BRRRR,
	}
}

// MarketProvider builds the rate provider for the market section.
func (c *Configuration) MarketProvider(logger *zap.Logger) (*marketdata.Provider, func() error) {
	return c.Market.NewProvider(logger)
}

// NewProvider builds a rate provider, caching in redis when an address is
// configured. The returned function releases the cache.
func (m MarketConfig) NewProvider(logger *zap.Logger) (*marketdata.Provider, func() error) {
	client := marketdata.NewClient(marketdata.ClientConfig{
		BaseURL: m.BaseURL,
		Timeout: m.Timeout,
		Retries: m.Retries,
	}, logger)

	if m.RedisAddress == "" {
		return marketdata.NewProvider(client, nil, m.CacheTTL, logger), func() error { return nil }
	}
	cache := marketdata.NewRedisCache(m.RedisAddress, redisPrefix)
	return marketdata.NewProvider(client, cache, m.CacheTTL, logger), cache.Close
}

// CheckCache pings the redis cache when one is configured.
func (m MarketConfig) CheckCache(ctx context.Context) error {
	if m.RedisAddress == "" {
		return nil
	}
	cache := marketdata.NewRedisCache(m.RedisAddress, redisPrefix)
	defer func() {
		_ = cache.Close()
	}()
	return cache.Ping(ctx)
}

// ApplyMarketRate replaces the interest rate of in with the current market
// rate when market data and UseMarketRate are enabled. The configured
// fallback, or the property's own rate, is used when the feed fails.
func (c *Configuration) ApplyMarketRate(ctx context.Context, in analyzer.PropertyInputs, provider *marketdata.Provider) analyzer.PropertyInputs {
	if !c.Market.Enabled || !c.Property.UseMarketRate || provider == nil {
		return in
	}
	fallback := c.Market.FallbackRate
	if fallback == 0 {
		fallback = in.InterestRate
	}
	return in.WithInterestRate(provider.CurrentRate(ctx, fallback))
}

// Validate returns an error for configuration that cannot be run.
func (c *Configuration) Validate() error {
	in, err := c.PropertyInputs()
	if err != nil {
		return err
	}
	if err := analyzer.Validate(in); err != nil {
		return err
	}
	if c.BRRRR != nil {
		if err := brrrr.Validate(*c.BRRRR); err != nil {
			return err
		}
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	switch c.Portfolio.Driver {
	case "", portfolio.DriverMemory, portfolio.DriverSQLite:
	default:
		return fmt.Errorf("invalid portfolio driver %q, must be one of: %s, %s",
			c.Portfolio.Driver, portfolio.DriverMemory, portfolio.DriverSQLite)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	in, err := c.PropertyInputs()
	if err != nil {
		in = c.Property.PropertyInputs
	}

	cv := validation.ConfigValidator{
		Property: validation.PropertyConfig{
			Name:               c.Property.Name,
			PurchasePrice:      in.PurchasePrice,
			MonthlyRent:        in.MonthlyRent,
			DownPaymentPercent: in.DownPaymentPercent,
			AmortizationYears:  in.AmortizationYears,
		},
		RateScenarios:    c.Scenarios.Rates,
		VacancyScenarios: c.Scenarios.Vacancies,
	}
	return cv.ValidateAll()
}
