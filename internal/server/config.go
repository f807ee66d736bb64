package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v6"
	"github.com/iwvelando/property-analyzer/internal/config"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string `yaml:"address"`
	MaxUploadSize string `yaml:"maxUploadSize"`

	// RedisAddress caches market rates in redis when set.
	RedisAddress string `yaml:"redisAddress"`
	// PortfolioPath keeps saved properties in SQLite when set; otherwise
	// they live in memory for the life of the process.
	PortfolioPath string `yaml:"portfolioPath"`

	RateLimit       int           `yaml:"rateLimit"`       // requests per window and client
	RateLimitWindow time.Duration `yaml:"rateLimitWindow"` // e.g. 1m

	Market  config.MarketConfig  `yaml:"market"`
	Logging config.LoggingConfig `yaml:"logging"`

	uploadSizeBytes int64
}

// ServerEnv are environment overrides applied after the YAML file.
type ServerEnv struct {
	Address       string `env:"PROPERTY_ANALYZER_ADDRESS"`
	RedisAddress  string `env:"PROPERTY_ANALYZER_REDIS_ADDRESS"`
	PortfolioPath string `env:"PROPERTY_ANALYZER_SQLITE_PATH"`
	RateLimit     int    `env:"PROPERTY_ANALYZER_RATE_LIMIT"`
	MaxUploadSize string `env:"PROPERTY_ANALYZER_MAX_UPLOAD_SIZE"`
}

// LoadConfig loads the server configuration from YAML and applies
// environment overrides. If the file does not exist, defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:         constants.DefaultServerAddress,
		MaxUploadSize:   fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes),
		RateLimit:       constants.DefaultRateLimitCapacity,
		RateLimitWindow: constants.DefaultRateLimitWindowSeconds * time.Second,
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var overlay ServerEnv
	if err := env.Parse(&overlay); err != nil {
		return fmt.Errorf("failed to parse server environment: %w", err)
	}

	if overlay.Address != "" {
		c.Address = overlay.Address
	}
	if overlay.RedisAddress != "" {
		c.RedisAddress = overlay.RedisAddress
	}
	if overlay.PortfolioPath != "" {
		c.PortfolioPath = overlay.PortfolioPath
	}
	if overlay.RateLimit != 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	return nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = fmt.Sprintf("%d", size)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = constants.DefaultRateLimitWindowSeconds * time.Second
	}
	if c.Market.RedisAddress == "" {
		c.Market.RedisAddress = c.RedisAddress
	}
	if c.Market.HistoryMonths <= 0 {
		c.Market.HistoryMonths = constants.DefaultHistoryMonths
	}

	sizeStr := strings.TrimSpace(c.MaxUploadSize)
	if sizeStr == "" {
		c.uploadSizeBytes = constants.DefaultMaxUploadSizeBytes
		c.MaxUploadSize = fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
