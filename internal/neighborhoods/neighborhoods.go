// Package neighborhoods provides read-only reference profiles of local
// neighborhoods and the market defaults used to seed property inputs.
package neighborhoods

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Quadrants of the city.
const (
	QuadrantNW      = "NW"
	QuadrantNE      = "NE"
	QuadrantSW      = "SW"
	QuadrantSE      = "SE"
	QuadrantCentral = "Central"
)

// Profile is reference data for one neighborhood. CapRate, VacancyRate and
// PriceGrowth are percentages.
type Profile struct {
	Slug            string  `yaml:"slug" json:"slug"`
	Name            string  `yaml:"name" json:"name"`
	Quadrant        string  `yaml:"quadrant" json:"quadrant"`
	AvgPrice        float64 `yaml:"avgPrice" json:"avgPrice"`
	AvgRent         float64 `yaml:"avgRent" json:"avgRent"`
	CapRate         float64 `yaml:"capRate" json:"capRate"`
	VacancyRate     float64 `yaml:"vacancyRate" json:"vacancyRate"`
	PriceGrowth     float64 `yaml:"priceGrowth" json:"priceGrowth"`
	InvestmentScore int     `yaml:"investmentScore" json:"investmentScore"`
	Description     string  `yaml:"description" json:"description"`
}

// Catalog is an indexed set of profiles.
type Catalog struct {
	profiles []Profile
	bySlug   map[string]int
}

type catalogFile struct {
	Neighborhoods []Profile `yaml:"neighborhoods"`
}

// Parse reads a catalog from YAML. Slugs must be present and unique.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse neighborhood profiles: %w", err)
	}

	c := &Catalog{
		profiles: file.Neighborhoods,
		bySlug:   make(map[string]int, len(file.Neighborhoods)),
	}
	sort.SliceStable(c.profiles, func(i, j int) bool {
		return c.profiles[i].Name < c.profiles[j].Name
	})
	for i, p := range c.profiles {
		if p.Slug == "" {
			return nil, fmt.Errorf("neighborhood %q has no slug", p.Name)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate neighborhood slug %q", p.Slug)
		}
		c.bySlug[p.Slug] = i
	}
	return c, nil
}

// Lookup finds a profile by slug, ignoring case and surrounding space.
func (c *Catalog) Lookup(slug string) (Profile, bool) {
	i, ok := c.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return Profile{}, false
	}
	return c.profiles[i], true
}

// All returns every profile sorted by name.
func (c *Catalog) All() []Profile {
	out := make([]Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// ByQuadrant returns the profiles in quadrant q, sorted by name.
func (c *Catalog) ByQuadrant(q string) []Profile {
	var out []Profile
	for _, p := range c.profiles {
		if strings.EqualFold(p.Quadrant, q) {
			out = append(out, p)
		}
	}
	return out
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(profilesYAML)
})

// Default returns the catalog built into the binary.
func Default() (*Catalog, error) {
	return loadDefault()
}

func mustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a built-in profile by slug.
func Lookup(slug string) (Profile, bool) { return mustDefault().Lookup(slug) }

// All returns the built-in profiles sorted by name.
func All() []Profile { return mustDefault().All() }

// ByQuadrant returns the built-in profiles in quadrant q.
func ByQuadrant(q string) []Profile { return mustDefault().ByQuadrant(q) }

// MarketDefaults are the local assumptions used when an input is left unset.
type MarketDefaults struct {
	PropertyTaxRate           float64 `json:"propertyTaxRate"`
	InsuranceAnnual           float64 `json:"insuranceAnnual"`
	CondoFeePerSqFt           float64 `json:"condoFeePerSqFt"`
	UtilitiesMonthly          float64 `json:"utilitiesMonthly"`
	VacancyRate               float64 `json:"vacancyRate"`
	MaintenancePercent        float64 `json:"maintenancePercent"`
	PropertyManagementPercent float64 `json:"propertyManagementPercent"`
	AmortizationYears         int     `json:"amortizationYears"`
}

// Defaults returns the current market defaults.
func Defaults() MarketDefaults {
	return MarketDefaults{
		PropertyTaxRate:           constants.DefaultPropertyTaxRate,
		InsuranceAnnual:           constants.DefaultInsuranceAnnual,
		CondoFeePerSqFt:           constants.DefaultCondoFeePerSqFt,
		UtilitiesMonthly:          constants.DefaultUtilitiesMonthly,
		VacancyRate:               constants.DefaultVacancyPercent,
		MaintenancePercent:        constants.DefaultMaintenancePercent,
		PropertyManagementPercent: constants.DefaultPropertyManagementPercent,
		AmortizationYears:         constants.DefaultAmortizationYears,
	}
}

// SeededFields are the inputs SeedInputs may fill, by JSON name.
var SeededFields = []string{
	"purchasePrice",
	"monthlyRent",
	"vacancyRate",
	"propertyTaxAnnual",
	"insuranceAnnual",
	"maintenancePercent",
	"propertyManagementPercent",
	"amortizationYears",
}

// Provided records which inputs the caller set explicitly, by JSON name
// (case-insensitive). With a nil Provided every zero value counts as unset.
type Provided map[string]bool

// NewProvided marks keys as explicitly set.
func NewProvided(keys ...string) Provided {
	p := make(Provided, len(keys))
	for _, k := range keys {
		p[strings.ToLower(k)] = true
	}
	return p
}

// Has reports whether key was set explicitly.
func (p Provided) Has(key string) bool {
	return p[strings.ToLower(key)]
}

func (p Provided) unset(key string, zero bool) bool {
	return zero && !p.Has(key)
}

// SeedInputs fills the unset price, rent, vacancy, property tax and
// neighborhood of base from p, and the unset insurance, maintenance,
// management and amortization from the market defaults. An input is unset
// when it is zero and not listed in provided, so an explicit 0 is kept.
func SeedInputs(p Profile, base analyzer.PropertyInputs, provided Provided) analyzer.PropertyInputs {
	d := Defaults()

	if provided.unset("purchasePrice", base.PurchasePrice == 0) {
		base.PurchasePrice = p.AvgPrice
	}
	if provided.unset("monthlyRent", base.MonthlyRent == 0) {
		base.MonthlyRent = p.AvgRent
	}
	if provided.unset("vacancyRate", base.VacancyRate == 0) {
		base.VacancyRate = p.VacancyRate
	}
	if provided.unset("propertyTaxAnnual", base.PropertyTaxAnnual == 0) {
		base.PropertyTaxAnnual = base.PurchasePrice * d.PropertyTaxRate
	}
	if provided.unset("insuranceAnnual", base.InsuranceAnnual == 0) {
		base.InsuranceAnnual = d.InsuranceAnnual
	}
	if provided.unset("maintenancePercent", base.MaintenancePercent == 0) {
		base.MaintenancePercent = d.MaintenancePercent
	}
	if provided.unset("propertyManagementPercent", base.PropertyManagementPercent == 0) {
		base.PropertyManagementPercent = d.PropertyManagementPercent
	}
	// zero years is never a valid term
	if base.AmortizationYears == 0 {
		base.AmortizationYears = d.AmortizationYears
	}
	if base.Neighborhood == "" {
		base.Neighborhood = p.Slug
	}
	return base
}
