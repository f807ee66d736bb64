// Package constants provides shared constants for the property-analyzer application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Holding-period return assumptions. These are fixed policy values.
const (
	// IRRHoldYears is the holding period used by the simplified IRR estimate
	IRRHoldYears = 5

	// SellingCostRate is the fraction of sale value lost to selling costs
	SellingCostRate = 0.05

	// DefaultAppreciationRate is the annual appreciation assumed by the analyzer
	DefaultAppreciationRate = 0.03
)

// Local market defaults (Calgary, 2025)
const (
	// DefaultPropertyTaxRate is the combined municipal and education rate on assessed value
	DefaultPropertyTaxRate = 0.00618

	// DefaultInsuranceAnnual is a typical landlord policy premium
	DefaultInsuranceAnnual = 1800.0

	// DefaultCondoFeePerSqFt is the monthly condo fee per square foot
	DefaultCondoFeePerSqFt = 0.50

	// DefaultUtilitiesMonthly covers gas, electricity and water
	DefaultUtilitiesMonthly = 350.0

	// DefaultVacancyPercent is the current market vacancy rate
	DefaultVacancyPercent = 6.0

	// DefaultMaintenancePercent is maintenance as a percent of rent
	DefaultMaintenancePercent = 8.0

	// DefaultPropertyManagementPercent is management as a percent of rent
	DefaultPropertyManagementPercent = 8.0

	// DefaultAmortizationYears is the standard amortization period
	DefaultAmortizationYears = 25
)

// Deal score weights and thresholds
const (
	CashFlowMaxPoints   = 40.0
	CashFlowTarget      = 500.0
	CapRateMaxPoints    = 30.0
	CapRateTarget       = 0.08
	MarketFitMaxPoints  = 30.0
	StrongDSCR          = 1.25
	AdequateDSCR        = 1.0
	StrongBreakEven     = 0.15
	AdequateBreakEven   = 0.10
	MarketFitHighPoints = 15.0
	MarketFitMidPoints  = 10.0
)

// Scenario defaults
const (
	// BreakEvenRateCeiling is the upper bound (percent) of the break-even rate search
	BreakEvenRateCeiling = 15.0

	// BreakEvenIterations is the fixed number of bisection steps
	BreakEvenIterations = 20

	// BreakEvenCashFlowTolerance is the monthly cash flow treated as zero
	BreakEvenCashFlowTolerance = 1.0

	// PositiveCashFlowHorizonYears bounds the year-to-positive search
	PositiveCashFlowHorizonYears = 10

	// TimelineYears is the length of the short equity timeline
	TimelineYears = 5

	// DefaultRentGrowthRate is the annual rent growth used by projections
	DefaultRentGrowthRate = 0.03
)

// DefaultRateScenarios are the interest rates (percent) of the standard rate sweep.
var DefaultRateScenarios = []float64{4.0, 5.5, 7.0}

// DefaultVacancyScenarios are the vacancy rates (percent) of the standard vacancy sweep.
var DefaultVacancyScenarios = []float64{0, 6, 10}

// DefaultWealthHorizons are the projection horizons in years.
var DefaultWealthHorizons = []int{10, 20, 30}

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides
	EnvPrefix = "PROPERTY_ANALYZER"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRateLimitCapacity is the number of API requests a client may burst
	DefaultRateLimitCapacity = 60

	// DefaultRateLimitWindowSeconds is the token bucket refill window
	DefaultRateLimitWindowSeconds = 60

	// DefaultHistoryMonths is the rate history window served by /api/rates
	DefaultHistoryMonths = 12
)
