// Package brrrr models a buy, rehab, rent, refinance deal. It uses its own
// simplified post-refinance expense model rather than the general analyzer.
package brrrr

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/finance"
	"github.com/iwvelando/property-analyzer/pkg/format"
	"go.uber.org/zap"
)

// Defaults applied by Normalize.
const (
	DefaultRehabMonths       = 3
	DefaultRefiLTV           = 75.0
	DefaultRefiRate          = 5.5
	DefaultAmortizationYears = constants.DefaultAmortizationYears

	// expense model after refinance
	vacancyFactor          = 0.94
	maintenanceAndMgmtRate = 0.16
)

// Inputs describes a BRRRR deal. Percentages are 0-100. RehabMonths,
// RefiLTV and RefiRate are optional: nil takes the default, while an
// explicit 0 is analyzed as given.
type Inputs struct {
	PurchasePrice       float64  `json:"purchasePrice" yaml:"purchasePrice" validate:"gte=0"`
	ClosingCosts        float64  `json:"closingCosts" yaml:"closingCosts" validate:"gte=0"`
	RehabCost           float64  `json:"rehabCost" yaml:"rehabCost" validate:"gte=0"`
	HoldingCostsMonthly float64  `json:"holdingCostsMonthly" yaml:"holdingCostsMonthly" validate:"gte=0"`
	RehabMonths         *int     `json:"rehabMonths,omitempty" yaml:"rehabMonths,omitempty" validate:"omitempty,gte=0"`
	ARV                 float64  `json:"arv" yaml:"arv" validate:"gte=0"`
	MonthlyRent         float64  `json:"monthlyRent" yaml:"monthlyRent" validate:"gte=0"`
	RefiLTV             *float64 `json:"refiLtv,omitempty" yaml:"refiLtv,omitempty" validate:"omitempty,gte=0,lte=100"`
	RefiRate            *float64 `json:"refiRate,omitempty" yaml:"refiRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	RefiCosts           float64  `json:"refiCosts" yaml:"refiCosts" validate:"gte=0"`
	AmortizationYears   int      `json:"amortizationYears" yaml:"amortizationYears" validate:"gte=0,lte=50"`
}

// Result is the outcome of a BRRRR analysis.
type Result struct {
	TotalHoldingCosts float64 `json:"totalHoldingCosts"`
	TotalInvestment   float64 `json:"totalInvestment"`
	RefinanceAmount   float64 `json:"refinanceAmount"`
	CashLeftInDeal    float64 `json:"cashLeftInDeal"`
	EquityCreated     float64 `json:"equityCreated"`
	MortgagePayment   float64 `json:"mortgagePayment"`
	MonthlyExpenses   float64 `json:"monthlyExpenses"`
	MonthlyCashFlow   float64 `json:"monthlyCashFlow"`
	AnnualCashFlow    float64 `json:"annualCashFlow"`
	// CashOnCash is a percent. It is 0 and InfiniteReturn is set when no
	// capital remains in the deal.
	CashOnCash     float64 `json:"cashOnCash"`
	InfiniteReturn bool    `json:"infiniteReturn"`
	RehabROI       float64 `json:"rehabRoi"`
}

// Ptr returns a pointer to v, for the optional inputs.
func Ptr[T any](v T) *T {
	return &v
}

// Normalize fills omitted refinance terms with defaults. Explicit zeros are
// kept; a zero amortization period is not a valid term and is defaulted.
func (in Inputs) Normalize() Inputs {
	if in.RehabMonths == nil {
		in.RehabMonths = Ptr(DefaultRehabMonths)
	}
	if in.RefiLTV == nil {
		in.RefiLTV = Ptr(DefaultRefiLTV)
	}
	if in.RefiRate == nil {
		in.RefiRate = Ptr(DefaultRefiRate)
	}
	if in.AmortizationYears == 0 {
		in.AmortizationYears = DefaultAmortizationYears
	}
	return in
}

var validate = validator.New()

// Validate checks in at the boundary.
func Validate(in Inputs) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("invalid BRRRR inputs: %w", err)
	}
	return nil
}

// Analyze evaluates in. Omitted terms take their defaults.
func Analyze(in Inputs) Result {
	var r Result
	in = in.Normalize()

	r.TotalHoldingCosts = in.HoldingCostsMonthly * float64(*in.RehabMonths)
	r.TotalInvestment = in.PurchasePrice + in.ClosingCosts + in.RehabCost + r.TotalHoldingCosts

	r.RefinanceAmount = in.ARV * *in.RefiLTV / constants.PercentageMultiplier
	r.CashLeftInDeal = r.TotalInvestment - r.RefinanceAmount + in.RefiCosts
	r.EquityCreated = in.ARV - r.RefinanceAmount

	r.MortgagePayment = finance.MortgagePayment(r.RefinanceAmount, *in.RefiRate/constants.PercentageMultiplier, in.AmortizationYears)
	r.MonthlyExpenses = r.MortgagePayment +
		in.ARV*constants.DefaultPropertyTaxRate/constants.MonthsPerYear +
		constants.DefaultInsuranceAnnual/constants.MonthsPerYear +
		in.MonthlyRent*maintenanceAndMgmtRate
	r.MonthlyCashFlow = in.MonthlyRent*vacancyFactor - r.MonthlyExpenses
	r.AnnualCashFlow = r.MonthlyCashFlow * constants.MonthsPerYear

	if r.CashLeftInDeal > 0 {
		r.CashOnCash = r.AnnualCashFlow / r.CashLeftInDeal * constants.PercentageMultiplier
	} else {
		r.InfiniteReturn = true
	}

	if in.RehabCost > 0 {
		valueAdded := in.ARV - in.PurchasePrice
		r.RehabROI = (valueAdded - in.RehabCost) / in.RehabCost * constants.PercentageMultiplier
	}

	return r
}

// CashOnCashDisplay renders cash-on-cash with one decimal, or the infinite
// return marker when all capital has been pulled out.
func (r Result) CashOnCashDisplay() string {
	if r.InfiniteReturn {
		return format.InfiniteReturn
	}
	return format.PercentPoints(r.CashOnCash, 1)
}

// Analyzer runs BRRRR analyses with logging.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a BRRRR analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Run validates and analyzes in.
func (a *Analyzer) Run(in Inputs) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}
	r := Analyze(in)

	a.logger.Debug("BRRRR deal analyzed",
		zap.String("op", "brrrr.Run"),
		zap.Float64("cashLeftInDeal", r.CashLeftInDeal),
		zap.Float64("monthlyCashFlow", r.MonthlyCashFlow),
		zap.Bool("infiniteReturn", r.InfiniteReturn),
	)
	return r, nil
}
