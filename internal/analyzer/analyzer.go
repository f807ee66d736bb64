// Package analyzer turns one PropertyInputs snapshot into a full metrics
// report. It performs no I/O and keeps no state between calls.
package analyzer

import (
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/finance"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/iwvelando/property-analyzer/pkg/scoring"
	"go.uber.org/zap"
)

// LoanBalanceCheckpointYears is the year at which the remaining loan balance
// is reported and fed to the IRR estimate.
const LoanBalanceCheckpointYears = constants.IRRHoldYears

// AnalysisResult is every metric derived from one PropertyInputs value.
// Rates and ratios are decimals (0.052 for 5.2%). Monetary values are monthly
// unless named otherwise.
type AnalysisResult struct {
	MonthlyCashFlow  float64 `json:"monthlyCashFlow"`
	AnnualCashFlow   float64 `json:"annualCashFlow"`
	CapRate          float64 `json:"capRate"`
	CashOnCash       float64 `json:"cashOnCash"`
	IRR              float64 `json:"irr"`
	DSCR             float64 `json:"dscr"`
	BreakEvenVacancy float64 `json:"breakEvenVacancy"`

	DealScore      int    `json:"dealScore"`
	DealScoreLabel string `json:"dealScoreLabel"`
	CashFlowScore  int    `json:"cashFlowScore"`
	CapRateScore   int    `json:"capRateScore"`
	MarketFitScore int    `json:"marketFitScore"`

	MortgagePayment        float64 `json:"mortgagePayment"`
	TotalMonthlyExpenses   float64 `json:"totalMonthlyExpenses"`
	EffectiveGrossIncome   float64 `json:"effectiveGrossIncome"`
	NOI                    float64 `json:"noi"`
	AnnualNOI              float64 `json:"annualNoi"`
	TotalCashRequired      float64 `json:"totalCashRequired"`
	DownPaymentAmount      float64 `json:"downPaymentAmount"`
	LoanAmount             float64 `json:"loanAmount"`
	LoanBalanceAfter5Years float64 `json:"loanBalanceAfter5Years"`

	VacancyLoss               float64 `json:"vacancyLoss"`
	MonthlyPropertyTax        float64 `json:"monthlyPropertyTax"`
	MonthlyInsurance          float64 `json:"monthlyInsurance"`
	MonthlyMaintenance        float64 `json:"monthlyMaintenance"`
	MonthlyPropertyManagement float64 `json:"monthlyPropertyManagement"`
	MonthlyCondoFees          float64 `json:"monthlyCondoFees"`
	MonthlyUtilities          float64 `json:"monthlyUtilities"`
	MonthlyOperatingExpenses  float64 `json:"monthlyOperatingExpenses"`
}

// Analyzer runs analyses and logs a summary of each one.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil logger disables logging.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

var quiet = NewAnalyzer(nil)

// Analyze runs the analysis without logging.
func Analyze(in PropertyInputs) AnalysisResult {
	return quiet.Analyze(in)
}

// Analyze computes the full metrics report for in.
func (a *Analyzer) Analyze(in PropertyInputs) AnalysisResult {
	var r AnalysisResult

	r.DownPaymentAmount = mathutil.ApplyPercentage(in.PurchasePrice, in.DownPaymentPercent)
	r.LoanAmount = in.PurchasePrice - r.DownPaymentAmount
	annualRate := in.InterestRate / constants.PercentageMultiplier
	r.MortgagePayment = finance.MortgagePayment(r.LoanAmount, annualRate, in.AmortizationYears)

	r.MonthlyPropertyTax = in.PropertyTaxAnnual / constants.MonthsPerYear
	r.MonthlyInsurance = in.InsuranceAnnual / constants.MonthsPerYear
	r.MonthlyMaintenance = mathutil.ApplyPercentage(in.MonthlyRent, in.MaintenancePercent)
	r.MonthlyPropertyManagement = mathutil.ApplyPercentage(in.MonthlyRent, in.PropertyManagementPercent)
	if in.PropertyType == PropertyTypeCondo {
		r.MonthlyCondoFees = in.CondoFeesMonthly
	}
	if in.UtilitiesIncluded {
		r.MonthlyUtilities = in.UtilitiesCostMonthly
	}
	r.MonthlyOperatingExpenses = r.MonthlyPropertyTax + r.MonthlyInsurance + r.MonthlyMaintenance +
		r.MonthlyPropertyManagement + r.MonthlyCondoFees + r.MonthlyUtilities

	r.VacancyLoss = mathutil.ApplyPercentage(in.MonthlyRent, in.VacancyRate)
	r.EffectiveGrossIncome = in.MonthlyRent - r.VacancyLoss

	r.NOI = r.EffectiveGrossIncome - r.MonthlyOperatingExpenses
	r.AnnualNOI = r.NOI * constants.MonthsPerYear

	r.TotalMonthlyExpenses = r.MonthlyOperatingExpenses + r.MortgagePayment
	r.MonthlyCashFlow = r.EffectiveGrossIncome - r.TotalMonthlyExpenses
	r.AnnualCashFlow = r.MonthlyCashFlow * constants.MonthsPerYear

	r.TotalCashRequired = r.DownPaymentAmount + in.ClosingCosts

	r.CapRate = finance.CapRate(r.AnnualNOI, in.PurchasePrice)
	r.CashOnCash = finance.CashOnCash(r.AnnualCashFlow, r.TotalCashRequired)
	r.DSCR = finance.DSCR(r.AnnualNOI, r.MortgagePayment*constants.MonthsPerYear)
	breakEvenVacancy := finance.BreakEvenVacancy(in.MonthlyRent, r.TotalMonthlyExpenses)

	r.LoanBalanceAfter5Years = finance.RemainingBalance(r.LoanAmount, annualRate, in.AmortizationYears,
		LoanBalanceCheckpointYears*constants.MonthsPerYear)
	r.IRR = finance.EstimateIRR(r.TotalCashRequired, r.AnnualCashFlow, in.PurchasePrice,
		constants.DefaultAppreciationRate, r.LoanBalanceAfter5Years)

	// scored on the unclamped break-even vacancy
	score := scoring.Evaluate(scoring.Metrics{
		MonthlyCashFlow:  r.MonthlyCashFlow,
		CapRate:          r.CapRate,
		DSCR:             r.DSCR,
		BreakEvenVacancy: breakEvenVacancy,
	})
	r.BreakEvenVacancy = mathutil.FloorAt(breakEvenVacancy, 0)
	r.DealScore = score.Total
	r.DealScoreLabel = score.Label
	r.CashFlowScore = score.CashFlowScore
	r.CapRateScore = score.CapRateScore
	r.MarketFitScore = score.MarketFitScore

	a.logger.Debug("property analyzed",
		zap.String("op", "analyzer.Analyze"),
		zap.String("propertyType", string(in.PropertyType)),
		zap.Float64("monthlyCashFlow", r.MonthlyCashFlow),
		zap.Float64("capRate", r.CapRate),
		zap.Int("dealScore", r.DealScore),
	)

	return r
}

// Score returns the deal score breakdown carried by r.
func (r AnalysisResult) Score() scoring.Score {
	return scoring.Score{
		Total:          r.DealScore,
		Label:          r.DealScoreLabel,
		CashFlowScore:  r.CashFlowScore,
		CapRateScore:   r.CapRateScore,
		MarketFitScore: r.MarketFitScore,
	}
}
