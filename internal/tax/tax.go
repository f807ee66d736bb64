// Package tax estimates the first-year income tax effect of a rental,
// optionally claiming capital cost allowance (CCA) on the building.
package tax

import (
	"math"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
)

// Defaults used when Options leaves a value unset.
const (
	DefaultMarginalRate  = 0.36
	DefaultBuildingValue = 280000.0

	// CCARate is the class 1 declining balance rate for residential buildings.
	CCARate = 0.04

	// firstYearInterestShare approximates the interest portion of the first
	// year of payments on a new mortgage.
	firstYearInterestShare = 0.95
)

// Options are the owner's tax circumstances.
type Options struct {
	MarginalRate  float64 `json:"marginalRate" yaml:"marginalRate" mapstructure:"marginalRate"`
	BuildingValue float64 `json:"buildingValue" yaml:"buildingValue" mapstructure:"buildingValue"`
	ClaimCCA      bool    `json:"claimCca" yaml:"claimCca" mapstructure:"claimCca"`
}

// DefaultOptions claims CCA on the default building value at the default marginal rate.
func DefaultOptions() Options {
	return Options{
		MarginalRate:  DefaultMarginalRate,
		BuildingValue: DefaultBuildingValue,
		ClaimCCA:      true,
	}
}

// Normalize fills a zero marginal rate or building value with its default.
func (o Options) Normalize() Options {
	if o.MarginalRate == 0 {
		o.MarginalRate = DefaultMarginalRate
	}
	if o.BuildingValue == 0 {
		o.BuildingValue = DefaultBuildingValue
	}
	return o
}

// Result is an annual rental income statement with its tax effect. A
// negative tax is a saving against other income.
type Result struct {
	GrossRentalIncome  float64 `json:"grossRentalIncome"`
	MortgageInterest   float64 `json:"mortgageInterest"`
	PropertyTax        float64 `json:"propertyTax"`
	Insurance          float64 `json:"insurance"`
	Maintenance        float64 `json:"maintenance"`
	PropertyManagement float64 `json:"propertyManagement"`
	CCA                float64 `json:"cca"`
	TotalExpenses      float64 `json:"totalExpenses"`

	NetIncomeWithoutCCA float64 `json:"netIncomeWithoutCca"`
	NetIncomeWithCCA    float64 `json:"netIncomeWithCca"`
	TaxWithoutCCA       float64 `json:"taxWithoutCca"`
	TaxWithCCA          float64 `json:"taxWithCca"`
	CCABenefit          float64 `json:"ccaBenefit"`

	// IsRefund is set when the rental loss offsets other income.
	IsRefund  bool    `json:"isRefund"`
	TaxImpact float64 `json:"taxImpact"`
}

// Calculate builds the first-year statement for in, financed with loanAmount.
// Property tax uses the market rate on the purchase price rather than the
// entered property tax, and maintenance and management use fixed shares of
// gross rent.
func Calculate(in analyzer.PropertyInputs, loanAmount float64, opts Options) Result {
	var r Result

	r.GrossRentalIncome = in.MonthlyRent * constants.MonthsPerYear
	r.MortgageInterest = loanAmount * in.InterestRate / constants.PercentageMultiplier * firstYearInterestShare
	r.PropertyTax = in.PurchasePrice * constants.DefaultPropertyTaxRate
	r.Insurance = in.InsuranceAnnual
	if r.Insurance == 0 {
		r.Insurance = constants.DefaultInsuranceAnnual
	}
	r.Maintenance = mathutil.ApplyPercentage(r.GrossRentalIncome, constants.DefaultMaintenancePercent)
	r.PropertyManagement = mathutil.ApplyPercentage(r.GrossRentalIncome, constants.DefaultPropertyManagementPercent)
	if opts.ClaimCCA {
		r.CCA = opts.BuildingValue * CCARate
	}

	r.TotalExpenses = r.MortgageInterest + r.PropertyTax + r.Insurance + r.Maintenance + r.PropertyManagement
	r.NetIncomeWithoutCCA = r.GrossRentalIncome - r.TotalExpenses
	r.NetIncomeWithCCA = r.NetIncomeWithoutCCA - r.CCA

	r.TaxWithoutCCA = r.NetIncomeWithoutCCA * opts.MarginalRate
	r.TaxWithCCA = r.NetIncomeWithCCA * opts.MarginalRate
	r.CCABenefit = math.Abs(r.TaxWithoutCCA - r.TaxWithCCA)

	r.IsRefund = r.NetIncomeWithCCA < 0
	r.TaxImpact = math.Abs(r.TaxWithCCA)
	return r
}

// ForAnalysis calculates the statement using the loan amount of an analysis.
func ForAnalysis(in analyzer.PropertyInputs, result analyzer.AnalysisResult, opts Options) Result {
	return Calculate(in, result.LoanAmount, opts)
}
