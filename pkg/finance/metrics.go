// Package finance provides the pure numeric primitives used to evaluate a
// rental property: loan payments, operating income and return ratios.
//
// Every ratio in this package returns 0 for a degenerate denominator
// instead of an error, and none of them validate their inputs.
package finance

import (
	"math"

	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
)

// MortgagePayment returns the monthly payment that fully amortizes principal
// over years at annualRate (a decimal, 0.055 for 5.5%).
func MortgagePayment(principal, annualRate float64, years int) float64 {
	n := float64(years * constants.MonthsPerYear)
	if annualRate == 0 {
		return principal / n
	}

	monthlyRate := annualRate / constants.MonthsPerYear
	power := math.Pow(1+monthlyRate, n)
	return principal * monthlyRate * power / (power - 1)
}

// NOI returns net operating income for one period.
func NOI(grossRent, vacancyRate, operatingExpenses float64) float64 {
	return grossRent*(1-vacancyRate) - operatingExpenses
}

// CapRate is annual NOI over property value.
func CapRate(annualNOI, propertyValue float64) float64 {
	return mathutil.SafeDivide(annualNOI, propertyValue)
}

// CashOnCash is annual pre-tax cash flow over total cash invested.
func CashOnCash(annualCashFlow, totalCashInvested float64) float64 {
	return mathutil.SafeDivide(annualCashFlow, totalCashInvested)
}

// DSCR is annual NOI over annual debt service.
func DSCR(noiAnnual, annualDebtService float64) float64 {
	return mathutil.SafeDivide(noiAnnual, annualDebtService)
}

// BreakEvenVacancy is the vacancy fraction at which cash flow reaches zero.
// The result may be negative; callers floor it before display.
func BreakEvenVacancy(grossRent, totalExpenses float64) float64 {
	if grossRent <= 0 {
		return 0
	}
	return 1 - totalExpenses/grossRent
}

// EstimateIRR approximates the annualized return of a fixed holding period:
// the property appreciates, is sold net of selling costs and the remaining
// loan, and the proceeds plus cumulative cash flow are annualized against the
// initial investment. Negative and undefined results are reported as 0.
func EstimateIRR(initialInvestment, annualCashFlow, propertyValue, appreciationRate, loanBalance float64) float64 {
	years := float64(constants.IRRHoldYears)
	futureValue := mathutil.Compound(propertyValue, appreciationRate, years)
	sellingCosts := futureValue * constants.SellingCostRate
	netSaleProceeds := futureValue - sellingCosts - loanBalance
	totalReturn := annualCashFlow*years + netSaleProceeds

	irr := math.Pow(totalReturn/initialInvestment, 1/years) - 1
	if !mathutil.IsFinite(irr) || irr < 0 {
		return 0
	}
	return irr
}

// RemainingBalance returns the loan balance after paymentsMade monthly
// payments on a fully amortizing loan. With a zero rate the balance falls
// linearly. The result is floored at 0.
func RemainingBalance(principal, annualRate float64, years, paymentsMade int) float64 {
	n := float64(years * constants.MonthsPerYear)
	p := float64(paymentsMade)
	if p >= n {
		return 0
	}
	if annualRate == 0 {
		return mathutil.FloorAt(principal*(1-p/n), 0)
	}

	r := annualRate / constants.MonthsPerYear
	growthN := math.Pow(1+r, n)
	growthP := math.Pow(1+r, p)
	return mathutil.FloorAt(principal*(growthN-growthP)/(growthN-1), 0)
}
