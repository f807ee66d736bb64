// Package scenario re-runs the property analyzer under perturbed inputs:
// rate and vacancy sweeps, rent growth, and bounded root searches for the
// break-even interest rate and the first cash-flow-positive year.
package scenario

import (
	"fmt"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/iwvelando/property-analyzer/pkg/optimization"
)

// Labels returned by FindYearToPositiveCashFlow.
const (
	PositiveNow     = "Now"
	PositiveBeyond  = "10+ Years"
	positiveYearFmt = "Year %d"
)

// CashFlowAtRate returns monthly cash flow with the interest rate (percent) replaced.
func CashFlowAtRate(in analyzer.PropertyInputs, rate float64) float64 {
	return analyzer.Analyze(in.WithInterestRate(rate)).MonthlyCashFlow
}

// BreakEvenResult describes a break-even interest rate search.
type BreakEvenResult struct {
	optimization.Summary
	// Monotonic reports whether cash flow was observed to be non-increasing
	// in rate across the search range.
	Monotonic bool `json:"monotonic"`
}

// FindBreakEvenRate returns the interest rate (percent, within [0, 15]) at
// which monthly cash flow is approximately zero. When no such rate exists in
// the range the nearest edge estimate is returned.
func FindBreakEvenRate(in analyzer.PropertyInputs) float64 {
	return searchBreakEven(in).Value
}

// BreakEvenSearch runs the break-even rate search and additionally verifies
// the monotonicity the bisection relies on.
func BreakEvenSearch(in analyzer.PropertyInputs) BreakEvenResult {
	result := BreakEvenResult{
		Summary:   searchBreakEven(in),
		Monotonic: IsCashFlowMonotonic(in, 0, constants.BreakEvenRateCeiling, 60),
	}
	if !result.Monotonic {
		result.Notes = append(result.Notes, "cash flow is not monotonic in rate; the root found may not be unique")
	}
	if !result.Converged {
		result.Notes = append(result.Notes, "no rate in range brings cash flow within $1 of zero")
	}
	return result
}

func searchBreakEven(in analyzer.PropertyInputs) optimization.Summary {
	s := optimization.Bisect(func(rate float64) float64 {
		return CashFlowAtRate(in, rate)
	}, 0, constants.BreakEvenRateCeiling, constants.BreakEvenIterations, constants.BreakEvenCashFlowTolerance)
	s.Target = "monthlyCashFlow"
	s.Field = "interestRate"
	s.Original = in.InterestRate
	return s
}

// IsCashFlowMonotonic samples cash flow at steps+1 evenly spaced rates in
// [lower, upper] and reports whether it never increases.
func IsCashFlowMonotonic(in analyzer.PropertyInputs, lower, upper float64, steps int) bool {
	if steps < 1 {
		steps = 1
	}
	previous := CashFlowAtRate(in, lower)
	for i := 1; i <= steps; i++ {
		rate := lower + (upper-lower)*float64(i)/float64(steps)
		current := CashFlowAtRate(in, rate)
		if current > previous+constants.CurrencyTolerance {
			return false
		}
		previous = current
	}
	return true
}

// YearToPositiveCashFlow returns how many years of compounding rent growth
// are needed before cash flow is non-negative. found is false when the
// horizon is exhausted.
func YearToPositiveCashFlow(in analyzer.PropertyInputs, growthRate float64) (years int, found bool) {
	if analyzer.Analyze(in).MonthlyCashFlow >= 0 {
		return 0, true
	}
	for year := 1; year <= constants.PositiveCashFlowHorizonYears; year++ {
		rent := mathutil.Compound(in.MonthlyRent, growthRate, float64(year))
		if analyzer.Analyze(in.WithMonthlyRent(rent)).MonthlyCashFlow >= 0 {
			return year, true
		}
	}
	return 0, false
}

// FindYearToPositiveCashFlow renders YearToPositiveCashFlow as "Now",
// "Year N" or "10+ Years".
func FindYearToPositiveCashFlow(in analyzer.PropertyInputs, growthRate float64) string {
	years, found := YearToPositiveCashFlow(in, growthRate)
	switch {
	case !found:
		return PositiveBeyond
	case years == 0:
		return PositiveNow
	default:
		return fmt.Sprintf(positiveYearFmt, years)
	}
}
