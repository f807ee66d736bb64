// Package wealth projects equity and cash flow over long horizons for a
// single property or an aggregated portfolio.
package wealth

import (
	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
)

const (
	// paydownTermYears and paydownFactor approximate principal retired as a
	// linear share of the loan.
	paydownTermYears = 25.0
	paydownFactor    = 0.6
)

// Position is the current state being projected.
type Position struct {
	Value           float64 `json:"value"`
	Equity          float64 `json:"equity"`
	MonthlyCashFlow float64 `json:"monthlyCashFlow"`
	LoanAmount      float64 `json:"loanAmount"`
}

// Projection is a position projected forward by Years.
type Projection struct {
	Years           int     `json:"years"`
	FutureValue     float64 `json:"futureValue"`
	PrincipalPaid   float64 `json:"principalPaid"`
	RemainingLoan   float64 `json:"remainingLoan"`
	Equity          float64 `json:"equity"`
	MonthlyCashFlow float64 `json:"monthlyCashFlow"`
}

// Project grows p for years. Appreciation compounds on value and rent growth
// compounds on cash flow. Loan paydown uses a linear approximation, not an
// amortization schedule.
func Project(p Position, appreciationRate, rentGrowthRate float64, years int) Projection {
	y := float64(years)
	futureValue := mathutil.Compound(p.Value, appreciationRate, y)
	principalPaid := p.LoanAmount * (y / paydownTermYears) * paydownFactor
	remaining := mathutil.FloorAt(p.LoanAmount-principalPaid, 0)

	return Projection{
		Years:           years,
		FutureValue:     futureValue,
		PrincipalPaid:   principalPaid,
		RemainingLoan:   remaining,
		Equity:          futureValue - remaining,
		MonthlyCashFlow: mathutil.Compound(p.MonthlyCashFlow, rentGrowthRate, y),
	}
}

// ProjectHorizons projects p at each of the standard 10, 20 and 30 year horizons.
func ProjectHorizons(p Position, appreciationRate, rentGrowthRate float64) []Projection {
	return ProjectYears(p, appreciationRate, rentGrowthRate, constants.DefaultWealthHorizons)
}

// ProjectYears projects p at each horizon in years.
func ProjectYears(p Position, appreciationRate, rentGrowthRate float64, horizons []int) []Projection {
	out := make([]Projection, len(horizons))
	for i, years := range horizons {
		out[i] = Project(p, appreciationRate, rentGrowthRate, years)
	}
	return out
}

// FromAnalysis builds the position of a single analyzed property.
func FromAnalysis(in analyzer.PropertyInputs, r analyzer.AnalysisResult) Position {
	return Position{
		Value:           in.PurchasePrice,
		Equity:          r.DownPaymentAmount,
		MonthlyCashFlow: r.MonthlyCashFlow,
		LoanAmount:      r.LoanAmount,
	}
}

// FromPortfolio builds the aggregate position of a saved portfolio. The
// combined loan is the total value less the total equity.
func FromPortfolio(s portfolio.Summary) Position {
	return Position{
		Value:           s.TotalValue,
		Equity:          s.TotalEquity,
		MonthlyCashFlow: s.TotalMonthlyCashFlow,
		LoanAmount:      s.TotalValue - s.TotalEquity,
	}
}
