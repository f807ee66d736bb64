// Package comparison picks the stronger of two analyzed properties.
package comparison

import (
	"fmt"
	"strings"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/pkg/format"
)

// Winner values.
const (
	WinnerA   = "A"
	WinnerB   = "B"
	WinnerTie = "Tie"
)

// Points awarded for the better value of each metric.
const (
	cashFlowPoints   = 3
	capRatePoints    = 2
	cashOnCashPoints = 2
	dealScorePoints  = 1
)

const tieReason = "Both properties show similar investment potential."

// Snapshot holds the metrics a comparison looks at.
type Snapshot struct {
	Name            string  `json:"name,omitempty"`
	MonthlyCashFlow float64 `json:"monthlyCashFlow"`
	CapRate         float64 `json:"capRate"`
	CashOnCash      float64 `json:"cashOnCash"`
	DealScore       int     `json:"dealScore"`
}

// Result names the winner and explains why.
type Result struct {
	Winner string `json:"winner"`
	ScoreA int    `json:"scoreA"`
	ScoreB int    `json:"scoreB"`
	Reason string `json:"reason"`
}

// FromAnalysis takes the compared metrics from an analysis result.
func FromAnalysis(name string, r analyzer.AnalysisResult) Snapshot {
	return Snapshot{
		Name:            name,
		MonthlyCashFlow: r.MonthlyCashFlow,
		CapRate:         r.CapRate,
		CashOnCash:      r.CashOnCash,
		DealScore:       r.DealScore,
	}
}

// Compare scores a against b. Each metric awards its points to the strictly
// better side; equal values award nothing.
func Compare(a, b Snapshot) Result {
	var r Result

	award(a.MonthlyCashFlow, b.MonthlyCashFlow, cashFlowPoints, &r)
	award(a.CapRate, b.CapRate, capRatePoints, &r)
	award(a.CashOnCash, b.CashOnCash, cashOnCashPoints, &r)
	award(float64(a.DealScore), float64(b.DealScore), dealScorePoints, &r)

	switch {
	case r.ScoreA > r.ScoreB:
		r.Winner = WinnerA
		r.Reason = reason(a, b, WinnerA)
	case r.ScoreB > r.ScoreA:
		r.Winner = WinnerB
		r.Reason = reason(b, a, WinnerB)
	default:
		r.Winner = WinnerTie
		r.Reason = tieReason
	}
	return r
}

func award(a, b float64, points int, r *Result) {
	if a > b {
		r.ScoreA += points
	} else if b > a {
		r.ScoreB += points
	}
}

func reason(winner, loser Snapshot, label string) string {
	var reasons []string

	if winner.MonthlyCashFlow > loser.MonthlyCashFlow {
		reasons = append(reasons, format.WholeCurrency(winner.MonthlyCashFlow-loser.MonthlyCashFlow)+"/mo higher cash flow")
	}
	if winner.CapRate > loser.CapRate {
		reasons = append(reasons, format.Percent(winner.CapRate-loser.CapRate, 1)+" higher cap rate")
	}
	if winner.DealScore > loser.DealScore {
		reasons = append(reasons, fmt.Sprintf("%d point higher deal score", winner.DealScore-loser.DealScore))
	}

	if len(reasons) == 0 {
		return fmt.Sprintf("Property %s shows stronger overall fundamentals.", label)
	}
	return strings.Join(reasons, ", ") + " makes this the stronger investment."
}
