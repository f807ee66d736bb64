// Package scoring turns the headline metrics of an analysis into a 0-100
// deal score with a qualitative label.
package scoring

import (
	"math"

	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
)

// Deal labels, best first.
const (
	LabelExcellent = "Excellent Deal"
	LabelGood      = "Good Deal"
	LabelFair      = "Fair Deal"
	LabelMarginal  = "Marginal"
	LabelPoor      = "Poor Deal"
)

// Metrics holds the inputs the scorer reads from an analysis.
// BreakEvenVacancy is the unclamped value.
type Metrics struct {
	MonthlyCashFlow  float64
	CapRate          float64
	DSCR             float64
	BreakEvenVacancy float64
}

// Score is a composite deal score with per-component display scores.
type Score struct {
	Total          int    `json:"score"`
	Label          string `json:"label"`
	CashFlowScore  int    `json:"cashFlowScore"`
	CapRateScore   int    `json:"capRateScore"`
	MarketFitScore int    `json:"marketFitScore"`
}

// Evaluate scores m. Cash flow is worth up to 40 points, cap rate up to 30,
// and market fit (debt coverage plus vacancy headroom) up to 30.
func Evaluate(m Metrics) Score {
	cashFlow := CashFlowPoints(m.MonthlyCashFlow)
	capRate := CapRatePoints(m.CapRate)
	marketFit := MarketFitPoints(m.DSCR, m.BreakEvenVacancy)

	total := int(math.Round(mathutil.Clamp(cashFlow+capRate+marketFit, 0, 100)))

	return Score{
		Total:          total,
		Label:          Label(total),
		CashFlowScore:  displayScore(cashFlow, constants.CashFlowMaxPoints),
		CapRateScore:   displayScore(capRate, constants.CapRateMaxPoints),
		MarketFitScore: displayScore(marketFit, constants.MarketFitMaxPoints),
	}
}

// CashFlowPoints ramps linearly from 0 at $0/month to 40 at $500/month.
func CashFlowPoints(monthlyCashFlow float64) float64 {
	points := monthlyCashFlow / constants.CashFlowTarget * constants.CashFlowMaxPoints
	return mathutil.Clamp(points, 0, constants.CashFlowMaxPoints)
}

// CapRatePoints ramps linearly from 0 at 0% to 30 at 8%.
func CapRatePoints(capRate float64) float64 {
	points := capRate / constants.CapRateTarget * constants.CapRateMaxPoints
	return mathutil.Clamp(points, 0, constants.CapRateMaxPoints)
}

// MarketFitPoints combines a debt coverage component and a break-even
// vacancy component, 15 points each.
func MarketFitPoints(dscr, breakEvenVacancy float64) float64 {
	var points float64

	switch {
	case dscr >= constants.StrongDSCR:
		points += constants.MarketFitHighPoints
	case dscr >= constants.AdequateDSCR:
		points += constants.MarketFitMidPoints
	default:
		// negative NOI never subtracts points
		points += mathutil.FloorAt(dscr*10, 0)
	}

	switch {
	case breakEvenVacancy >= constants.StrongBreakEven:
		points += constants.MarketFitHighPoints
	case breakEvenVacancy >= constants.AdequateBreakEven:
		points += constants.MarketFitMidPoints
	default:
		points += mathutil.FloorAt(breakEvenVacancy*constants.PercentageMultiplier, 0)
	}

	return mathutil.Clamp(points, 0, constants.MarketFitMaxPoints)
}

// Label maps a total score to its qualitative label.
func Label(total int) string {
	switch {
	case total >= 80:
		return LabelExcellent
	case total >= 65:
		return LabelGood
	case total >= 50:
		return LabelFair
	case total >= 35:
		return LabelMarginal
	default:
		return LabelPoor
	}
}

func displayScore(points, max float64) int {
	return int(math.Round(points / max * 100))
}
