package scenario

import (
	"sync"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// RatePoint is the outcome of analyzing at one interest rate.
type RatePoint struct {
	Rate            float64 `json:"rate"`
	MonthlyCashFlow float64 `json:"monthlyCashFlow"`
	DealScore       int     `json:"dealScore"`
}

// VacancyPoint is the outcome of analyzing at one vacancy rate.
type VacancyPoint struct {
	VacancyRate     float64 `json:"vacancyRate"`
	MonthlyCashFlow float64 `json:"monthlyCashFlow"`
}

// RentGrowthProjection shows rent under compounding growth.
// Year 1 is today's rent.
type RentGrowthProjection struct {
	GrowthRate   float64 `json:"growthRate"`
	Year1Rent    float64 `json:"year1Rent"`
	Year3Rent    float64 `json:"year3Rent"`
	Year5Rent    float64 `json:"year5Rent"`
	YearPositive string  `json:"yearPositive"`
}

// TimelinePoint is one year of the short equity timeline.
type TimelinePoint struct {
	Year               int     `json:"year"`
	PropertyValue      float64 `json:"propertyValue"`
	Equity             float64 `json:"equity"`
	AnnualCashFlow     float64 `json:"annualCashFlow"`
	CumulativeCashFlow float64 `json:"cumulativeCashFlow"`
}

// TimelineSummary is the final year of a timeline with its total return.
type TimelineSummary struct {
	Equity             float64 `json:"equity"`
	CumulativeCashFlow float64 `json:"cumulativeCashFlow"`
	// TotalReturnPercent is (equity + cash flow) over cash invested, minus 100%.
	TotalReturnPercent float64 `json:"totalReturnPercent"`
}

// RateSweep analyzes in at each interest rate (percent).
func RateSweep(in analyzer.PropertyInputs, rates []float64) []RatePoint {
	points := make([]RatePoint, len(rates))
	for i, rate := range rates {
		points[i] = ratePoint(in, rate)
	}
	return points
}

func ratePoint(in analyzer.PropertyInputs, rate float64) RatePoint {
	r := analyzer.Analyze(in.WithInterestRate(rate))
	return RatePoint{Rate: rate, MonthlyCashFlow: r.MonthlyCashFlow, DealScore: r.DealScore}
}

// VacancySweep analyzes in at each vacancy rate (percent).
func VacancySweep(in analyzer.PropertyInputs, vacancies []float64) []VacancyPoint {
	points := make([]VacancyPoint, len(vacancies))
	for i, vacancy := range vacancies {
		points[i] = VacancyPoint{
			VacancyRate:     vacancy,
			MonthlyCashFlow: analyzer.Analyze(in.WithVacancyRate(vacancy)).MonthlyCashFlow,
		}
	}
	return points
}

// RentGrowth projects rent at growthRate (decimal) and finds the first
// cash-flow-positive year.
func RentGrowth(in analyzer.PropertyInputs, growthRate float64) RentGrowthProjection {
	return RentGrowthProjection{
		GrowthRate:   growthRate,
		Year1Rent:    in.MonthlyRent,
		Year3Rent:    mathutil.Compound(in.MonthlyRent, growthRate, 2),
		Year5Rent:    mathutil.Compound(in.MonthlyRent, growthRate, 4),
		YearPositive: FindYearToPositiveCashFlow(in, growthRate),
	}
}

// Timeline projects value, simplified equity and cumulative cash flow for
// years 1..years. Equity is the down payment plus appreciation only; loan
// paydown is deliberately left out. Value appreciates and rent grows at 3%.
func Timeline(in analyzer.PropertyInputs, years int) []TimelinePoint {
	base := analyzer.Analyze(in)
	points := make([]TimelinePoint, 0, years)
	cumulative := 0.0

	for year := 1; year <= years; year++ {
		value := mathutil.Compound(in.PurchasePrice, constants.DefaultAppreciationRate, float64(year))
		rent := mathutil.Compound(in.MonthlyRent, constants.DefaultRentGrowthRate, float64(year-1))
		annual := analyzer.Analyze(in.WithMonthlyRent(rent)).AnnualCashFlow
		cumulative += annual

		points = append(points, TimelinePoint{
			Year:               year,
			PropertyValue:      value,
			Equity:             base.DownPaymentAmount + (value - in.PurchasePrice),
			AnnualCashFlow:     annual,
			CumulativeCashFlow: cumulative,
		})
	}
	return points
}

// SummarizeTimeline reports the last point of points against the cash invested.
func SummarizeTimeline(points []TimelinePoint, totalCashRequired float64) TimelineSummary {
	if len(points) == 0 {
		return TimelineSummary{}
	}
	last := points[len(points)-1]
	s := TimelineSummary{Equity: last.Equity, CumulativeCashFlow: last.CumulativeCashFlow}
	if totalCashRequired > 0 {
		s.TotalReturnPercent = ((last.Equity+last.CumulativeCashFlow)/totalCashRequired - 1) * constants.PercentageMultiplier
	}
	return s
}

// Engine runs scenario analyses with logging. It holds no per-analysis state
// and is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a scenario engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// CompareRates is RateSweep with each rate analyzed on its own goroutine.
// Results keep the order of rates.
func (e *Engine) CompareRates(in analyzer.PropertyInputs, rates []float64) []RatePoint {
	points := make([]RatePoint, len(rates))
	var wg sync.WaitGroup
	for i, rate := range rates {
		wg.Add(1)
		go func(i int, rate float64) {
			defer wg.Done()
			points[i] = ratePoint(in, rate)
		}(i, rate)
	}
	wg.Wait()

	e.logger.Debug("rate scenarios compared",
		zap.String("op", "scenario.CompareRates"),
		zap.Int("scenarios", len(points)),
	)
	return points
}

// BreakEven runs BreakEvenSearch and logs when the search assumptions fail.
func (e *Engine) BreakEven(in analyzer.PropertyInputs) BreakEvenResult {
	result := BreakEvenSearch(in)
	if !result.Monotonic {
		e.logger.Warn("cash flow is not monotonic in interest rate",
			zap.String("op", "scenario.BreakEven"),
			zap.Float64("rate", result.Value),
		)
	}
	e.logger.Debug("break-even rate found",
		zap.String("op", "scenario.BreakEven"),
		zap.Float64("rate", result.Value),
		zap.Int("iterations", result.Iterations),
		zap.Bool("converged", result.Converged),
	)
	return result
}
