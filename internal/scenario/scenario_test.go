package scenario_test

import (
	"math"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/internal/scenario"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/testutil"
	"go.uber.org/zap"
)

func TestCashFlowAtRate(t *testing.T) {
	in := testutil.ReferenceInputs()

	testutil.AssertClose(t, "cash flow at 4%", scenario.CashFlowAtRate(in, 4.0), -568.85, 0.01)
	testutil.AssertClose(t, "cash flow at 5.5%", scenario.CashFlowAtRate(in, 5.5), analyzer.Analyze(in).MonthlyCashFlow, 0)
	testutil.AssertClose(t, "cash flow at 7%", scenario.CashFlowAtRate(in, 7.0), -1284.62, 0.01)

	if in.InterestRate != 5.5 {
		t.Error("CashFlowAtRate modified the caller's inputs")
	}
}

func TestFindBreakEvenRate(t *testing.T) {
	tests := []struct {
		name     string
		inputs   analyzer.PropertyInputs
		expected float64
	}{
		{"Negative cash flow property", testutil.ReferenceInputs(), 1.1865},
		{"Cash flowing property", testutil.CashFlowingInputs(), 8.9429},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := scenario.FindBreakEvenRate(tt.inputs)
			testutil.AssertClose(t, "break-even rate", rate, tt.expected, 0.001)

			if cf := scenario.CashFlowAtRate(tt.inputs, rate); math.Abs(cf) >= 1 {
				t.Errorf("cash flow at break-even rate %.4f is %.4f, expected |cf| < 1", rate, cf)
			}
		})
	}
}

func TestFindBreakEvenRateOutsideRange(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*analyzer.PropertyInputs)
		expected float64
	}{
		{
			name:     "Cash flow positive even at 15%",
			mutate:   func(in *analyzer.PropertyInputs) { in.MonthlyRent = 20000 },
			expected: constants.BreakEvenRateCeiling,
		},
		{
			name:     "Cash flow negative even at 0%",
			mutate:   func(in *analyzer.PropertyInputs) { in.MonthlyRent = 500 },
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.ReferenceInputs()
			tt.mutate(&in)

			result := scenario.BreakEvenSearch(in)
			testutil.AssertClose(t, "edge estimate", result.Value, tt.expected, 1e-4)
			if result.Converged {
				t.Error("search should not report convergence without a root")
			}
			if result.Iterations != constants.BreakEvenIterations {
				t.Errorf("Iterations = %d, expected %d", result.Iterations, constants.BreakEvenIterations)
			}
			if len(result.Notes) == 0 {
				t.Error("expected a note explaining the missing root")
			}
		})
	}
}

func TestCashFlowIsMonotonicInRate(t *testing.T) {
	fixtures := map[string]analyzer.PropertyInputs{
		"reference":    testutil.ReferenceInputs(),
		"cash flowing": testutil.CashFlowingInputs(),
	}
	condo := testutil.ReferenceInputs()
	condo.PropertyType = analyzer.PropertyTypeCondo
	condo.CondoFeesMonthly = 450
	fixtures["condo"] = condo

	short := testutil.ReferenceInputs()
	short.AmortizationYears = 5
	fixtures["short amortization"] = short

	for name, in := range fixtures {
		t.Run(name, func(t *testing.T) {
			if !scenario.IsCashFlowMonotonic(in, 0, constants.BreakEvenRateCeiling, 150) {
				t.Error("cash flow increased with interest rate")
			}
			if result := scenario.BreakEvenSearch(in); !result.Monotonic {
				t.Error("BreakEvenSearch reported a non-monotonic curve")
			}
		})
	}
}

func TestBreakEvenSearchSummary(t *testing.T) {
	in := testutil.ReferenceInputs()
	result := scenario.BreakEvenSearch(in)

	if !result.Converged {
		t.Fatal("expected the search to converge")
	}
	if result.Original != in.InterestRate {
		t.Errorf("Original = %v, expected %v", result.Original, in.InterestRate)
	}
	if result.Field != "interestRate" {
		t.Errorf("Field = %q", result.Field)
	}
	if result.Iterations != 10 {
		t.Errorf("Iterations = %d, expected 10", result.Iterations)
	}
}

func TestFindYearToPositiveCashFlow(t *testing.T) {
	tests := []struct {
		name       string
		inputs     analyzer.PropertyInputs
		growthRate float64
		expected   string
	}{
		{"Already positive", testutil.CashFlowingInputs(), 0.03, "Now"},
		{"Fast rent growth", testutil.ReferenceInputs(), 0.08, "Year 5"},
		{"Slow rent growth", testutil.ReferenceInputs(), 0.03, "10+ Years"},
		{"No rent growth", testutil.ReferenceInputs(), 0, "10+ Years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scenario.FindYearToPositiveCashFlow(tt.inputs, tt.growthRate); got != tt.expected {
				t.Errorf("FindYearToPositiveCashFlow() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestYearToPositiveCashFlow(t *testing.T) {
	years, found := scenario.YearToPositiveCashFlow(testutil.ReferenceInputs(), 0.08)
	if !found || years != 5 {
		t.Errorf("YearToPositiveCashFlow() = (%d, %v), expected (5, true)", years, found)
	}

	// at year 4 rent is still too low, at year 5 it is enough
	in := testutil.ReferenceInputs()
	if scenario.CashFlowAtRate(in.WithMonthlyRent(2500*math.Pow(1.08, 4)), in.InterestRate) >= 0 {
		t.Error("expected negative cash flow in year 4")
	}
}

func TestRateSweep(t *testing.T) {
	in := testutil.ReferenceInputs()
	points := scenario.RateSweep(in, constants.DefaultRateScenarios)

	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	expected := []float64{-568.85, -913.85, -1284.62}
	for i, p := range points {
		if p.Rate != constants.DefaultRateScenarios[i] {
			t.Errorf("point %d rate = %v", i, p.Rate)
		}
		testutil.AssertClose(t, "rate sweep cash flow", p.MonthlyCashFlow, expected[i], 0.01)
	}

	concurrent := scenario.NewEngine(zap.NewNop()).CompareRates(in, constants.DefaultRateScenarios)
	for i := range points {
		if concurrent[i] != points[i] {
			t.Errorf("CompareRates point %d = %+v, expected %+v", i, concurrent[i], points[i])
		}
	}
}

func TestVacancySweep(t *testing.T) {
	points := scenario.VacancySweep(testutil.CashFlowingInputs(), constants.DefaultVacancyScenarios)

	expected := []float64{732.17, 564.17, 452.17}
	if len(points) != len(expected) {
		t.Fatalf("expected %d points, got %d", len(expected), len(points))
	}
	for i, p := range points {
		testutil.AssertClose(t, "vacancy sweep cash flow", p.MonthlyCashFlow, expected[i], 0.01)
	}
	// each vacancy point costs 1% of rent
	testutil.AssertClose(t, "0% to 10% vacancy difference", points[0].MonthlyCashFlow-points[2].MonthlyCashFlow, 280, 1e-6)
}

func TestRentGrowth(t *testing.T) {
	p := scenario.RentGrowth(testutil.ReferenceInputs(), 0.03)

	testutil.AssertClose(t, "Year1Rent", p.Year1Rent, 2500, 0)
	testutil.AssertClose(t, "Year3Rent", p.Year3Rent, 2652.25, 1e-6)
	testutil.AssertClose(t, "Year5Rent", p.Year5Rent, 2813.772025, 1e-6)
	if p.YearPositive != "10+ Years" {
		t.Errorf("YearPositive = %q", p.YearPositive)
	}
}

func TestTimeline(t *testing.T) {
	in := testutil.ReferenceInputs()
	points := scenario.Timeline(in, constants.TimelineYears)

	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}

	testutil.AssertClose(t, "year 1 value", points[0].PropertyValue, 515000, 1e-6)
	testutil.AssertClose(t, "year 1 equity", points[0].Equity, 115000, 1e-6)
	testutil.AssertClose(t, "year 1 cash flow", points[0].CumulativeCashFlow, -10966.20, 0.01)
	testutil.AssertClose(t, "year 5 value", points[4].PropertyValue, 579637.04, 0.01)
	testutil.AssertClose(t, "year 5 equity", points[4].Equity, 179637.04, 0.01)
	testutil.AssertClose(t, "year 5 cash flow", points[4].CumulativeCashFlow, -47597.22, 0.01)

	for i := 1; i < len(points); i++ {
		delta := points[i].CumulativeCashFlow - points[i-1].CumulativeCashFlow
		testutil.AssertClose(t, "cumulative step", delta, points[i].AnnualCashFlow, 1e-6)
	}

	summary := scenario.SummarizeTimeline(points, analyzer.Analyze(in).TotalCashRequired)
	testutil.AssertClose(t, "total return", summary.TotalReturnPercent, 20.036, 0.001)

	cashFlowing := scenario.SummarizeTimeline(scenario.Timeline(testutil.CashFlowingInputs(), 5), 85000)
	testutil.AssertClose(t, "cash flowing total return", cashFlowing.TotalReturnPercent, 93.805, 0.001)

	if empty := scenario.SummarizeTimeline(nil, 1000); empty != (scenario.TimelineSummary{}) {
		t.Errorf("expected empty summary, got %+v", empty)
	}
}

func TestEngineBreakEven(t *testing.T) {
	result := scenario.NewEngine(nil).BreakEven(testutil.CashFlowingInputs())
	if !result.Converged || !result.Monotonic {
		t.Errorf("unexpected search result: %+v", result)
	}
}
