package wealth

import (
	"math"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
)

func referencePosition() Position {
	return Position{Value: 500000, Equity: 100000, MonthlyCashFlow: -913.85, LoanAmount: 400000}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name                  string
		years                 int
		expectedFutureValue   float64
		expectedRemainingLoan float64
		expectedEquity        float64
		expectedCashFlow      float64
	}{
		{"10 years", 10, 671958.19, 304000, 367958.19, -1228.14},
		{"20 years", 20, 903055.62, 208000, 695055.62, -1650.51},
		{"30 years", 30, 1213631.24, 112000, 1101631.24, -2218.15},
		{"Loan fully retired", 50, 2191953.01, 0, 2191953.01, -4006.23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(referencePosition(), 0.03, 0.03, tt.years)

			checks := []struct {
				field     string
				got, want float64
			}{
				{"FutureValue", p.FutureValue, tt.expectedFutureValue},
				{"RemainingLoan", p.RemainingLoan, tt.expectedRemainingLoan},
				{"Equity", p.Equity, tt.expectedEquity},
				{"MonthlyCashFlow", p.MonthlyCashFlow, tt.expectedCashFlow},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.want) > 0.01 {
					t.Errorf("%s = %.2f, expected %.2f", c.field, c.got, c.want)
				}
			}
			if p.Years != tt.years {
				t.Errorf("Years = %d, expected %d", p.Years, tt.years)
			}
		})
	}
}

func TestProjectZeroGrowth(t *testing.T) {
	p := Project(referencePosition(), 0, 0, 10)
	if p.FutureValue != 500000 {
		t.Errorf("FutureValue = %v, expected unchanged value", p.FutureValue)
	}
	if p.MonthlyCashFlow != -913.85 {
		t.Errorf("MonthlyCashFlow = %v, expected unchanged cash flow", p.MonthlyCashFlow)
	}
}

func TestProjectHorizons(t *testing.T) {
	projections := ProjectHorizons(referencePosition(), 0.03, 0.03)
	if len(projections) != 3 {
		t.Fatalf("expected 3 projections, got %d", len(projections))
	}
	for i, years := range []int{10, 20, 30} {
		if projections[i].Years != years {
			t.Errorf("projection %d Years = %d, expected %d", i, projections[i].Years, years)
		}
	}
	for i := 1; i < len(projections); i++ {
		if projections[i].Equity <= projections[i-1].Equity {
			t.Errorf("equity should grow with horizon: %v then %v", projections[i-1].Equity, projections[i].Equity)
		}
	}
}

func TestFromAnalysis(t *testing.T) {
	in := analyzer.PropertyInputs{PurchasePrice: 500000}
	r := analyzer.AnalysisResult{DownPaymentAmount: 100000, LoanAmount: 400000, MonthlyCashFlow: -913.85}

	got := FromAnalysis(in, r)
	if got != referencePosition() {
		t.Errorf("FromAnalysis() = %+v, expected %+v", got, referencePosition())
	}
}

func TestFromPortfolio(t *testing.T) {
	p := FromPortfolio(portfolio.Summary{
		Count:                2,
		TotalValue:           800000,
		TotalEquity:          175000,
		TotalMonthlyCashFlow: -349.68,
	})

	want := Position{Value: 800000, Equity: 175000, MonthlyCashFlow: -349.68, LoanAmount: 625000}
	if p != want {
		t.Errorf("FromPortfolio() = %+v, expected %+v", p, want)
	}

	if empty := FromPortfolio(portfolio.Summary{}); empty != (Position{}) {
		t.Errorf("expected zero position, got %+v", empty)
	}
}
