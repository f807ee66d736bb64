package analyzer_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/pkg/scoring"
	"github.com/iwvelando/property-analyzer/pkg/testutil"
	"go.uber.org/zap"
)

func TestAnalyzeReferenceProperty(t *testing.T) {
	r := analyzer.Analyze(testutil.ReferenceInputs())

	if r.DownPaymentAmount != 100000 {
		t.Errorf("DownPaymentAmount = %v, expected 100000", r.DownPaymentAmount)
	}
	if r.LoanAmount != 400000 {
		t.Errorf("LoanAmount = %v, expected 400000", r.LoanAmount)
	}
	if r.EffectiveGrossIncome != 2350 {
		t.Errorf("EffectiveGrossIncome = %v, expected 2350", r.EffectiveGrossIncome)
	}

	testutil.AssertClose(t, "MortgagePayment", r.MortgagePayment, 2456.35, 0.1)
	testutil.AssertClose(t, "MonthlyOperatingExpenses", r.MonthlyOperatingExpenses, 807.5, 1e-9)
	testutil.AssertClose(t, "NOI", r.NOI, 1542.5, 1e-9)
	testutil.AssertClose(t, "AnnualNOI", r.AnnualNOI, 18510, 1e-9)
	testutil.AssertClose(t, "TotalMonthlyExpenses", r.TotalMonthlyExpenses, 3263.85, 0.01)
	testutil.AssertClose(t, "MonthlyCashFlow", r.MonthlyCashFlow, -913.85, 0.01)
	testutil.AssertClose(t, "AnnualCashFlow", r.AnnualCashFlow, r.MonthlyCashFlow*12, 1e-9)
	testutil.AssertClose(t, "TotalCashRequired", r.TotalCashRequired, 110000, 1e-9)
	testutil.AssertClose(t, "CapRate", r.CapRate, 0.03702, 1e-9)
	testutil.AssertClose(t, "CashOnCash", r.CashOnCash, -0.099693, 1e-6)
	testutil.AssertClose(t, "DSCR", r.DSCR, 0.627964, 1e-6)
	testutil.AssertClose(t, "LoanBalanceAfter5Years", r.LoanBalanceAfter5Years, 357086.10, 0.01)
	testutil.AssertClose(t, "IRR", r.IRR, 0.047516, 1e-6)
	testutil.AssertClose(t, "VacancyLoss", r.VacancyLoss, 150, 1e-9)

	if r.BreakEvenVacancy != 0 {
		t.Errorf("BreakEvenVacancy = %v, expected floor of 0 for a negative value", r.BreakEvenVacancy)
	}
	if r.DealScore < 0 || r.DealScore > 100 {
		t.Fatalf("DealScore = %d out of range", r.DealScore)
	}
	if r.DealScore != 20 || r.DealScoreLabel != scoring.LabelPoor {
		t.Errorf("deal score = %d %q, expected 20 %q", r.DealScore, r.DealScoreLabel, scoring.LabelPoor)
	}
	if r.CashFlowScore != 0 || r.CapRateScore != 46 || r.MarketFitScore != 21 {
		t.Errorf("sub-scores = %d/%d/%d, expected 0/46/21", r.CashFlowScore, r.CapRateScore, r.MarketFitScore)
	}
}

func TestAnalyzeCashFlowingProperty(t *testing.T) {
	r := analyzer.Analyze(testutil.CashFlowingInputs())

	testutil.AssertClose(t, "MortgagePayment", r.MortgagePayment, 1315.33, 0.01)
	testutil.AssertClose(t, "MonthlyCashFlow", r.MonthlyCashFlow, 564.17, 0.01)
	testutil.AssertClose(t, "CapRate", r.CapRate, 0.07518, 1e-9)
	testutil.AssertClose(t, "DSCR", r.DSCR, 1.428922, 1e-6)
	testutil.AssertClose(t, "BreakEvenVacancy", r.BreakEvenVacancy, 0.261490, 1e-6)
	testutil.AssertClose(t, "IRR", r.IRR, 0.141775, 1e-6)

	if r.DealScore != 98 || r.DealScoreLabel != scoring.LabelExcellent {
		t.Errorf("deal score = %d %q, expected 98 %q", r.DealScore, r.DealScoreLabel, scoring.LabelExcellent)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	inputs := testutil.ReferenceInputs()
	first := analyzer.Analyze(inputs)
	second := analyzer.Analyze(inputs)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different results:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(inputs, testutil.ReferenceInputs()) {
		t.Error("Analyze mutated its inputs")
	}
}

func TestAnalyzeCondoFees(t *testing.T) {
	house := testutil.ReferenceInputs()
	house.CondoFeesMonthly = 300

	condo := house
	condo.PropertyType = analyzer.PropertyTypeCondo

	houseResult := analyzer.Analyze(house)
	condoResult := analyzer.Analyze(condo)

	if diff := condoResult.TotalMonthlyExpenses - houseResult.TotalMonthlyExpenses; diff != 300 {
		t.Errorf("condo expenses differ by %v, expected exactly 300", diff)
	}
	if houseResult.MonthlyCondoFees != 0 {
		t.Errorf("house should ignore condo fees, got %v", houseResult.MonthlyCondoFees)
	}
	if condoResult.MortgagePayment != houseResult.MortgagePayment {
		t.Error("mortgage payment should not depend on property type")
	}
	if condoResult.EffectiveGrossIncome != houseResult.EffectiveGrossIncome {
		t.Error("income should not depend on property type")
	}
}

func TestAnalyzeUtilities(t *testing.T) {
	tests := []struct {
		name     string
		included bool
		expected float64
	}{
		{"Utilities paid by tenant", false, 0},
		{"Utilities included in rent", true, 350},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.ReferenceInputs()
			in.UtilitiesCostMonthly = 350
			in.UtilitiesIncluded = tt.included

			r := analyzer.Analyze(in)
			if r.MonthlyUtilities != tt.expected {
				t.Errorf("MonthlyUtilities = %v, expected %v", r.MonthlyUtilities, tt.expected)
			}
		})
	}
}

func TestAnalyzeDegenerateInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*analyzer.PropertyInputs)
		check  func(*testing.T, analyzer.AnalysisResult)
	}{
		{
			name:   "Zero price",
			mutate: func(in *analyzer.PropertyInputs) { in.PurchasePrice = 0; in.ClosingCosts = 0 },
			check: func(t *testing.T, r analyzer.AnalysisResult) {
				if r.CapRate != 0 || r.CashOnCash != 0 || r.DSCR != 0 {
					t.Errorf("expected zero ratios, got cap=%v coc=%v dscr=%v", r.CapRate, r.CashOnCash, r.DSCR)
				}
			},
		},
		{
			name:   "Zero rent",
			mutate: func(in *analyzer.PropertyInputs) { in.MonthlyRent = 0 },
			check: func(t *testing.T, r analyzer.AnalysisResult) {
				if r.BreakEvenVacancy != 0 {
					t.Errorf("BreakEvenVacancy = %v, expected 0", r.BreakEvenVacancy)
				}
				if r.MonthlyCashFlow >= 0 {
					t.Errorf("expected negative cash flow with no rent, got %v", r.MonthlyCashFlow)
				}
			},
		},
		{
			name:   "All cash purchase",
			mutate: func(in *analyzer.PropertyInputs) { in.DownPaymentPercent = 100 },
			check: func(t *testing.T, r analyzer.AnalysisResult) {
				if r.MortgagePayment != 0 || r.LoanAmount != 0 {
					t.Errorf("expected no loan, got payment=%v loan=%v", r.MortgagePayment, r.LoanAmount)
				}
				if r.DSCR != 0 {
					t.Errorf("DSCR = %v, expected 0 without debt service", r.DSCR)
				}
				if r.LoanBalanceAfter5Years != 0 {
					t.Errorf("LoanBalanceAfter5Years = %v, expected 0", r.LoanBalanceAfter5Years)
				}
			},
		},
		{
			name:   "Zero interest",
			mutate: func(in *analyzer.PropertyInputs) { in.InterestRate = 0 },
			check: func(t *testing.T, r analyzer.AnalysisResult) {
				if r.MortgagePayment != 400000.0/300 {
					t.Errorf("MortgagePayment = %v, expected %v", r.MortgagePayment, 400000.0/300)
				}
				testutil.AssertClose(t, "LoanBalanceAfter5Years", r.LoanBalanceAfter5Years, 320000, 1e-6)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.ReferenceInputs()
			tt.mutate(&in)
			r := analyzer.Analyze(in)
			if r.DealScore < 0 || r.DealScore > 100 {
				t.Errorf("DealScore = %d out of range", r.DealScore)
			}
			tt.check(t, r)
		})
	}
}

func TestAnalyzerWithLogger(t *testing.T) {
	a := analyzer.NewAnalyzer(zap.NewNop())
	if got, want := a.Analyze(testutil.ReferenceInputs()), analyzer.Analyze(testutil.ReferenceInputs()); !reflect.DeepEqual(got, want) {
		t.Error("logging analyzer should produce the same result as the package-level Analyze")
	}
	if analyzer.NewAnalyzer(nil) == nil {
		t.Fatal("NewAnalyzer(nil) returned nil")
	}
}

func TestResultScore(t *testing.T) {
	r := analyzer.Analyze(testutil.CashFlowingInputs())
	s := r.Score()
	if s.Total != r.DealScore || s.Label != r.DealScoreLabel || s.CapRateScore != r.CapRateScore {
		t.Errorf("Score() = %+v does not mirror result fields", s)
	}
}

func TestWithOverrides(t *testing.T) {
	base := testutil.ReferenceInputs()

	if got := base.WithInterestRate(7).InterestRate; got != 7 {
		t.Errorf("WithInterestRate = %v", got)
	}
	if got := base.WithVacancyRate(10).VacancyRate; got != 10 {
		t.Errorf("WithVacancyRate = %v", got)
	}
	if got := base.WithMonthlyRent(3000).MonthlyRent; got != 3000 {
		t.Errorf("WithMonthlyRent = %v", got)
	}
	if base.InterestRate != 5.5 || base.VacancyRate != 6 || base.MonthlyRent != 2500 {
		t.Error("overrides must not modify the receiver")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*analyzer.PropertyInputs)
		expectErr   bool
		errContains string
	}{
		{
			name:   "Reference inputs are valid",
			mutate: func(in *analyzer.PropertyInputs) {},
		},
		{
			name:   "Empty property type is allowed",
			mutate: func(in *analyzer.PropertyInputs) { in.PropertyType = "" },
		},
		{
			name:        "Zero price",
			mutate:      func(in *analyzer.PropertyInputs) { in.PurchasePrice = 0 },
			expectErr:   true,
			errContains: "PurchasePrice",
		},
		{
			name:        "Negative rent",
			mutate:      func(in *analyzer.PropertyInputs) { in.MonthlyRent = -1 },
			expectErr:   true,
			errContains: "MonthlyRent must not be negative",
		},
		{
			name:        "Down payment over 100",
			mutate:      func(in *analyzer.PropertyInputs) { in.DownPaymentPercent = 120 },
			expectErr:   true,
			errContains: "DownPaymentPercent",
		},
		{
			name:        "Zero amortization",
			mutate:      func(in *analyzer.PropertyInputs) { in.AmortizationYears = 0 },
			expectErr:   true,
			errContains: "AmortizationYears",
		},
		{
			name:        "Unknown property type",
			mutate:      func(in *analyzer.PropertyInputs) { in.PropertyType = "castle" },
			expectErr:   true,
			errContains: "PropertyType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.ReferenceInputs()
			tt.mutate(&in)
			err := analyzer.Validate(in)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not mention %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
