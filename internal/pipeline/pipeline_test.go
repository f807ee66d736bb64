package pipeline_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/internal/brrrr"
	"github.com/iwvelando/property-analyzer/internal/pipeline"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
	"github.com/iwvelando/property-analyzer/internal/tax"
	"github.com/iwvelando/property-analyzer/pkg/testutil"
	"go.uber.org/zap"
)

func TestRunReferenceProperty(t *testing.T) {
	report, err := pipeline.New(zap.NewNop()).Run(testutil.ReferenceInputs(), pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedStages := []string{"analyze", "amortize", "scenarios", "project", "tax", "brrrr"}
	if !reflect.DeepEqual(report.Stages, expectedStages) {
		t.Errorf("Stages = %v, expected %v", report.Stages, expectedStages)
	}

	testutil.AssertClose(t, "mortgage payment", report.Analysis.MortgagePayment, 2456.35, 0.01)
	if report.Score.Total != 20 || report.Score.Label != "Poor Deal" {
		t.Errorf("Score = %+v, expected 20 Poor Deal", report.Score)
	}

	if len(report.Amortization) != 25 {
		t.Errorf("expected 25 amortization rows, got %d", len(report.Amortization))
	}
	testutil.AssertClose(t, "principal retired", report.LoanSummary.TotalPrincipal, 400000, 0.01)
	testutil.AssertClose(t, "final balance", report.LoanSummary.FinalBalance, 0, 0.01)
	testutil.AssertClose(t, "balance after 5 years", report.Amortization[4].EndBalance, report.Analysis.LoanBalanceAfter5Years, 0.01)

	if len(report.RateScenarios) != 3 || len(report.VacancyScenarios) != 3 {
		t.Errorf("expected 3 rate and 3 vacancy scenarios, got %d and %d", len(report.RateScenarios), len(report.VacancyScenarios))
	}
	testutil.AssertClose(t, "break-even rate", report.BreakEven.Value, 1.1865, 0.001)
	if report.RentGrowth.YearPositive != "10+ Years" {
		t.Errorf("YearPositive = %q", report.RentGrowth.YearPositive)
	}
	if len(report.Timeline) != 5 {
		t.Errorf("expected 5 timeline points, got %d", len(report.Timeline))
	}
	testutil.AssertClose(t, "total return", report.TimelineSummary.TotalReturnPercent, 20.036, 0.001)

	if len(report.Wealth) != 3 || report.Wealth[0].Years != 10 || report.Wealth[2].Years != 30 {
		t.Fatalf("unexpected wealth horizons: %+v", report.Wealth)
	}
	testutil.AssertClose(t, "10 year equity", report.Wealth[0].Equity, 367958.19, 0.01)

	if report.PortfolioWealth != nil || report.Tax != nil || report.BRRRR != nil {
		t.Error("optional sections should be empty when not requested")
	}
}

func TestRunOptionalSections(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.Tax = &tax.Options{ClaimCCA: true}
	opts.Portfolio = &portfolio.Summary{Count: 2, TotalValue: 800000, TotalEquity: 175000, TotalMonthlyCashFlow: -349.68}
	opts.BRRRR = &brrrr.Inputs{PurchasePrice: 300000, RehabCost: 50000, HoldingCostsMonthly: 1000, ARV: 420000, MonthlyRent: 2600}

	report, err := pipeline.Run(testutil.ReferenceInputs(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Tax == nil {
		t.Fatal("expected tax section")
	}
	testutil.AssertClose(t, "CCA benefit", report.Tax.CCABenefit, 4032, 1e-6)
	if !report.Tax.IsRefund {
		t.Error("expected a refund for the rental loss")
	}

	if len(report.PortfolioWealth) != 3 {
		t.Fatalf("expected portfolio projections, got %d", len(report.PortfolioWealth))
	}
	testutil.AssertClose(t, "portfolio 10 year remaining loan", report.PortfolioWealth[0].RemainingLoan, 475000, 1e-6)

	if report.BRRRR == nil {
		t.Fatal("expected BRRRR section")
	}
	testutil.AssertClose(t, "BRRRR refinance", report.BRRRR.RefinanceAmount, 315000, 1e-6)
}

func TestRunCustomScenarios(t *testing.T) {
	opts := pipeline.Options{
		RateScenarios:    []float64{3, 8},
		VacancyScenarios: []float64{2},
		WealthHorizons:   []int{5},
		TimelineYears:    3,
	}

	report, err := pipeline.Run(testutil.CashFlowingInputs(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.RateScenarios) != 2 || report.RateScenarios[1].Rate != 8 {
		t.Errorf("unexpected rate scenarios: %+v", report.RateScenarios)
	}
	if len(report.VacancyScenarios) != 1 || len(report.Wealth) != 1 || len(report.Timeline) != 3 {
		t.Errorf("custom scenario sets not honoured: %d vacancy, %d wealth, %d timeline",
			len(report.VacancyScenarios), len(report.Wealth), len(report.Timeline))
	}
	// zero growth keeps cash flow flat
	testutil.AssertClose(t, "flat cash flow", report.Wealth[0].MonthlyCashFlow, report.Analysis.MonthlyCashFlow, 1e-9)
}

func TestRunRejectsInvalidInputs(t *testing.T) {
	in := testutil.ReferenceInputs()
	in.PurchasePrice = 0

	if _, err := pipeline.Run(in, pipeline.DefaultOptions()); err == nil {
		t.Error("expected validation error")
	}

	opts := pipeline.DefaultOptions()
	opts.BRRRR = &brrrr.Inputs{RefiLTV: brrrr.Ptr(150.0)}
	if _, err := pipeline.Run(testutil.ReferenceInputs(), opts); err == nil {
		t.Error("expected BRRRR validation error")
	}
}

func TestRunStages(t *testing.T) {
	p := pipeline.New(nil)
	all := pipeline.Stages()

	report, err := p.RunStages(testutil.ReferenceInputs(), pipeline.DefaultOptions(), all[0], all[3])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(report.Stages, []string{"analyze", "project"}) {
		t.Errorf("Stages = %v", report.Stages)
	}
	if report.Amortization != nil || report.RateScenarios != nil {
		t.Error("skipped stages produced output")
	}
	if len(report.Wealth) != 3 {
		t.Errorf("expected wealth projections, got %d", len(report.Wealth))
	}

	if _, err := p.RunStages(testutil.ReferenceInputs(), pipeline.DefaultOptions(), all[1]); err == nil {
		t.Error("expected error running amortize without analyze")
	}

	failing := pipeline.Stage{Name: "fail", Run: func(*pipeline.Pipeline, *pipeline.Report, pipeline.Options) error {
		return errors.New("boom")
	}}
	if _, err := p.RunStages(testutil.ReferenceInputs(), pipeline.DefaultOptions(), all[0], failing); err == nil {
		t.Error("expected stage failure to propagate")
	}
}

func TestSession(t *testing.T) {
	s := pipeline.NewSession(nil)

	if _, ok := s.Last(); ok {
		t.Fatal("new session should have no report")
	}

	first, err := s.Run(testutil.ReferenceInputs(), pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last, ok := s.Last(); !ok || last != first {
		t.Error("Last() should return the report just produced")
	}

	bad := testutil.ReferenceInputs()
	bad.AmortizationYears = 0
	if _, err := s.Run(bad, pipeline.DefaultOptions()); err == nil {
		t.Fatal("expected validation error")
	}
	if last, _ := s.Last(); last != first {
		t.Error("failed run replaced the last report")
	}
}

func TestPipelineConcurrentUse(t *testing.T) {
	p := pipeline.New(nil)
	fixtures := []analyzer.PropertyInputs{testutil.ReferenceInputs(), testutil.CashFlowingInputs()}

	var wg sync.WaitGroup
	results := make([]*pipeline.Report, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := p.Run(fixtures[i%2], pipeline.DefaultOptions())
			if err != nil {
				t.Errorf("run %d failed: %v", i, err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	for i := 2; i < len(results); i++ {
		if results[i] == nil || results[i%2] == nil {
			continue
		}
		if results[i].Analysis != results[i%2].Analysis {
			t.Errorf("run %d differs from run %d", i, i%2)
		}
	}
}
