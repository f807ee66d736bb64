// Package pipeline runs the full property report as a fixed sequence of named
// stages: analyze, amortize, scenarios, project, tax and brrrr.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/internal/brrrr"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
	"github.com/iwvelando/property-analyzer/internal/scenario"
	"github.com/iwvelando/property-analyzer/internal/tax"
	"github.com/iwvelando/property-analyzer/internal/wealth"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/iwvelando/property-analyzer/pkg/scoring"
	"go.uber.org/zap"
)

// Stage names.
const (
	StageAnalyze   = "analyze"
	StageAmortize  = "amortize"
	StageScenarios = "scenarios"
	StageProject   = "project"
	StageTax       = "tax"
	StageBRRRR     = "brrrr"
)

// Options control the optional and tunable parts of a report.
type Options struct {
	AppreciationRate float64            `json:"appreciationRate"`
	RentGrowthRate   float64            `json:"rentGrowthRate"`
	RateScenarios    []float64          `json:"rateScenarios,omitempty"`
	VacancyScenarios []float64          `json:"vacancyScenarios,omitempty"`
	WealthHorizons   []int              `json:"wealthHorizons,omitempty"`
	TimelineYears    int                `json:"timelineYears,omitempty"`
	Portfolio        *portfolio.Summary `json:"portfolio,omitempty"`
	Tax              *tax.Options       `json:"tax,omitempty"`
	BRRRR            *brrrr.Inputs      `json:"brrrr,omitempty"`
}

// DefaultOptions uses the standard growth assumptions and scenario sets.
func DefaultOptions() Options {
	return Options{
		AppreciationRate: constants.DefaultAppreciationRate,
		RentGrowthRate:   constants.DefaultRentGrowthRate,
	}.withDefaults()
}

// withDefaults fills nil scenario sets and a zero timeline length. Growth
// rates are left alone since zero growth is a valid assumption.
func (o Options) withDefaults() Options {
	if o.RateScenarios == nil {
		o.RateScenarios = append([]float64(nil), constants.DefaultRateScenarios...)
	}
	if o.VacancyScenarios == nil {
		o.VacancyScenarios = append([]float64(nil), constants.DefaultVacancyScenarios...)
	}
	if o.WealthHorizons == nil {
		o.WealthHorizons = append([]int(nil), constants.DefaultWealthHorizons...)
	}
	if o.TimelineYears <= 0 {
		o.TimelineYears = constants.TimelineYears
	}
	return o
}

// Report is everything produced for one property.
type Report struct {
	Inputs   analyzer.PropertyInputs `json:"inputs"`
	Analysis analyzer.AnalysisResult `json:"analysis"`
	Score    scoring.Score           `json:"score"`

	Amortization []loans.AmortizationRow `json:"amortization,omitempty"`
	LoanSummary  loans.ScheduleSummary   `json:"loanSummary"`

	RateScenarios    []scenario.RatePoint          `json:"rateScenarios,omitempty"`
	VacancyScenarios []scenario.VacancyPoint       `json:"vacancyScenarios,omitempty"`
	RentGrowth       scenario.RentGrowthProjection `json:"rentGrowth"`
	BreakEven        scenario.BreakEvenResult      `json:"breakEven"`
	Timeline         []scenario.TimelinePoint      `json:"timeline,omitempty"`
	TimelineSummary  scenario.TimelineSummary      `json:"timelineSummary"`

	Wealth          []wealth.Projection `json:"wealth,omitempty"`
	PortfolioWealth []wealth.Projection `json:"portfolioWealth,omitempty"`

	Tax   *tax.Result   `json:"tax,omitempty"`
	BRRRR *brrrr.Result `json:"brrrr,omitempty"`

	// Stages lists the stages that ran, in order.
	Stages []string `json:"stages"`

	analyzed bool
}

// Stage is one named step of the report.
type Stage struct {
	Name string
	Run  func(p *Pipeline, r *Report, opts Options) error
}

// Stages returns the full report in its fixed order.
func Stages() []Stage {
	return []Stage{
		{Name: StageAnalyze, Run: analyzeStage},
		{Name: StageAmortize, Run: amortizeStage},
		{Name: StageScenarios, Run: scenariosStage},
		{Name: StageProject, Run: projectStage},
		{Name: StageTax, Run: taxStage},
		{Name: StageBRRRR, Run: brrrrStage},
	}
}

// Pipeline owns the components the stages use. It keeps no per-report state
// and is safe for concurrent use.
type Pipeline struct {
	logger    *zap.Logger
	analyzer  *analyzer.Analyzer
	schedules *loans.ScheduleGenerator
	scenarios *scenario.Engine
	brrrr     *brrrr.Analyzer
}

// New creates a pipeline. A nil logger disables logging.
func New(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger:    logger,
		analyzer:  analyzer.NewAnalyzer(logger),
		schedules: loans.NewScheduleGenerator(logger),
		scenarios: scenario.NewEngine(logger),
		brrrr:     brrrr.NewAnalyzer(logger),
	}
}

// Run produces the full report for in without logging.
func Run(in analyzer.PropertyInputs, opts Options) (*Report, error) {
	return New(nil).Run(in, opts)
}

// Run produces the full report for in.
func (p *Pipeline) Run(in analyzer.PropertyInputs, opts Options) (*Report, error) {
	return p.RunStages(in, opts, Stages()...)
}

// RunStages runs stages in the order given. Every stage after analyze needs
// the analysis, so analyze must come first.
func (p *Pipeline) RunStages(in analyzer.PropertyInputs, opts Options, stages ...Stage) (*Report, error) {
	opts = opts.withDefaults()
	r := &Report{Inputs: in}

	for _, stage := range stages {
		if stage.Name != StageAnalyze && !r.analyzed {
			return nil, fmt.Errorf("stage %q requires the %q stage to run first", stage.Name, StageAnalyze)
		}

		start := time.Now()
		if err := stage.Run(p, r, opts); err != nil {
			p.logger.Error("pipeline stage failed",
				zap.String("op", "pipeline.RunStages"),
				zap.String("stage", stage.Name),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%s stage failed: %w", stage.Name, err)
		}
		r.Stages = append(r.Stages, stage.Name)

		p.logger.Debug("pipeline stage complete",
			zap.String("op", "pipeline.RunStages"),
			zap.String("stage", stage.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return r, nil
}

func analyzeStage(p *Pipeline, r *Report, _ Options) error {
	if err := analyzer.Validate(r.Inputs); err != nil {
		return err
	}
	r.Analysis = p.analyzer.Analyze(r.Inputs)
	r.Score = r.Analysis.Score()
	r.analyzed = true
	return nil
}

func amortizeStage(p *Pipeline, r *Report, _ Options) error {
	rows, err := p.schedules.Generate(loans.LoanConfig{
		Principal:      r.Analysis.LoanAmount,
		AnnualRate:     r.Inputs.InterestRate / constants.PercentageMultiplier,
		Years:          r.Inputs.AmortizationYears,
		MonthlyPayment: r.Analysis.MortgagePayment,
	})
	if err != nil {
		return err
	}
	r.Amortization = rows
	r.LoanSummary = loans.Summarize(rows)
	return nil
}

func scenariosStage(p *Pipeline, r *Report, opts Options) error {
	r.RateScenarios = p.scenarios.CompareRates(r.Inputs, opts.RateScenarios)
	r.VacancyScenarios = scenario.VacancySweep(r.Inputs, opts.VacancyScenarios)
	r.RentGrowth = scenario.RentGrowth(r.Inputs, opts.RentGrowthRate)
	r.BreakEven = p.scenarios.BreakEven(r.Inputs)
	r.Timeline = scenario.Timeline(r.Inputs, opts.TimelineYears)
	r.TimelineSummary = scenario.SummarizeTimeline(r.Timeline, r.Analysis.TotalCashRequired)
	return nil
}

func projectStage(_ *Pipeline, r *Report, opts Options) error {
	position := wealth.FromAnalysis(r.Inputs, r.Analysis)
	r.Wealth = wealth.ProjectYears(position, opts.AppreciationRate, opts.RentGrowthRate, opts.WealthHorizons)

	if opts.Portfolio != nil && opts.Portfolio.Count > 0 {
		combined := wealth.FromPortfolio(*opts.Portfolio)
		r.PortfolioWealth = wealth.ProjectYears(combined, opts.AppreciationRate, opts.RentGrowthRate, opts.WealthHorizons)
	}
	return nil
}

func taxStage(_ *Pipeline, r *Report, opts Options) error {
	if opts.Tax == nil {
		return nil
	}
	result := tax.ForAnalysis(r.Inputs, r.Analysis, opts.Tax.Normalize())
	r.Tax = &result
	return nil
}

func brrrrStage(p *Pipeline, r *Report, opts Options) error {
	if opts.BRRRR == nil {
		return nil
	}
	result, err := p.brrrr.Run(*opts.BRRRR)
	if err != nil {
		return err
	}
	r.BRRRR = &result
	return nil
}

// Session remembers the most recent successful report for one caller.
type Session struct {
	pipeline *Pipeline

	mu   sync.RWMutex
	last *Report
}

// NewSession creates a session backed by p. A nil p uses a pipeline without logging.
func NewSession(p *Pipeline) *Session {
	if p == nil {
		p = New(nil)
	}
	return &Session{pipeline: p}
}

// Run produces a report and remembers it. A failed run leaves the previous
// report in place.
func (s *Session) Run(in analyzer.PropertyInputs, opts Options) (*Report, error) {
	r, err := s.pipeline.Run(in, opts)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
	return r, nil
}

// Last returns the most recent successful report.
func (s *Session) Last() (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}
