// Package server exposes the analysis engine over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/internal/brrrr"
	"github.com/iwvelando/property-analyzer/internal/comparison"
	"github.com/iwvelando/property-analyzer/internal/config"
	"github.com/iwvelando/property-analyzer/internal/marketdata"
	"github.com/iwvelando/property-analyzer/internal/neighborhoods"
	"github.com/iwvelando/property-analyzer/internal/pipeline"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
	"github.com/iwvelando/property-analyzer/internal/wealth"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RateSource serves market rates. *marketdata.Provider satisfies it.
type RateSource interface {
	Latest(ctx context.Context) (marketdata.Rates, error)
	History(ctx context.Context, months int) ([]marketdata.RatePoint, error)
}

// Dependencies are the collaborators behind the API. A nil Store keeps the
// portfolio in memory, a nil Rates disables /api/rates and a nil Limiter
// disables rate limiting.
type Dependencies struct {
	Store         portfolio.Store
	Rates         RateSource
	HistoryMonths int
	Limiter       *RateLimiter
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string

	engine        *analyzer.Analyzer
	pipeline      *pipeline.Pipeline
	brrrr         *brrrr.Analyzer
	store         portfolio.Store
	rates         RateSource
	historyMonths int
	limiter       *RateLimiter
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the analysis API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, deps Dependencies) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if deps.Store == nil {
		deps.Store = portfolio.NewMemoryStore()
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		engine:        analyzer.NewAnalyzer(logger),
		pipeline:      pipeline.New(logger),
		brrrr:         brrrr.NewAnalyzer(logger),
		store:         deps.Store,
		rates:         deps.Rates,
		historyMonths: deps.HistoryMonths,
		limiter:       deps.Limiter,
		now:           time.Now,
	}

	mux := http.NewServeMux()

	// Analysis endpoints
	mux.HandleFunc("/api/analyze", h.handleAnalyze)
	mux.HandleFunc("/api/brrrr", h.handleBRRRR)
	mux.HandleFunc("/api/compare", h.handleCompare)

	// Reference data
	mux.HandleFunc("/api/neighborhoods", h.handleNeighborhoods)
	mux.HandleFunc("/api/neighborhoods/{slug}", h.handleNeighborhood)
	mux.HandleFunc("/api/rates", h.handleRates)

	// Saved properties
	mux.HandleFunc("/api/portfolio", h.handlePortfolio)
	mux.HandleFunc("/api/portfolio/projection", h.handlePortfolioProjection)
	mux.HandleFunc("/api/portfolio/{id}", h.handlePortfolioItem)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return h.rateLimit(mux)
}

// propertyInput decodes property inputs and remembers which keys were sent,
// so an explicit 0 is not replaced by neighborhood seeding.
type propertyInput struct {
	analyzer.PropertyInputs
	provided neighborhoods.Provided
}

func (p *propertyInput) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.PropertyInputs); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	p.provided = make(neighborhoods.Provided, len(keys))
	for k := range keys {
		p.provided[strings.ToLower(k)] = true
	}
	return nil
}

type analyzeRequest struct {
	Name    string            `json:"name,omitempty"`
	Inputs  propertyInput     `json:"inputs"`
	Options *pipeline.Options `json:"options,omitempty"`
	Save    bool              `json:"save,omitempty"`
}

type analyzeResponse struct {
	Report   *pipeline.Report         `json:"report"`
	Warnings []string                 `json:"warnings,omitempty"`
	Saved    *portfolio.SavedProperty `json:"saved,omitempty"`
	Duration string                   `json:"duration"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	defaults := pipeline.DefaultOptions()
	req := analyzeRequest{Options: &defaults}
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	if req.Options == nil {
		req.Options = &defaults
	}

	in, ok := h.resolveInputs(w, req.Inputs, op)
	if !ok {
		return
	}

	opts := *req.Options
	if opts.Portfolio == nil {
		opts.Portfolio = h.portfolioSummary(r.Context())
	}

	report, err := h.pipeline.Run(in, opts)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	response := analyzeResponse{
		Report:   report,
		Warnings: warningsFor(req.Name, in, opts),
	}

	if req.Save {
		saved := portfolio.NewSnapshot(req.Name, in, report.Analysis, h.now())
		if err := h.store.Save(r.Context(), saved); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save property: %v", err), op)
			return
		}
		response.Saved = &saved
	}

	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("analysis computed",
		zap.String("op", op),
		zap.Float64("purchasePrice", in.PurchasePrice),
		zap.Int("dealScore", report.Analysis.DealScore),
		zap.Bool("saved", response.Saved != nil),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

type brrrrResponse struct {
	Result            brrrr.Result `json:"result"`
	CashOnCashDisplay string       `json:"cashOnCashDisplay"`
}

func (h *handler) handleBRRRR(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBRRRR"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var in brrrr.Inputs
	if !h.decodeBody(w, r, &in, op) {
		return
	}

	result, err := h.brrrr.Run(in)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, brrrrResponse{
		Result:            result,
		CashOnCashDisplay: result.CashOnCashDisplay(),
	})
}

type compareSide struct {
	Name   string        `json:"name,omitempty"`
	Inputs propertyInput `json:"inputs"`
}

type compareRequest struct {
	A compareSide `json:"a"`
	B compareSide `json:"b"`
}

type compareResponse struct {
	Comparison comparison.Result       `json:"comparison"`
	A          analyzer.AnalysisResult `json:"a"`
	B          analyzer.AnalysisResult `json:"b"`
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req compareRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	inA, ok := h.resolveInputs(w, req.A.Inputs, op)
	if !ok {
		return
	}
	inB, ok := h.resolveInputs(w, req.B.Inputs, op)
	if !ok {
		return
	}

	a := h.engine.Analyze(inA)
	b := h.engine.Analyze(inB)
	result := comparison.Compare(
		comparison.FromAnalysis(req.A.Name, a),
		comparison.FromAnalysis(req.B.Name, b),
	)

	h.logger.Info("properties compared",
		zap.String("op", op),
		zap.String("winner", result.Winner),
		zap.Int("scoreA", result.ScoreA),
		zap.Int("scoreB", result.ScoreB),
	)

	h.writeJSON(w, http.StatusOK, compareResponse{Comparison: result, A: a, B: b})
}

type neighborhoodsResponse struct {
	Neighborhoods []neighborhoods.Profile      `json:"neighborhoods"`
	Defaults      neighborhoods.MarketDefaults `json:"defaults"`
}

func (h *handler) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	profiles := neighborhoods.All()
	if q := strings.TrimSpace(r.URL.Query().Get("quadrant")); q != "" {
		profiles = neighborhoods.ByQuadrant(q)
	}
	if profiles == nil {
		profiles = []neighborhoods.Profile{}
	}

	h.writeJSON(w, http.StatusOK, neighborhoodsResponse{
		Neighborhoods: profiles,
		Defaults:      neighborhoods.Defaults(),
	})
}

func (h *handler) handleNeighborhood(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	slug := r.PathValue("slug")
	profile, ok := neighborhoods.Lookup(slug)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("unknown neighborhood %q", slug), "server.handleNeighborhood")
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

type ratesResponse struct {
	Latest  marketdata.Rates       `json:"latest"`
	History []marketdata.RatePoint `json:"history,omitempty"`
}

func (h *handler) handleRates(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRates"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if h.rates == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "market data is disabled", op)
		return
	}

	months := h.historyMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid months %q", raw), op)
			return
		}
		months = parsed
	}

	latest, err := h.rates.Latest(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, err.Error(), op)
		return
	}
	response := ratesResponse{Latest: latest}

	if months > 0 {
		history, err := h.rates.History(r.Context(), months)
		if err != nil {
			h.logger.Warn("rate history unavailable",
				zap.String("op", op),
				zap.Int("months", months),
				zap.Error(err),
			)
		}
		response.History = history
	}

	h.writeJSON(w, http.StatusOK, response)
}

type portfolioResponse struct {
	Properties []portfolio.SavedProperty `json:"properties"`
	Summary    portfolio.Summary         `json:"summary"`
}

type saveRequest struct {
	Name   string        `json:"name,omitempty"`
	Inputs propertyInput `json:"inputs"`
}

func (h *handler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePortfolio"

	switch r.Method {
	case http.MethodGet:
		properties, err := h.store.List(r.Context())
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
			return
		}
		if properties == nil {
			properties = []portfolio.SavedProperty{}
		}
		h.writeJSON(w, http.StatusOK, portfolioResponse{
			Properties: properties,
			Summary:    portfolio.Summarize(properties),
		})

	case http.MethodPost:
		var req saveRequest
		if !h.decodeBody(w, r, &req, op) {
			return
		}
		in, ok := h.resolveInputs(w, req.Inputs, op)
		if !ok {
			return
		}

		saved := portfolio.NewSnapshot(req.Name, in, h.engine.Analyze(in), h.now())
		if err := h.store.Save(r.Context(), saved); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save property: %v", err), op)
			return
		}

		h.logger.Info("property saved",
			zap.String("op", op),
			zap.String("id", saved.ID),
			zap.String("name", saved.Name),
		)
		h.writeJSON(w, http.StatusCreated, saved)

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handlePortfolioItem(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePortfolioItem"
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		saved, err := h.store.Get(r.Context(), id)
		if err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		h.writeJSON(w, http.StatusOK, saved)

	case http.MethodDelete:
		if err := h.store.Delete(r.Context(), id); err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		h.logger.Info("property deleted", zap.String("op", op), zap.String("id", id))
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

type projectionResponse struct {
	Summary     portfolio.Summary   `json:"summary"`
	Projections []wealth.Projection `json:"projections"`
}

func (h *handler) handlePortfolioProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePortfolioProjection"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	appreciation, err := queryFloat(r, "appreciation", constants.DefaultAppreciationRate)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	rentGrowth, err := queryFloat(r, "rentGrowth", constants.DefaultRentGrowthRate)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	properties, err := h.store.List(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	summary := portfolio.Summarize(properties)

	h.writeJSON(w, http.StatusOK, projectionResponse{
		Summary:     summary,
		Projections: wealth.ProjectHorizons(wealth.FromPortfolio(summary), appreciation, rentGrowth),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodeBody reads a size-limited JSON body into v and reports whether the
// handler may continue.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) resolveInputs(w http.ResponseWriter, in propertyInput, op string) (analyzer.PropertyInputs, bool) {
	resolved, err := config.ResolveInputs(in.PropertyInputs, in.provided)
	if err == nil {
		err = analyzer.Validate(resolved)
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return resolved, false
	}
	return resolved, true
}

// portfolioSummary returns the stored portfolio, or nil when it is empty or
// cannot be read.
func (h *handler) portfolioSummary(ctx context.Context) *portfolio.Summary {
	properties, err := h.store.List(ctx)
	if err != nil {
		h.logger.Warn("failed to list portfolio",
			zap.String("op", "server.portfolioSummary"),
			zap.Error(err),
		)
		return nil
	}
	if len(properties) == 0 {
		return nil
	}
	summary := portfolio.Summarize(properties)
	return &summary
}

func warningsFor(name string, in analyzer.PropertyInputs, opts pipeline.Options) []string {
	cv := validation.ConfigValidator{
		Property: validation.PropertyConfig{
			Name:               name,
			PurchasePrice:      in.PurchasePrice,
			MonthlyRent:        in.MonthlyRent,
			DownPaymentPercent: in.DownPaymentPercent,
			AmortizationYears:  in.AmortizationYears,
		},
		RateScenarios:    opts.RateScenarios,
		VacancyScenarios: opts.VacancyScenarios,
	}
	return cv.ValidateAll()
}

func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	if eris.Is(err, portfolio.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, "saved property not found", op)
		return
	}
	h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
