// Package portfolio stores condensed snapshots of analyzed properties and
// aggregates them.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/property-analyzer/internal/analyzer"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no property has the requested ID.
var ErrNotFound = eris.New("saved property not found")

// SavedProperty is a condensed analysis kept for later comparison.
type SavedProperty struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Neighborhood    string    `json:"neighborhood,omitempty"`
	PurchasePrice   float64   `json:"purchasePrice"`
	MonthlyRent     float64   `json:"monthlyRent"`
	DownPayment     float64   `json:"downPayment"`
	MonthlyCashFlow float64   `json:"monthlyCashFlow"`
	CapRate         float64   `json:"capRate"`
	CashOnCash      float64   `json:"cashOnCash"`
	DealScore       int       `json:"dealScore"`
	SavedAt         time.Time `json:"savedAt"`
}

// Store persists saved properties.
type Store interface {
	Save(ctx context.Context, p SavedProperty) error
	List(ctx context.Context) ([]SavedProperty, error)
	Get(ctx context.Context, id string) (SavedProperty, error)
	Delete(ctx context.Context, id string) error
}

// NewSnapshot condenses an analysis into a SavedProperty with a new ID. An
// empty name is replaced by a generic one.
func NewSnapshot(name string, in analyzer.PropertyInputs, r analyzer.AnalysisResult, now time.Time) SavedProperty {
	if name == "" {
		name = fmt.Sprintf("Property %s", now.UTC().Format("2006-01-02 15:04"))
	}
	return SavedProperty{
		ID:              uuid.NewString(),
		Name:            name,
		Neighborhood:    in.Neighborhood,
		PurchasePrice:   in.PurchasePrice,
		MonthlyRent:     in.MonthlyRent,
		DownPayment:     r.DownPaymentAmount,
		MonthlyCashFlow: r.MonthlyCashFlow,
		CapRate:         r.CapRate,
		CashOnCash:      r.CashOnCash,
		DealScore:       r.DealScore,
		SavedAt:         now.UTC(),
	}
}

// Summary aggregates a portfolio. Equity is the sum of down payments.
type Summary struct {
	Count                int     `json:"count"`
	TotalValue           float64 `json:"totalValue"`
	TotalEquity          float64 `json:"totalEquity"`
	TotalMonthlyCashFlow float64 `json:"totalMonthlyCashFlow"`
	AverageCapRate       float64 `json:"averageCapRate"`
	AnnualIncome         float64 `json:"annualIncome"`
}

// Summarize totals properties. The average cap rate of an empty portfolio is 0.
func Summarize(properties []SavedProperty) Summary {
	var s Summary
	var capRates float64
	for _, p := range properties {
		s.Count++
		s.TotalValue += p.PurchasePrice
		s.TotalEquity += p.DownPayment
		s.TotalMonthlyCashFlow += p.MonthlyCashFlow
		capRates += p.CapRate
	}
	if s.Count > 0 {
		s.AverageCapRate = capRates / float64(s.Count)
	}
	s.AnnualIncome = s.TotalMonthlyCashFlow * constants.MonthsPerYear
	return s
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return eris.Wrapf(ErrNotFound, "invalid id %q", id)
	}
	return nil
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver along with a function releasing it.
func Open(driver, path string) (Store, func() error, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), func() error { return nil }, nil
	case DriverSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, eris.Errorf("unknown portfolio driver %q", driver)
	}
}
