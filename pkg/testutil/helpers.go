// Package testutil provides common fixtures and helpers for tests.
package testutil

import (
	"math"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/analyzer"
)

// ReferenceInputs returns a leveraged single-family rental: $500,000 at 20%
// down, 5.5% over 25 years, renting for $2,500/month.
func ReferenceInputs() analyzer.PropertyInputs {
	return analyzer.PropertyInputs{
		PropertyType:              analyzer.PropertyTypeHouse,
		PurchasePrice:             500000,
		ClosingCosts:              10000,
		MonthlyRent:               2500,
		PropertyTaxAnnual:         3090,
		InsuranceAnnual:           1800,
		CondoFeesMonthly:          0,
		UtilitiesCostMonthly:      0,
		DownPaymentPercent:        20,
		InterestRate:              5.5,
		VacancyRate:               6,
		MaintenancePercent:        8,
		PropertyManagementPercent: 8,
		AmortizationYears:         25,
		UtilitiesIncluded:         false,
	}
}

// CashFlowingInputs returns a smaller property that cash flows at current rates.
func CashFlowingInputs() analyzer.PropertyInputs {
	in := ReferenceInputs()
	in.PurchasePrice = 300000
	in.MonthlyRent = 2800
	in.PropertyTaxAnnual = 1854
	in.DownPaymentPercent = 25
	in.InterestRate = 5.0
	return in
}

// AssertClose fails the test when got is not within tolerance of want.
func AssertClose(t testing.TB, name string, got, want, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s = %.6f, expected %.6f (tolerance %g)", name, got, want, tolerance)
	}
}
