// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/property-analyzer/pkg/constants"
)

// Thresholds that produce warnings rather than errors.
const (
	// MinimumDownPaymentPercent is the smallest down payment lenders accept.
	MinimumDownPaymentPercent = 5.0

	// MaximumInsuredAmortizationYears is the longest insured amortization.
	MaximumInsuredAmortizationYears = 30

	// MinimumRentToPriceRatio is the monthly rent to price ratio below which a
	// rental rarely cash flows.
	MinimumRentToPriceRatio = 0.004
)

// ValidateDownPayment warns when the down payment is below the lending minimum.
func ValidateDownPayment(label string, percent float64) string {
	if percent < MinimumDownPaymentPercent {
		return fmt.Sprintf("%s down payment of %.1f%% is below the %.0f%% minimum", label, percent, MinimumDownPaymentPercent)
	}
	return ""
}

// ValidateAmortization warns when the amortization exceeds the insured maximum.
func ValidateAmortization(label string, years int) string {
	if years > MaximumInsuredAmortizationYears {
		return fmt.Sprintf("%s amortization of %d years exceeds %d years", label, years, MaximumInsuredAmortizationYears)
	}
	return ""
}

// ValidateRent checks rent against the purchase price.
func ValidateRent(label string, monthlyRent, purchasePrice float64) []string {
	var warnings []string

	if monthlyRent <= 0 {
		warnings = append(warnings, fmt.Sprintf("%s has no rent - every income metric will be zero or negative", label))
		return warnings
	}
	if purchasePrice > 0 && monthlyRent/purchasePrice < MinimumRentToPriceRatio {
		warnings = append(warnings, fmt.Sprintf("%s rent of %.0f is under %.1f%% of the price - cash flow is unlikely",
			label, monthlyRent, MinimumRentToPriceRatio*constants.PercentageMultiplier))
	}
	return warnings
}

// ValidateRateScenarios warns about interest rate scenarios outside the
// range searched for the break-even rate.
func ValidateRateScenarios(rates []float64) []string {
	var warnings []string
	for _, rate := range rates {
		if rate < 0 || rate > constants.BreakEvenRateCeiling {
			warnings = append(warnings, fmt.Sprintf("Rate scenario %.2f%% is outside 0-%.0f%%", rate, constants.BreakEvenRateCeiling))
		}
	}
	return warnings
}

// ValidateVacancyScenarios warns about vacancy scenarios outside 0-100%.
func ValidateVacancyScenarios(vacancies []float64) []string {
	var warnings []string
	for _, v := range vacancies {
		if v < 0 || v > constants.PercentageMultiplier {
			warnings = append(warnings, fmt.Sprintf("Vacancy scenario %.1f%% is outside 0-100%%", v))
		}
	}
	return warnings
}

// PropertyConfig is the part of a property the warnings look at.
type PropertyConfig struct {
	Name               string
	PurchasePrice      float64
	MonthlyRent        float64
	DownPaymentPercent float64
	AmortizationYears  int
}

// ConfigValidator performs comprehensive configuration validation.
type ConfigValidator struct {
	Property         PropertyConfig
	RateScenarios    []float64
	VacancyScenarios []float64
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	label := "Property"
	if cv.Property.Name != "" {
		label = fmt.Sprintf("Property '%s'", cv.Property.Name)
	}

	if w := ValidateDownPayment(label, cv.Property.DownPaymentPercent); w != "" {
		warnings = append(warnings, w)
	}
	if w := ValidateAmortization(label, cv.Property.AmortizationYears); w != "" {
		warnings = append(warnings, w)
	}
	warnings = append(warnings, ValidateRent(label, cv.Property.MonthlyRent, cv.Property.PurchasePrice)...)
	warnings = append(warnings, ValidateRateScenarios(cv.RateScenarios)...)
	warnings = append(warnings, ValidateVacancyScenarios(cv.VacancyScenarios)...)

	return warnings
}
