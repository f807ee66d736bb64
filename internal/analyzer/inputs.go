package analyzer

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PropertyType identifies the kind of dwelling being analyzed.
type PropertyType string

// Supported property types.
const (
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeCondo     PropertyType = "condo"
	PropertyTypeTownhouse PropertyType = "townhouse"
)

// PropertyInputs is a single snapshot of property and financing values.
// Percentages are expressed as 0-100.
type PropertyInputs struct {
	PropertyType              PropertyType `json:"propertyType" yaml:"propertyType" validate:"omitempty,oneof=house condo townhouse"`
	PurchasePrice             float64      `json:"purchasePrice" yaml:"purchasePrice" validate:"gt=0"`
	ClosingCosts              float64      `json:"closingCosts" yaml:"closingCosts" validate:"gte=0"`
	MonthlyRent               float64      `json:"monthlyRent" yaml:"monthlyRent" validate:"gte=0"`
	PropertyTaxAnnual         float64      `json:"propertyTaxAnnual" yaml:"propertyTaxAnnual" validate:"gte=0"`
	InsuranceAnnual           float64      `json:"insuranceAnnual" yaml:"insuranceAnnual" validate:"gte=0"`
	CondoFeesMonthly          float64      `json:"condoFeesMonthly" yaml:"condoFeesMonthly" validate:"gte=0"`
	UtilitiesCostMonthly      float64      `json:"utilitiesCostMonthly" yaml:"utilitiesCostMonthly" validate:"gte=0"`
	DownPaymentPercent        float64      `json:"downPaymentPercent" yaml:"downPaymentPercent" validate:"gte=0,lte=100"`
	InterestRate              float64      `json:"interestRate" yaml:"interestRate" validate:"gte=0,lte=100"`
	VacancyRate               float64      `json:"vacancyRate" yaml:"vacancyRate" validate:"gte=0,lte=100"`
	MaintenancePercent        float64      `json:"maintenancePercent" yaml:"maintenancePercent" validate:"gte=0,lte=100"`
	PropertyManagementPercent float64      `json:"propertyManagementPercent" yaml:"propertyManagementPercent" validate:"gte=0,lte=100"`
	AmortizationYears         int          `json:"amortizationYears" yaml:"amortizationYears" validate:"gt=0,lte=50"`
	UtilitiesIncluded         bool         `json:"utilitiesIncluded" yaml:"utilitiesIncluded"`
	Neighborhood              string       `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
}

// WithInterestRate returns a copy of in with the interest rate (percent) replaced.
func (in PropertyInputs) WithInterestRate(rate float64) PropertyInputs {
	in.InterestRate = rate
	return in
}

// WithVacancyRate returns a copy of in with the vacancy rate (percent) replaced.
func (in PropertyInputs) WithVacancyRate(rate float64) PropertyInputs {
	in.VacancyRate = rate
	return in
}

// WithMonthlyRent returns a copy of in with the monthly rent replaced.
func (in PropertyInputs) WithMonthlyRent(rent float64) PropertyInputs {
	in.MonthlyRent = rent
	return in
}

var validate = validator.New()

// Validate checks inputs at the boundary before they reach the engine.
// Analyze itself never validates.
func Validate(in PropertyInputs) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid property inputs: %w", err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("invalid property inputs: %s", strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
