// Package loans simulates mortgage paydown and summarizes amortization schedules.
package loans

import (
	"fmt"

	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/finance"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a single monthly payment.
type Payment struct {
	Payment            float64
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// AmortizationRow aggregates one year of monthly payments.
type AmortizationRow struct {
	Year          int     `json:"year"`
	StartBalance  float64 `json:"startBalance"`
	// AnnualPayment sums the payments actually made, so the payoff year is
	// short of twelve monthly payments.
	AnnualPayment float64 `json:"annualPayment"`
	PrincipalPaid float64 `json:"principalPaid"`
	InterestPaid  float64 `json:"interestPaid"`
	EndBalance    float64 `json:"endBalance"`
	// EquityBuilt is cumulative principal since inception, excluding the down payment.
	EquityBuilt float64 `json:"equityBuilt"`
}

// LoanConfig describes a fixed-rate amortizing loan.
type LoanConfig struct {
	Principal      float64
	AnnualRate     float64 // decimal, 0.055 for 5.5%
	Years          int
	MonthlyPayment float64 // computed from the other fields when zero
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualRate float64) float64 {
	return remainingPrincipal * annualRate / constants.MonthsPerYear
}

// NextPayment applies one monthly payment to balance. Principal never
// exceeds the outstanding balance.
func NextPayment(balance, annualRate, monthlyPayment float64) Payment {
	interest := CalculateInterestPayment(balance, annualRate)
	principal := mathutil.Min(monthlyPayment-interest, balance)
	return Payment{
		Payment:            interest + principal,
		Principal:          principal,
		Interest:           interest,
		RemainingPrincipal: balance - principal,
	}
}

// Schedule simulates the loan month by month and aggregates it to one row per
// year. Months stop once the balance reaches zero.
func Schedule(loanAmount, annualRate float64, years int, monthlyPayment float64) []AmortizationRow {
	rows, _ := simulate(loanAmount, annualRate, years, monthlyPayment)
	return rows
}

// simulate returns the rows and the first year in which the balance was
// retired, or 0 if it never was.
func simulate(loanAmount, annualRate float64, years int, monthlyPayment float64) ([]AmortizationRow, int) {
	if years <= 0 {
		return nil, 0
	}

	rows := make([]AmortizationRow, 0, years)
	balance := loanAmount
	cumulativePrincipal := 0.0
	paidOffYear := 0

	for year := 1; year <= years; year++ {
		row := AmortizationRow{Year: year, StartBalance: mathutil.FloorAt(balance, 0)}

		for month := 0; month < constants.MonthsPerYear; month++ {
			if balance <= 0 {
				break
			}
			payment := NextPayment(balance, annualRate, monthlyPayment)
			balance = payment.RemainingPrincipal
			row.InterestPaid += payment.Interest
			row.PrincipalPaid += payment.Principal
			row.AnnualPayment += payment.Payment
		}

		cumulativePrincipal += row.PrincipalPaid
		row.EndBalance = mathutil.FloorAt(balance, 0)
		row.EquityBuilt = cumulativePrincipal
		rows = append(rows, row)

		if paidOffYear == 0 && balance <= 0 && loanAmount > 0 {
			paidOffYear = year
		}
	}

	return rows, paidOffYear
}

// ScheduleGenerator produces amortization schedules and reports anomalies.
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// Generate builds the schedule for loan, computing the payment when unset.
func (g *ScheduleGenerator) Generate(loan LoanConfig) ([]AmortizationRow, error) {
	if loan.Years <= 0 {
		return nil, fmt.Errorf("amortization term must be positive, got %d years", loan.Years)
	}
	if loan.Principal < 0 {
		return nil, fmt.Errorf("loan principal must not be negative, got %.2f", loan.Principal)
	}

	payment := loan.MonthlyPayment
	if payment == 0 {
		payment = finance.MortgagePayment(loan.Principal, loan.AnnualRate, loan.Years)
	}

	rows, paidOffYear := simulate(loan.Principal, loan.AnnualRate, loan.Years, payment)
	if paidOffYear > 0 && paidOffYear < loan.Years {
		g.logger.Debug(fmt.Sprintf("loan of %.2f retired in year %d of %d", loan.Principal, paidOffYear, loan.Years),
			zap.String("op", "loans.Generate"),
		)
	}
	if len(rows) > 0 {
		if final := rows[len(rows)-1].EndBalance; !mathutil.IsZero(final) {
			g.logger.Warn(fmt.Sprintf("loan not retired at end of term, %.2f outstanding", final),
				zap.String("op", "loans.Generate"),
				zap.Float64("payment", payment),
			)
		}
	}

	return rows, nil
}
