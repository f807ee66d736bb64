package loans

// ScheduleSummary totals an amortization schedule.
type ScheduleSummary struct {
	TotalPayments  float64 `json:"totalPayments"`
	TotalInterest  float64 `json:"totalInterest"`
	TotalPrincipal float64 `json:"totalPrincipal"`
	// InterestRatio is interest paid per dollar of principal retired.
	InterestRatio float64 `json:"interestRatio"`
	FinalBalance  float64 `json:"finalBalance"`
}

// Summarize totals rows.
func Summarize(rows []AmortizationRow) ScheduleSummary {
	var s ScheduleSummary
	for _, row := range rows {
		s.TotalPayments += row.AnnualPayment
		s.TotalInterest += row.InterestPaid
		s.TotalPrincipal += row.PrincipalPaid
	}
	if len(rows) > 0 {
		s.FinalBalance = rows[len(rows)-1].EndBalance
	}
	if s.TotalPrincipal > 0 {
		s.InterestRatio = s.TotalInterest / s.TotalPrincipal
	}
	return s
}

// EquityAt returns owner equity at the end of year: principal retired so far
// plus the down payment. Years past the schedule return the final equity.
func EquityAt(rows []AmortizationRow, year int, downPayment float64) float64 {
	if year <= 0 || len(rows) == 0 {
		return downPayment
	}
	if year > len(rows) {
		year = len(rows)
	}
	return rows[year-1].EquityBuilt + downPayment
}
