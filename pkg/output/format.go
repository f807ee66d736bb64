// Package output provides utilities for formatting and displaying analysis reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/property-analyzer/internal/pipeline"
	"github.com/iwvelando/property-analyzer/internal/wealth"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders report in the named output format.
func Write(w io.Writer, outputFormat string, report *pipeline.Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		PrettyFormat(w, report)
		return nil
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report *pipeline.Report) {
	p := message.NewPrinter(language.English)
	in, a := report.Inputs, report.Analysis

	fmt.Fprintf(w, "--- Property analysis ---\n")
	if in.Neighborhood != "" {
		fmt.Fprintf(w, "Neighborhood:        %s\n", in.Neighborhood)
	}
	p.Fprintf(w, "Purchase price:      $%.2f\n", in.PurchasePrice)
	p.Fprintf(w, "Down payment:        $%.2f (%s)\n", a.DownPaymentAmount, format.PercentPoints(in.DownPaymentPercent, 1))
	p.Fprintf(w, "Loan amount:         $%.2f at %s over %d years\n", a.LoanAmount, format.PercentPoints(in.InterestRate, 2), in.AmortizationYears)
	p.Fprintf(w, "Cash required:       $%.2f\n", a.TotalCashRequired)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Metric              | Value\n")
	fmt.Fprintf(w, "______              | _____\n")
	fmt.Fprintf(w, "Monthly cash flow   | %s\n", format.Currency(a.MonthlyCashFlow))
	fmt.Fprintf(w, "Annual cash flow    | %s\n", format.Currency(a.AnnualCashFlow))
	fmt.Fprintf(w, "Cap rate            | %s\n", format.Percent(a.CapRate, 2))
	fmt.Fprintf(w, "Cash on cash        | %s\n", format.Percent(a.CashOnCash, 2))
	fmt.Fprintf(w, "IRR (5 year)        | %s\n", format.Percent(a.IRR, 2))
	fmt.Fprintf(w, "DSCR                | %.2f\n", a.DSCR)
	fmt.Fprintf(w, "Break-even vacancy  | %s\n", format.Percent(a.BreakEvenVacancy, 1))
	fmt.Fprintf(w, "Deal score          | %d/100 (%s)\n", a.DealScore, a.DealScoreLabel)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "--- Monthly budget ---\n")
	fmt.Fprintf(w, "Effective gross income | %s\n", format.Currency(a.EffectiveGrossIncome))
	fmt.Fprintf(w, "Mortgage payment       | %s\n", format.Currency(a.MortgagePayment))
	fmt.Fprintf(w, "Property tax           | %s\n", format.Currency(a.MonthlyPropertyTax))
	fmt.Fprintf(w, "Insurance              | %s\n", format.Currency(a.MonthlyInsurance))
	fmt.Fprintf(w, "Maintenance            | %s\n", format.Currency(a.MonthlyMaintenance))
	fmt.Fprintf(w, "Property management    | %s\n", format.Currency(a.MonthlyPropertyManagement))
	if a.MonthlyCondoFees > 0 {
		fmt.Fprintf(w, "Condo fees             | %s\n", format.Currency(a.MonthlyCondoFees))
	}
	if a.MonthlyUtilities > 0 {
		fmt.Fprintf(w, "Utilities              | %s\n", format.Currency(a.MonthlyUtilities))
	}
	fmt.Fprintf(w, "Total expenses         | %s\n", format.Currency(a.TotalMonthlyExpenses))
	fmt.Fprintf(w, "\n")

	if len(report.RateScenarios) > 0 {
		fmt.Fprintf(w, "--- Interest rate scenarios ---\n")
		fmt.Fprintf(w, "Rate    | Cash Flow   | Score\n")
		fmt.Fprintf(w, "____    | _________   | _____\n")
		for _, point := range report.RateScenarios {
			fmt.Fprintf(w, "%-7s | %-11s | %d\n", format.PercentPoints(point.Rate, 2), format.Currency(point.MonthlyCashFlow), point.DealScore)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(report.VacancyScenarios) > 0 {
		fmt.Fprintf(w, "--- Vacancy scenarios ---\n")
		fmt.Fprintf(w, "Vacancy | Cash Flow\n")
		fmt.Fprintf(w, "_______ | _________\n")
		for _, point := range report.VacancyScenarios {
			fmt.Fprintf(w, "%-7s | %s\n", format.PercentPoints(point.VacancyRate, 1), format.Currency(point.MonthlyCashFlow))
		}
		fmt.Fprintf(w, "\n")
	}

	if hasStage(report, pipeline.StageScenarios) {
		be := report.BreakEven
		fmt.Fprintf(w, "--- Break-even ---\n")
		fmt.Fprintf(w, "Break-even interest rate: %s", format.PercentPoints(be.Value, 2))
		if !be.Converged {
			fmt.Fprintf(w, " (not converged after %d iterations)", be.Iterations)
		}
		fmt.Fprintf(w, "\n")
		for _, note := range be.Notes {
			fmt.Fprintf(w, "  %s\n", note)
		}
		rg := report.RentGrowth
		fmt.Fprintf(w, "Rent at %s growth: year 1 %s, year 3 %s, year 5 %s\n",
			format.Percent(rg.GrowthRate, 1), format.WholeCurrency(rg.Year1Rent),
			format.WholeCurrency(rg.Year3Rent), format.WholeCurrency(rg.Year5Rent))
		fmt.Fprintf(w, "Positive cash flow: %s\n", rg.YearPositive)
		fmt.Fprintf(w, "\n")
	}

	if len(report.Timeline) > 0 {
		fmt.Fprintf(w, "--- Timeline ---\n")
		fmt.Fprintf(w, "Year | Property Value | Equity | Cumulative Cash Flow\n")
		fmt.Fprintf(w, "____ | ______________ | ______ | ____________________\n")
		for _, point := range report.Timeline {
			p.Fprintf(w, "%4d | $%.0f | $%.0f | %s\n", point.Year, point.PropertyValue, point.Equity, format.WholeCurrency(point.CumulativeCashFlow))
		}
		fmt.Fprintf(w, "Total return: %s\n", format.PercentPoints(report.TimelineSummary.TotalReturnPercent, 1))
		fmt.Fprintf(w, "\n")
	}

	printProjections(w, p, "Wealth projection", report.Wealth)
	printProjections(w, p, "Portfolio wealth projection", report.PortfolioWealth)

	if len(report.Amortization) > 0 {
		s := report.LoanSummary
		fmt.Fprintf(w, "--- Amortization ---\n")
		fmt.Fprintf(w, "Year | Start Balance | Principal | Interest | End Balance\n")
		fmt.Fprintf(w, "____ | _____________ | _________ | ________ | ___________\n")
		for _, row := range report.Amortization {
			p.Fprintf(w, "%4d | $%.2f | $%.2f | $%.2f | $%.2f\n", row.Year, row.StartBalance, row.PrincipalPaid, row.InterestPaid, row.EndBalance)
		}
		p.Fprintf(w, "Total interest: $%.2f (%.2f per dollar of principal)\n", s.TotalInterest, s.InterestRatio)
		fmt.Fprintf(w, "\n")
	}

	if t := report.Tax; t != nil {
		fmt.Fprintf(w, "--- Tax estimate ---\n")
		fmt.Fprintf(w, "Gross rental income      | %s\n", format.Currency(t.GrossRentalIncome))
		fmt.Fprintf(w, "Deductible expenses      | %s\n", format.Currency(t.TotalExpenses))
		fmt.Fprintf(w, "Net income without CCA   | %s\n", format.Currency(t.NetIncomeWithoutCCA))
		fmt.Fprintf(w, "Net income with CCA      | %s\n", format.Currency(t.NetIncomeWithCCA))
		fmt.Fprintf(w, "Tax with CCA             | %s\n", format.Currency(t.TaxWithCCA))
		fmt.Fprintf(w, "CCA benefit              | %s\n", format.Currency(t.CCABenefit))
		if t.IsRefund {
			fmt.Fprintf(w, "The rental loss reduces tax on other income.\n")
		}
		fmt.Fprintf(w, "\n")
	}

	if b := report.BRRRR; b != nil {
		fmt.Fprintf(w, "--- BRRRR ---\n")
		fmt.Fprintf(w, "Total investment   | %s\n", format.Currency(b.TotalInvestment))
		fmt.Fprintf(w, "Refinance amount   | %s\n", format.Currency(b.RefinanceAmount))
		fmt.Fprintf(w, "Cash left in deal  | %s\n", format.Currency(b.CashLeftInDeal))
		fmt.Fprintf(w, "Equity created     | %s\n", format.Currency(b.EquityCreated))
		fmt.Fprintf(w, "Monthly cash flow  | %s\n", format.Currency(b.MonthlyCashFlow))
		fmt.Fprintf(w, "Cash on cash       | %s\n", b.CashOnCashDisplay())
		fmt.Fprintf(w, "\n")
	}
}

func printProjections(w io.Writer, p *message.Printer, title string, projections []wealth.Projection) {
	if len(projections) == 0 {
		return
	}
	fmt.Fprintf(w, "--- %s ---\n", title)
	fmt.Fprintf(w, "Years | Future Value | Remaining Loan | Equity | Monthly Cash Flow\n")
	fmt.Fprintf(w, "_____ | ____________ | ______________ | ______ | _________________\n")
	for _, proj := range projections {
		p.Fprintf(w, "%5d | $%.0f | $%.0f | $%.0f | %s\n", proj.Years, proj.FutureValue, proj.RemainingLoan, proj.Equity, format.WholeCurrency(proj.MonthlyCashFlow))
	}
	fmt.Fprintf(w, "\n")
}

func hasStage(report *pipeline.Report, name string) bool {
	for _, stage := range report.Stages {
		if stage == name {
			return true
		}
	}
	return false
}

// CsvFormat outputs the report as section,metric,value rows.
func CsvFormat(w io.Writer, report *pipeline.Report) error {
	cw := csv.NewWriter(w)
	a := report.Analysis

	records := [][]string{
		{"section", "metric", "value"},
		{"analysis", "purchasePrice", money(report.Inputs.PurchasePrice)},
		{"analysis", "downPayment", money(a.DownPaymentAmount)},
		{"analysis", "loanAmount", money(a.LoanAmount)},
		{"analysis", "mortgagePayment", money(a.MortgagePayment)},
		{"analysis", "monthlyCashFlow", money(a.MonthlyCashFlow)},
		{"analysis", "annualCashFlow", money(a.AnnualCashFlow)},
		{"analysis", "capRate", ratio(a.CapRate)},
		{"analysis", "cashOnCash", ratio(a.CashOnCash)},
		{"analysis", "irr", ratio(a.IRR)},
		{"analysis", "dscr", ratio(a.DSCR)},
		{"analysis", "breakEvenVacancy", ratio(a.BreakEvenVacancy)},
		{"analysis", "dealScore", strconv.Itoa(a.DealScore)},
		{"analysis", "dealScoreLabel", a.DealScoreLabel},
	}

	for _, point := range report.RateScenarios {
		records = append(records, []string{"rateScenario", ratio(point.Rate), money(point.MonthlyCashFlow)})
	}
	for _, point := range report.VacancyScenarios {
		records = append(records, []string{"vacancyScenario", ratio(point.VacancyRate), money(point.MonthlyCashFlow)})
	}
	if hasStage(report, pipeline.StageScenarios) {
		records = append(records,
			[]string{"breakEven", "interestRate", ratio(report.BreakEven.Value)},
			[]string{"rentGrowth", "yearPositive", report.RentGrowth.YearPositive},
		)
	}
	for _, point := range report.Timeline {
		records = append(records, []string{"timeline", strconv.Itoa(point.Year), money(point.Equity + point.CumulativeCashFlow)})
	}
	for _, proj := range report.Wealth {
		records = append(records, []string{"wealth", strconv.Itoa(proj.Years), money(proj.Equity)})
	}
	for _, proj := range report.PortfolioWealth {
		records = append(records, []string{"portfolioWealth", strconv.Itoa(proj.Years), money(proj.Equity)})
	}
	for _, row := range report.Amortization {
		records = append(records, []string{"amortization", strconv.Itoa(row.Year), money(row.EndBalance)})
	}
	if t := report.Tax; t != nil {
		records = append(records,
			[]string{"tax", "taxWithCca", money(t.TaxWithCCA)},
			[]string{"tax", "ccaBenefit", money(t.CCABenefit)},
		)
	}
	if b := report.BRRRR; b != nil {
		records = append(records,
			[]string{"brrrr", "cashLeftInDeal", money(b.CashLeftInDeal)},
			[]string{"brrrr", "monthlyCashFlow", money(b.MonthlyCashFlow)},
			[]string{"brrrr", "cashOnCash", b.CashOnCashDisplay()},
		)
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(w io.Writer, report *pipeline.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
