package main

import (
	"fmt"
	"io"
	"strings"
)

const ruleWidth = 96

func printBanner(w io.Writer, title string) {
	fmt.Fprintln(w, "╔"+strings.Repeat("═", ruleWidth-2)+"╗")
	fmt.Fprintf(w, "║ %-*s ║\n", ruleWidth-4, title)
	fmt.Fprintln(w, "╚"+strings.Repeat("═", ruleWidth-2)+"╝")
	fmt.Fprintln(w)
}

func printSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", len(title)))
}

// PrintHeader prints the inputs a projection was run with
func PrintHeader(w io.Writer, s *FinancialSnapshot) {
	printBanner(w, "RETIREMENT PROJECTION")
	printSection(w, "Inputs:")

	p := s.Person
	fmt.Fprintf(w, "  Age %d, retiring at %d, planning to age %d\n", p.CurrentAge, p.RetirementAge, p.LifeExpectancyAge)

	ie := s.IncomeExpense
	fmt.Fprintf(w, "  Salary: %s (growth %s) | Expenses: %s/month", FormatMoneyFull(ie.AnnualSalary),
		FormatPercent(ie.WageGrowthRate), FormatMoneyFull(ie.MonthlyExpenses))
	if ie.IsRenting {
		fmt.Fprintf(w, " + rent %s/month", FormatMoneyFull(ie.MonthlyRent))
	}
	fmt.Fprintln(w)

	superRate, etfRate := returnRates(s)
	fmt.Fprintf(w, "  Super: %s in %s @ %s, sacrifice %s/month\n", FormatMoneyFull(s.Superannuation.CurrentBalance),
		s.Superannuation.InvestmentOption, FormatPercent(superRate), FormatMoneyFull(s.Superannuation.MonthlySalarySacrifice))
	fmt.Fprintf(w, "  ETF:   %s in %s @ %s, investing %s/month\n", FormatMoneyFull(s.Portfolio.CurrentValue),
		s.Portfolio.AllocationPreset, FormatPercent(etfRate), FormatMoneyFull(s.Portfolio.MonthlyContribution))
	fmt.Fprintf(w, "  Buffer: %s of %.0f months | Inflation: %s\n", FormatMoneyFull(s.Buffer.CurrentBalance),
		s.Buffer.TargetMonths, FormatPercent(s.Assumptions.InflationRate))

	for _, prop := range s.Properties {
		fmt.Fprintf(w, "  Property %s (%s): %s value, %s %s loan @ %.2f%%\n", propertyLabel(&prop), prop.Type,
			FormatMoney(prop.CurrentValue), FormatMoney(prop.LoanBalance), prop.LoanType, prop.InterestRate)
	}
	fmt.Fprintln(w)
}

// PrintTaxBreakdown prints a tax position
func PrintTaxBreakdown(w io.Writer, t TaxBreakdown, bracket *MarginalBracket) {
	printSection(w, "Tax:")
	fmt.Fprintf(w, "  %-22s %14s\n", "Gross income", FormatMoneyFull(t.GrossIncome))
	fmt.Fprintf(w, "  %-22s %14s\n", "Taxable income", FormatMoneyFull(t.TaxableIncome))
	fmt.Fprintf(w, "  %-22s %14s\n", "Income tax", FormatMoneyFull(t.IncomeTax))
	fmt.Fprintf(w, "  %-22s %14s\n", "Low income offset", FormatMoneyFull(-t.LowIncomeOffset))
	fmt.Fprintf(w, "  %-22s %14s\n", "Medicare levy", FormatMoneyFull(t.MedicareLevy))
	fmt.Fprintf(w, "  %-22s %14s  (%s effective)\n", "Total tax", FormatMoneyFull(t.TotalTax), FormatPercent(t.EffectiveTaxRate))
	fmt.Fprintf(w, "  %-22s %14s  (%s/month)\n", "Net income", FormatMoneyFull(t.NetIncome), FormatMoneyFull(t.MonthlyNet))
	if bracket != nil {
		fmt.Fprintf(w, "  Marginal bracket: %s\n", bracket.Label)
	} else {
		fmt.Fprintln(w, "  Marginal bracket: tax-free threshold")
	}
	fmt.Fprintln(w)
}

// PrintBorrowingCapacity prints a serviceability assessment
func PrintBorrowingCapacity(w io.Writer, bc *BorrowingCapacityResult) {
	printSection(w, "Borrowing capacity:")
	if bc == nil {
		fmt.Fprintln(w, "  Not available without income")
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "  %-28s %14s\n", "Net monthly income", FormatMoneyFull(bc.NetMonthlyIncome))
	fmt.Fprintf(w, "  %-28s %14s\n", "Monthly outgoings", FormatMoneyFull(bc.TotalMonthlyOutgoings))
	fmt.Fprintf(w, "  %-28s %14s\n", "Available for repayments", FormatMoneyFull(bc.MaxMonthlyDebtService))
	fmt.Fprintf(w, "  %-28s %13.2f%%\n", "Assessment rate", bc.AssessmentRatePercent)
	fmt.Fprintf(w, "  %-28s %14s\n", "Serviceability limit", FormatMoneyFull(bc.ServiceabilityCapacity))
	fmt.Fprintf(w, "  %-28s %14s\n", "Debt-to-income ceiling", FormatMoneyFull(bc.DebtToIncomeCeiling))
	fmt.Fprintf(w, "  %-28s %14s  (limited by %s)\n", "Borrowing capacity", FormatMoneyFull(bc.BorrowingCapacity), bc.LimitingFactor)
	fmt.Fprintf(w, "  %-28s %14s/month\n", "Estimated repayment", FormatMoneyFull(bc.EstimatedMonthlyPayment))
	fmt.Fprintln(w)
}

// PrintAmortization prints a loan schedule
func PrintAmortization(w io.Writer, schedule []ScheduleYear) {
	printSection(w, "Amortization:")
	fmt.Fprintf(w, "%6s │ %14s │ %14s %14s │ %14s\n", "Year", "Opening", "Interest", "Principal", "Closing")
	fmt.Fprintln(w, strings.Repeat("─", 72))
	for _, y := range schedule {
		fmt.Fprintf(w, "%6d │ %14s │ %14s %14s │ %14s\n", y.Year, FormatMoneyFull(y.OpeningBalance),
			FormatMoneyFull(y.InterestPaid), FormatMoneyFull(y.PrincipalPaid), FormatMoneyFull(y.ClosingBalance))
	}
	fmt.Fprintln(w)
}

// PrintProjection prints metrics, a year table and recommendations
func PrintProjection(w io.Writer, s *FinancialSnapshot, p *Projection) {
	r := p.Result
	m := p.Metrics

	printSection(w, "Projection:")
	fmt.Fprintf(w, "%-6s %4s %-5s │ %10s %10s %10s %10s │ %10s %10s │ %12s\n",
		"Year", "Age", "Phase", "Super", "ETF", "Equity", "Buffer", "Deposits", "Withdrawn", "Total")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth+10))

	for i := 0; i < r.Len(); i++ {
		// Every 5th year, milestones and the ends of the series
		age := r.Ages[i]
		key := i == 0 || i == r.Len()-1 || age%5 == 0 || age == s.Person.RetirementAge || r.Shortfall[i] > 0
		if !key {
			continue
		}
		phase := "work"
		if r.Phase[i] == PhaseDrawdown {
			phase = "draw"
		}
		marker := ""
		if r.Shortfall[i] > 0 {
			marker = " !"
		}
		fmt.Fprintf(w, "%-6d %4d %-5s │ %10s %10s %10s %10s │ %10s %10s │ %12s%s\n",
			r.Years[i], age, phase,
			FormatMoney(r.SuperBalance[i]), FormatMoney(r.ETFPortfolio[i]),
			FormatMoney(r.PropertyEquity[i]), FormatMoney(r.BufferBalance[i]),
			FormatMoney(r.SuperDeposits[i]+r.ETFDeposits[i]), FormatMoney(r.Withdrawals[i]),
			FormatMoney(r.TotalAssets[i]), marker)
	}
	fmt.Fprintln(w)

	printSection(w, "Summary:")
	verdict := "YES"
	if !m.CanRetire {
		verdict = "NO"
	}
	fmt.Fprintf(w, "  Can retire at %d: %s\n", s.Person.RetirementAge, verdict)
	fmt.Fprintf(w, "  Assets at retirement:   %s\n", FormatMoneyFull(m.FinalAssets))
	fmt.Fprintf(w, "  Sustainable income:     %s/year (%s/month)\n", FormatMoneyFull(m.FinalAnnualIncome), FormatMoneyFull(m.FinalMonthlyIncome))
	fmt.Fprintf(w, "  Required spending:      %s/year\n", FormatMoneyFull(m.RequiredAnnualExpenses))
	fmt.Fprintf(w, "  Income replacement:     %.0f%%\n", m.IncomeReplacementPercent)
	if m.Shortfall > 0 {
		fmt.Fprintf(w, "  Shortfall:              %s/year\n", FormatMoneyFull(m.Shortfall))
	}
	if m.ProjectedRetirementAge != nil {
		fmt.Fprintf(w, "  Earliest viable age:    %d\n", *m.ProjectedRetirementAge)
	}
	if m.FirstShortfallAge != nil {
		fmt.Fprintf(w, "  Savings run short at:   %d\n", *m.FirstShortfallAge)
	}
	fmt.Fprintf(w, "  Assets at %d:           %s\n", s.Person.LifeExpectancyAge, FormatMoneyFull(m.AssetsAtLifeExpectancy))
	fmt.Fprintln(w)

	PrintRecommendations(w, p.Recommendations)
}

// PrintRecommendations prints action items in priority order
func PrintRecommendations(w io.Writer, recs []Recommendation) {
	if len(recs) == 0 {
		return
	}
	printSection(w, "Recommendations:")
	labels := map[int]string{PriorityHigh: "HIGH", PriorityMedium: "MED", PriorityLow: "LOW"}
	for _, rec := range recs {
		fmt.Fprintf(w, "  [%-4s] %s\n", labels[rec.Priority], rec.Title)
		fmt.Fprintf(w, "         %s\n", rec.Detail)
	}
	fmt.Fprintln(w)
}

// PrintSensitivity prints assets at retirement for each return pair
func PrintSensitivity(w io.Writer, a *SensitivityAnalysis) {
	printSection(w, "Assets at retirement by return (rows super, columns ETF):")
	fmt.Fprintf(w, "%8s", "")
	for _, r := range a.ETFReturns {
		fmt.Fprintf(w, " %9s", FormatPercent(r))
	}
	fmt.Fprintln(w)
	for si, sr := range a.SuperReturns {
		fmt.Fprintf(w, "%8s", FormatPercent(sr))
		for ei := range a.ETFReturns {
			c := a.Cells[si][ei]
			mark := " "
			if !c.CanRetire {
				mark = "*"
			}
			fmt.Fprintf(w, " %8s%s", FormatMoney(c.AssetsAtRetire), mark)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "  * spending not covered at retirement")
	fmt.Fprintln(w)
}

// PrintSustainableSpending prints the spending solver result
func PrintSustainableSpending(w io.Writer, res *SpendingResult) {
	printSection(w, "Sustainable spending:")
	fmt.Fprintf(w, "  %s/month (%s/year) in today's dollars\n", FormatMoneyFull(res.MonthlySpending), FormatMoneyFull(res.AnnualSpending))
	if res.Headroom >= 0 {
		fmt.Fprintf(w, "  %s/month above current spending\n", FormatMoneyFull(res.Headroom))
	} else {
		fmt.Fprintf(w, "  %s/month below current spending\n", FormatMoneyFull(-res.Headroom))
	}
	fmt.Fprintf(w, "  Assets left at life expectancy: %s\n", FormatMoneyFull(res.AssetsAtEnd))
	fmt.Fprintln(w)
}

// PrintScenarios lists saved scenarios
func PrintScenarios(w io.Writer, list []Scenario) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No saved scenarios")
		return
	}
	fmt.Fprintf(w, "%-36s  %-24s  %s\n", "ID", "Name", "Last modified")
	for _, sc := range list {
		fmt.Fprintf(w, "%-36s  %-24s  %s\n", sc.ID, truncateString(sc.Name, 24), sc.LastModified.Format("2006-01-02 15:04"))
	}
}
