package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// PDFProjectionReport renders one projection as a printable plan
type PDFProjectionReport struct {
	pdf  *fpdf.Fpdf
	snap *FinancialSnapshot
	p    *Projection
}

// GenerateProjectionPDF creates the PDF report for a projection of snap
func GenerateProjectionPDF(snap *FinancialSnapshot, p *Projection) ([]byte, error) {
	if p == nil || p.Result == nil {
		return nil, fmt.Errorf("generate report: no projection result")
	}
	report := &PDFProjectionReport{
		pdf:  fpdf.New("P", "mm", "A4", ""),
		snap: snap,
		p:    p,
	}

	report.pdf.SetMargins(marginLeft, marginTop, marginRight)
	report.pdf.SetAutoPageBreak(true, marginBottom)
	report.pdf.SetTitle("Retirement Projection", false)

	report.addSummaryPage()
	report.addCurrentPosition()
	report.addRecommendations()
	report.addYearByYear()

	var buf bytes.Buffer
	if err := report.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *PDFProjectionReport) addSummaryPage() {
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 24)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.Ln(20)
	r.pdf.CellFormat(contentWidth, 12, "Retirement Projection", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 11)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Generated: %s", r.p.StartedAt.Format("2 January 2006")), "", 1, "C", false, 0, "")
	r.pdf.Ln(10)

	person := r.snap.Person
	m := r.p.Metrics

	verdict := "On track to retire"
	if !m.CanRetire {
		verdict = "Not yet on track"
	}
	r.pdf.SetFont("Arial", "B", 14)
	if m.CanRetire {
		r.pdf.SetTextColor(0, 128, 0)
	} else {
		r.pdf.SetTextColor(180, 0, 0)
	}
	r.pdf.CellFormat(contentWidth, 10, fmt.Sprintf("%s at age %d", verdict, person.RetirementAge), "", 1, "C", false, 0, "")
	r.pdf.Ln(5)

	widths := []float64{100, 80}
	r.drawTableHeader([]string{"Retirement readiness", ""}, widths)
	rows := [][]string{
		{"Current age", fmt.Sprintf("%d", person.CurrentAge)},
		{"Planned retirement age", fmt.Sprintf("%d", person.RetirementAge)},
		{"Life expectancy", fmt.Sprintf("%d", person.LifeExpectancyAge)},
		{"Assets at retirement", FormatMoneyFull(m.FinalAssets)},
		{"Sustainable income (annual)", FormatMoneyFull(m.FinalAnnualIncome)},
		{"Sustainable income (monthly)", FormatMoneyFull(m.FinalMonthlyIncome)},
		{"Required spending (annual)", FormatMoneyFull(m.RequiredAnnualExpenses)},
		{"Income replacement", fmt.Sprintf("%.0f%%", m.IncomeReplacementPercent)},
		{"Shortfall (annual)", FormatMoneyFull(m.Shortfall)},
		{"Assets at life expectancy", FormatMoneyFull(m.AssetsAtLifeExpectancy)},
	}
	if m.ProjectedRetirementAge != nil {
		rows = append(rows, []string{"Earliest age assets cover spending", fmt.Sprintf("%d", *m.ProjectedRetirementAge)})
	}
	if m.FirstShortfallAge != nil {
		rows = append(rows, []string{"First year savings run short", fmt.Sprintf("Age %d", *m.FirstShortfallAge)})
	}
	for _, row := range rows {
		r.drawTableRow(row, widths, false)
	}

	r.pdf.Ln(8)
	r.drawTableHeader([]string{"Assets at retirement", ""}, widths)
	b := m.AssetBreakdown
	r.drawTableRow([]string{"Superannuation", FormatMoneyFull(b.Super)}, widths, false)
	r.drawTableRow([]string{"ETF portfolio", FormatMoneyFull(b.ETF)}, widths, false)
	r.drawTableRow([]string{"Property equity", FormatMoneyFull(b.PropertyEquity)}, widths, false)
	r.drawTableRow([]string{"Emergency buffer", FormatMoneyFull(b.Buffer)}, widths, false)
	r.drawTableRow([]string{"TOTAL", FormatMoneyFull(b.Super + b.ETF + b.PropertyEquity + b.Buffer)}, widths, true)

	r.pdf.Ln(15)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(contentWidth, 4.5,
		"This document is for informational purposes only and does not constitute financial advice. "+
			"Projections use fixed return assumptions and current tax rules, which are subject to change.", "", "C", false)
}

func (r *PDFProjectionReport) addCurrentPosition() {
	r.pdf.AddPage()
	r.drawSectionHeader("Current Position")

	c := r.p.Current
	widths := []float64{100, 80}
	r.drawTableHeader([]string{"Income tax", ""}, widths)
	r.drawTableRow([]string{"Gross salary", FormatMoneyFull(c.Tax.GrossIncome)}, widths, false)
	r.drawTableRow([]string{"Taxable income", FormatMoneyFull(c.Tax.TaxableIncome)}, widths, false)
	r.drawTableRow([]string{"Income tax", FormatMoneyFull(c.Tax.IncomeTax)}, widths, false)
	r.drawTableRow([]string{"Low income offset", FormatMoneyFull(c.Tax.LowIncomeOffset)}, widths, false)
	r.drawTableRow([]string{"Medicare levy", FormatMoneyFull(c.Tax.MedicareLevy)}, widths, false)
	r.drawTableRow([]string{"Total tax", FormatMoneyFull(c.Tax.TotalTax)}, widths, true)
	r.drawTableRow([]string{"Net income (monthly)", FormatMoneyFull(c.Tax.MonthlyNet)}, widths, false)
	r.drawTableRow([]string{"Effective rate", FormatPercent(c.Tax.EffectiveTaxRate)}, widths, false)
	if c.Bracket != nil {
		r.drawTableRow([]string{"Marginal bracket", c.Bracket.Label}, widths, false)
	}
	if c.StudentLoanRepayment > 0 {
		r.drawTableRow([]string{"Student loan repayment", FormatMoneyFull(c.StudentLoanRepayment)}, widths, false)
	}

	r.pdf.Ln(6)
	r.drawTableHeader([]string{"Super contributions", ""}, widths)
	r.drawTableRow([]string{"Employer guarantee", FormatMoneyFull(c.Contributions.Guarantee)}, widths, false)
	r.drawTableRow([]string{"Salary sacrifice (deductible)", FormatMoneyFull(c.Contributions.Deductible)}, widths, false)
	r.drawTableRow([]string{"Salary sacrifice (over cap)", FormatMoneyFull(c.Contributions.Excess)}, widths, false)

	if bc := c.BorrowingCapacity; bc != nil {
		r.pdf.Ln(6)
		r.drawTableHeader([]string{"Borrowing capacity", ""}, widths)
		r.drawTableRow([]string{"Maximum loan", FormatMoneyFull(bc.BorrowingCapacity)}, widths, true)
		r.drawTableRow([]string{"Limited by", bc.LimitingFactor}, widths, false)
		r.drawTableRow([]string{"Assessment rate", fmt.Sprintf("%.2f%%", bc.AssessmentRatePercent)}, widths, false)
	}

	if len(c.PropertyMetrics) == 0 {
		return
	}
	r.pdf.Ln(6)
	pw := []float64{40, 28, 28, 28, 28, 28}
	r.drawTableHeader([]string{"Property", "Equity", "LVR", "Gross yld", "Net yld", "Cash/mo"}, pw)
	for _, pm := range c.PropertyMetrics {
		name := pm.Name
		if name == "" {
			name = pm.PropertyID
		}
		r.drawTableRow([]string{
			truncateString(name, 22),
			FormatMoney(pm.Equity),
			FormatPercent(pm.LoanToValue),
			FormatPercent(pm.GrossYield),
			FormatPercent(pm.NetYield),
			FormatMoneyFull(pm.MonthlyCashFlow),
		}, pw, false)
	}
}

func (r *PDFProjectionReport) addRecommendations() {
	if len(r.p.Recommendations) == 0 {
		return
	}
	r.pdf.Ln(8)
	r.drawSectionHeader("Recommendations")
	for _, rec := range r.p.Recommendations {
		r.setPriorityColor(rec.Priority)
		r.pdf.SetFont("Arial", "B", 11)
		r.pdf.CellFormat(contentWidth, 6, rec.Title, "", 1, "L", false, 0, "")
		r.pdf.SetFont("Arial", "", 10)
		r.pdf.SetTextColor(50, 50, 50)
		r.pdf.MultiCell(contentWidth, 5, rec.Detail, "", "L", false)
		r.pdf.Ln(2)
	}
}

func (r *PDFProjectionReport) addYearByYear() {
	r.pdf.AddPage()
	r.drawSectionHeader("Year by Year")

	res := r.p.Result
	widths := []float64{14, 12, 26, 26, 26, 26, 22, 28}
	r.drawTableHeader([]string{"Year", "Age", "Super", "ETF", "Equity", "Buffer", "Draw", "Total"}, widths)
	for i := 0; i < res.Len(); i++ {
		if r.pdf.GetY() > 270 {
			r.pdf.AddPage()
			r.drawTableHeader([]string{"Year", "Age", "Super", "ETF", "Equity", "Buffer", "Draw", "Total"}, widths)
		}
		r.drawTableRow([]string{
			fmt.Sprintf("%d", res.Years[i]),
			fmt.Sprintf("%d", res.Ages[i]),
			FormatMoney(res.SuperBalance[i]),
			FormatMoney(res.ETFPortfolio[i]),
			FormatMoney(res.PropertyEquity[i]),
			FormatMoney(res.BufferBalance[i]),
			FormatMoney(res.Withdrawals[i]),
			FormatMoney(res.TotalAssets[i]),
		}, widths, res.Ages[i] == r.snap.Person.RetirementAge)
	}
	if len(res.ShortfallYears) > 0 {
		r.pdf.Ln(4)
		r.pdf.SetFont("Arial", "I", 9)
		r.pdf.SetTextColor(180, 0, 0)
		years := make([]string, len(res.ShortfallYears))
		for i, y := range res.ShortfallYears {
			years[i] = fmt.Sprintf("%d", y)
		}
		r.pdf.MultiCell(contentWidth, 4.5, "Spending could not be fully funded in: "+strings.Join(years, ", "), "", "L", false)
	}
}

func (r *PDFProjectionReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(5)
}

func (r *PDFProjectionReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, header, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *PDFProjectionReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)

	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *PDFProjectionReport) setPriorityColor(priority int) {
	switch priority {
	case PriorityHigh:
		r.pdf.SetTextColor(180, 0, 0)
	case PriorityMedium:
		r.pdf.SetTextColor(180, 100, 0)
	default:
		r.pdf.SetTextColor(0, 100, 50)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
