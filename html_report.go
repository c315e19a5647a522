package main

import (
	"fmt"
	"html"
	"io"
	"os"
	"time"
)

const htmlStyle = `    <style>
        :root {
            --primary: #2563eb;
            --success: #16a34a;
            --warning: #ea580c;
            --danger: #dc2626;
            --bg: #f8fafc;
            --card-bg: #ffffff;
            --text: #1e293b;
            --text-muted: #64748b;
            --border: #e2e8f0;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: var(--primary); }
        h2 {
            font-size: 1.25rem;
            margin: 1.5rem 0 1rem;
            padding-bottom: 0.5rem;
            border-bottom: 2px solid var(--primary);
        }
        .subtitle { color: var(--text-muted); margin-bottom: 1.5rem; }
        .card {
            background: var(--card-bg);
            border-radius: 8px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.1);
            padding: 1.5rem;
            margin-bottom: 1.5rem;
        }
        .grid { display: grid; gap: 1rem; grid-template-columns: repeat(4, 1fr); }
        @media (max-width: 768px) { .grid { grid-template-columns: 1fr; } }
        .metric { text-align: center; padding: 1rem; border-radius: 8px; background: var(--bg); }
        .metric-value { font-size: 1.5rem; font-weight: 700; color: var(--primary); }
        .metric-label { font-size: 0.875rem; color: var(--text-muted); }
        .metric.success .metric-value { color: var(--success); }
        .metric.danger .metric-value { color: var(--danger); }
        table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        th, td { padding: 0.5rem; text-align: right; border-bottom: 1px solid var(--border); }
        th { background: var(--bg); font-weight: 600; position: sticky; top: 0; }
        th:first-child, td:first-child { text-align: left; }
        tr:hover { background: #f1f5f9; }
        .highlight { background: #fef3c7 !important; }
        .negative { color: var(--danger); }
        .badge { display: inline-block; padding: 0.25rem 0.75rem; border-radius: 9999px; font-size: 0.75rem; font-weight: 600; }
        .badge-high { background: #fee2e2; color: var(--danger); }
        .badge-medium { background: #ffedd5; color: var(--warning); }
        .badge-low { background: #dcfce7; color: var(--success); }
        .rec { padding: 0.75rem 0; border-bottom: 1px solid var(--border); }
        .rec:last-child { border-bottom: none; }
        .footer {
            text-align: center;
            color: var(--text-muted);
            font-size: 0.75rem;
            margin-top: 2rem;
            padding-top: 1rem;
            border-top: 1px solid var(--border);
        }
    </style>
`

func writeHTMLHead(w io.Writer, title string) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
%s</head>
<body>
<div class="container">
`, html.EscapeString(title), htmlStyle)
}

func writeHTMLFooter(w io.Writer, generated time.Time) {
	fmt.Fprintf(w, `<div class="footer">Generated %s. Projections are estimates in nominal dollars and are not financial advice.</div>
</div>
</body>
</html>
`, generated.Format("2 January 2006 15:04"))
}

// WriteProjectionHTML renders a projection as a standalone HTML page
func WriteProjectionHTML(w io.Writer, s *FinancialSnapshot, p *Projection) error {
	m := p.Metrics
	r := p.Result

	writeHTMLHead(w, "Retirement Projection")
	fmt.Fprintf(w, "<h1>Retirement Projection</h1>\n")
	fmt.Fprintf(w, "<p class=\"subtitle\">Age %d, retiring at %d, planning to age %d</p>\n",
		s.Person.CurrentAge, s.Person.RetirementAge, s.Person.LifeExpectancyAge)

	status, statusClass := "On track", "success"
	if !m.CanRetire {
		status, statusClass = "Short", "danger"
	}
	fmt.Fprintf(w, "<div class=\"card\"><div class=\"grid\">\n")
	writeMetric(w, statusClass, status, fmt.Sprintf("Retire at %d", s.Person.RetirementAge))
	writeMetric(w, "", FormatMoney(m.FinalAssets), "Assets at retirement")
	writeMetric(w, "", FormatMoneyFull(m.FinalMonthlyIncome), "Sustainable monthly income")
	writeMetric(w, "", fmt.Sprintf("%.0f%%", m.IncomeReplacementPercent), "Income replacement")
	fmt.Fprintf(w, "</div></div>\n")

	fmt.Fprintf(w, "<h2>Current position</h2>\n<div class=\"card\"><table>\n")
	t := p.Current.Tax
	writeKeyRow(w, "Gross salary", FormatMoneyFull(t.GrossIncome))
	writeKeyRow(w, "Total tax", fmt.Sprintf("%s (%s effective)", FormatMoneyFull(t.TotalTax), FormatPercent(t.EffectiveTaxRate)))
	writeKeyRow(w, "Net income", fmt.Sprintf("%s/month", FormatMoneyFull(t.MonthlyNet)))
	if b := p.Current.Bracket; b != nil {
		writeKeyRow(w, "Marginal bracket", b.Label)
	}
	writeKeyRow(w, "Super contributions", FormatMoneyFull(p.Current.Contributions.Concessional()))
	if bc := p.Current.BorrowingCapacity; bc != nil {
		writeKeyRow(w, "Borrowing capacity", fmt.Sprintf("%s (limited by %s)", FormatMoneyFull(bc.BorrowingCapacity), bc.LimitingFactor))
	}
	fmt.Fprintf(w, "</table></div>\n")

	if len(p.Current.PropertyMetrics) > 0 {
		fmt.Fprintf(w, "<h2>Properties</h2>\n<div class=\"card\"><table>\n")
		fmt.Fprintf(w, "<tr><th>Property</th><th>Equity</th><th>LVR</th><th>Net yield</th><th>Cash flow / month</th></tr>\n")
		for _, pm := range p.Current.PropertyMetrics {
			fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%.1f%%</td><td>%.2f%%</td>%s</tr>\n",
				html.EscapeString(pm.Name), FormatMoneyFull(pm.Equity), pm.LoanToValue*100, pm.NetYield*100,
				moneyCell(pm.MonthlyCashFlow))
		}
		fmt.Fprintf(w, "</table></div>\n")
	}

	if len(p.Recommendations) > 0 {
		fmt.Fprintf(w, "<h2>Recommendations</h2>\n<div class=\"card\">\n")
		for _, rec := range p.Recommendations {
			label, class := "Low", "badge-low"
			switch rec.Priority {
			case PriorityHigh:
				label, class = "High", "badge-high"
			case PriorityMedium:
				label, class = "Medium", "badge-medium"
			}
			fmt.Fprintf(w, "<div class=\"rec\"><span class=\"badge %s\">%s</span> <strong>%s</strong><br>%s</div>\n",
				class, label, html.EscapeString(rec.Title), html.EscapeString(rec.Detail))
		}
		fmt.Fprintf(w, "</div>\n")
	}

	fmt.Fprintf(w, "<h2>Year by year</h2>\n<div class=\"card\"><table>\n")
	fmt.Fprintf(w, "<tr><th>Year</th><th>Age</th><th>Super</th><th>ETF</th><th>Property equity</th><th>Buffer</th><th>Tax</th><th>Withdrawn</th><th>Shortfall</th><th>Total</th></tr>\n")
	for i := 0; i < r.Len(); i++ {
		class := ""
		if r.Ages[i] == s.Person.RetirementAge {
			class = ` class="highlight"`
		}
		fmt.Fprintf(w, "<tr%s><td>%d</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>%s<td>%s</td></tr>\n",
			class, r.Years[i], r.Ages[i],
			FormatMoneyFull(r.SuperBalance[i]), FormatMoneyFull(r.ETFPortfolio[i]),
			FormatMoneyFull(r.PropertyEquity[i]), FormatMoneyFull(r.BufferBalance[i]),
			FormatMoneyFull(r.TaxPaid[i]), formatOrDash(r.Withdrawals[i]),
			shortfallCell(r.Shortfall[i]), FormatMoneyFull(r.TotalAssets[i]))
	}
	fmt.Fprintf(w, "</table></div>\n")

	writeHTMLFooter(w, p.CompletedAt)
	return nil
}

// WriteSensitivityHTML renders the return grid as a heatmap table
func WriteSensitivityHTML(w io.Writer, a *SensitivityAnalysis, generated time.Time) error {
	writeHTMLHead(w, "Return Sensitivity")
	fmt.Fprintf(w, "<h1>Return Sensitivity</h1>\n")
	fmt.Fprintf(w, "<p class=\"subtitle\">Assets at retirement for each pair of super (rows) and ETF (columns) returns</p>\n")

	lo, hi := a.assetRange()
	fmt.Fprintf(w, "<div class=\"card\"><table>\n<tr><th>Super \\ ETF</th>")
	for _, er := range a.ETFReturns {
		fmt.Fprintf(w, "<th>%s</th>", FormatPercent(er))
	}
	fmt.Fprintf(w, "</tr>\n")
	for si, sr := range a.SuperReturns {
		fmt.Fprintf(w, "<tr><td><strong>%s</strong></td>", FormatPercent(sr))
		for ei := range a.ETFReturns {
			c := a.Cells[si][ei]
			class := ""
			if !c.CanRetire {
				class = " negative"
			}
			fmt.Fprintf(w, "<td class=\"%s\" style=\"background:%s\">%s</td>", class, heatColor(c.AssetsAtRetire, lo, hi), FormatMoney(c.AssetsAtRetire))
		}
		fmt.Fprintf(w, "</tr>\n")
	}
	fmt.Fprintf(w, "</table></div>\n")
	fmt.Fprintf(w, "<p class=\"subtitle\">Red figures do not cover spending at retirement. %d projections in %dms.</p>\n",
		len(a.SuperReturns)*len(a.ETFReturns), a.DurationMs)

	writeHTMLFooter(w, generated)
	return nil
}

// GenerateHTMLReport writes a projection page to filename
func GenerateHTMLReport(s *FinancialSnapshot, p *Projection, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteProjectionHTML(f, s, p)
}

func (a *SensitivityAnalysis) assetRange() (lo, hi float64) {
	first := true
	for _, row := range a.Cells {
		for _, c := range row {
			if first || c.AssetsAtRetire < lo {
				lo = c.AssetsAtRetire
			}
			if first || c.AssetsAtRetire > hi {
				hi = c.AssetsAtRetire
			}
			first = false
		}
	}
	return lo, hi
}

// heatColor shades from red (lo) to green (hi)
func heatColor(v, lo, hi float64) string {
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	red := int(254 - t*(254-220))
	green := int(226 + t*(252-226))
	blue := int(226 - t*(226-231))
	return fmt.Sprintf("rgb(%d,%d,%d)", red, green, blue)
}

func writeMetric(w io.Writer, class, value, label string) {
	fmt.Fprintf(w, "<div class=\"metric %s\"><div class=\"metric-value\">%s</div><div class=\"metric-label\">%s</div></div>\n",
		class, html.EscapeString(value), html.EscapeString(label))
}

func writeKeyRow(w io.Writer, key, value string) {
	fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(key), html.EscapeString(value))
}

func moneyCell(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("<td class=\"negative\">%s</td>", FormatMoneyFull(amount))
	}
	return fmt.Sprintf("<td>%s</td>", FormatMoneyFull(amount))
}

func shortfallCell(amount float64) string {
	if amount > 0 {
		return fmt.Sprintf("<td class=\"negative\">%s</td>", FormatMoneyFull(amount))
	}
	return "<td>-</td>"
}

func formatOrDash(amount float64) string {
	if amount == 0 {
		return "-"
	}
	return FormatMoneyFull(amount)
}
