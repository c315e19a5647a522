package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTaxBreakdown(t *testing.T) {
	tc := DefaultTaxConfig()
	var buf bytes.Buffer
	PrintTaxBreakdown(&buf, ComputeTaxBreakdown(&tc, 75000, 0), GetMarginalBracket(&tc, 75000))

	out := buf.String()
	assert.Contains(t, out, "$75,000")
	assert.Contains(t, out, "$14,788")
	assert.Contains(t, out, "Marginal bracket:")
	assert.NotContains(t, out, "tax-free threshold")
}

func TestPrintProjection(t *testing.T) {
	snap := referenceSnapshot()
	p := testProjection(t, snap)

	var buf bytes.Buffer
	PrintHeader(&buf, &snap)
	PrintProjection(&buf, &snap, p)
	out := buf.String()

	assert.Contains(t, out, "RETIREMENT PROJECTION")
	assert.Contains(t, out, "Age 30, retiring at 59, planning to age 59")
	assert.Contains(t, out, "Can retire at 59: YES")
	assert.Contains(t, out, "Recommendations:")
	// First and last year are always shown
	assert.Contains(t, out, "2025 ")
	assert.Contains(t, out, "2054 ")
}

func TestPrintScenarios(t *testing.T) {
	var buf bytes.Buffer
	PrintScenarios(&buf, nil)
	assert.Equal(t, "No saved scenarios\n", buf.String())

	buf.Reset()
	PrintScenarios(&buf, []Scenario{{ID: "abc", Name: strings.Repeat("x", 40), LastModified: testNow}})
	out := buf.String()
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "2025-07-01 09:00")
	assert.NotContains(t, out, strings.Repeat("x", 25))
}

func TestPrintSustainableSpending(t *testing.T) {
	var buf bytes.Buffer
	PrintSustainableSpending(&buf, &SpendingResult{MonthlySpending: 2500, AnnualSpending: 30000, Headroom: -500, AssetsAtEnd: 12})
	out := buf.String()
	assert.Contains(t, out, "$2,500/month ($30,000/year)")
	assert.Contains(t, out, "$500/month below current spending")
}
