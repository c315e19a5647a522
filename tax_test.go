package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tax Calculation Validation Tests
//
// Reference: ATO resident tax rates 2024-25
// - $0 - $18,200: nil
// - $18,201 - $45,000: 16c for each $1 over $18,200
// - $45,001 - $135,000: $4,288 plus 30c for each $1 over $45,000
// - $135,001 - $190,000: $31,288 plus 37c for each $1 over $135,000
// - $190,001 and over: $51,638 plus 45c for each $1 over $190,000
// Medicare levy 2%, low income tax offset $700 phasing out to $66,667.

// tolerance for floating point comparisons ($0.01)
const taxTolerance = 0.01

func assertTaxEquals(t *testing.T, expected, actual float64, description string) {
	t.Helper()
	if math.Abs(expected-actual) > taxTolerance {
		t.Errorf("%s: expected $%.2f, got $%.2f (diff: $%.2f)",
			description, expected, actual, actual-expected)
	}
}

func testTaxConfig() *TaxConfig {
	tc := DefaultTaxConfig()
	return &tc
}

func TestCalculateTaxOnIncome_Brackets(t *testing.T) {
	bands := DefaultTaxConfig().Brackets
	tests := []struct {
		income      float64
		expectedTax float64
		description string
	}{
		{0, 0, "zero income"},
		{18200, 0, "exactly at tax-free threshold"},
		{30000, 1888, "(30000 - 18200) x 0.16"},
		{45000, 4288, "top of 16% bracket"},
		{75000, 13288, "4288 + 30000 x 0.30"},
		{135000, 31288, "top of 30% bracket"},
		{190000, 51638, "top of 37% bracket"},
		{200000, 56138, "51638 + 10000 x 0.45"},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assertTaxEquals(t, tc.expectedTax, CalculateTaxOnIncome(tc.income, bands), tc.description)
		})
	}
}

func TestComputeTaxBreakdown_ReferenceIncomes(t *testing.T) {
	tc := testTaxConfig()
	tests := []struct {
		gross       float64
		incomeTax   float64
		offset      float64
		medicare    float64
		total       float64
		description string
	}{
		{75000, 13288, 0, 1500, 14788, "middle income, no offset"},
		{40000, 3488, 640, 800, 3648, "offset partly phased out"},
		{200000, 56138, 0, 4000, 60138, "top bracket"},
		{20000, 288, 288, 0, 0, "offset limited to tax payable, below levy threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			b := ComputeTaxBreakdown(tc, tt.gross, 0)
			assertTaxEquals(t, tt.incomeTax, b.IncomeTax, "income tax")
			assertTaxEquals(t, tt.offset, b.LowIncomeOffset, "offset")
			assertTaxEquals(t, tt.medicare, b.MedicareLevy, "medicare")
			assertTaxEquals(t, tt.total, b.TotalTax, "total tax")
			assertTaxEquals(t, tt.gross-tt.total, b.NetIncome, "net income")
		})
	}
}

func TestComputeTaxBreakdown_NetEqualsGrossMinusTotal(t *testing.T) {
	tc := testTaxConfig()
	for income := 0.0; income <= 400000; income += 1234.56 {
		b := ComputeTaxBreakdown(tc, income, 0)
		require.GreaterOrEqual(t, b.TotalTax, 0.0, "income %.2f", income)
		require.Equal(t, b.GrossIncome-b.TotalTax, b.NetIncome, "income %.2f", income)
		assert.InDelta(t, b.NetIncome/12, b.MonthlyNet, 1e-9)
	}
}

func TestComputeTaxBreakdown_NonDecreasing(t *testing.T) {
	tc := testTaxConfig()
	prev := 0.0
	for income := 0.0; income <= 250000; income += 250 {
		total := ComputeTaxBreakdown(tc, income, 0).TotalTax
		if total < prev {
			t.Fatalf("tax decreased at income %.0f: %.2f < %.2f", income, total, prev)
		}
		prev = total
	}
}

func TestComputeTaxBreakdown_PretaxSuper(t *testing.T) {
	tc := testTaxConfig()

	b := ComputeTaxBreakdown(tc, 90000, 10000)
	assert.Equal(t, 80000.0, b.TaxableIncome)
	assertTaxEquals(t, 4288+35000*0.30, b.IncomeTax, "tax on 80,000 taxable")
	// The levy is charged on gross income
	assertTaxEquals(t, 1800, b.MedicareLevy, "levy on gross")

	b = ComputeTaxBreakdown(tc, 10000, 25000)
	assert.Equal(t, 0.0, b.TaxableIncome, "taxable income floors at zero")
	assert.Equal(t, 0.0, b.IncomeTax)
}

func TestComputeTaxBreakdown_EffectiveRate(t *testing.T) {
	tc := testTaxConfig()
	assert.Equal(t, 0.0, ComputeTaxBreakdown(tc, 0, 0).EffectiveTaxRate)
	assert.InDelta(t, 14788.0/75000.0, ComputeTaxBreakdown(tc, 75000, 0).EffectiveTaxRate, 1e-12)
}

func TestMedicareLevy_ShadeIn(t *testing.T) {
	tc := testTaxConfig()
	assert.Equal(t, 0.0, tc.CalculateMedicareLevy(27222))
	// 10c per dollar over the threshold until 2% of income is lower
	assert.InDelta(t, 277.8, tc.CalculateMedicareLevy(30000), 1e-6)
	assert.InDelta(t, 700, tc.CalculateMedicareLevy(35000), 1e-6)
}

func TestGetMarginalBracket(t *testing.T) {
	tc := testTaxConfig()

	assert.Nil(t, GetMarginalBracket(tc, 0))
	assert.Nil(t, GetMarginalBracket(tc, 18200))

	b := GetMarginalBracket(tc, 75000)
	require.NotNil(t, b)
	assert.Equal(t, 0.30, b.MarginalRate)
	assert.Equal(t, 45000.0, b.Lower)
	assert.Equal(t, 135000.0, b.Upper)
	assert.InDelta(t, 13288.0/75000.0, b.EffectiveRate, 1e-12)
	assert.Equal(t, "$45,001 to $135,000 at 30.0%", b.Label)

	top := GetMarginalBracket(tc, 500000)
	require.NotNil(t, top)
	assert.Equal(t, 0.45, top.MarginalRate)
	assert.Equal(t, "$190,001 and over at 45.0%", top.Label)
}

func TestGetMarginalRate(t *testing.T) {
	bands := DefaultTaxConfig().Brackets
	assert.Equal(t, 0.0, GetMarginalRate(10000, bands))
	assert.Equal(t, 0.16, GetMarginalRate(18200, bands))
	assert.Equal(t, 0.45, GetMarginalRate(1e7, bands))
}

func TestComputeMandatoryContribution(t *testing.T) {
	assert.InDelta(t, 9000, ComputeMandatoryContribution(75000, 0.12), 1e-9)
	assert.InDelta(t, 60000, ComputeMandatoryContribution(500000, 0.12), 1e-9, "no cap at this layer")
	assert.Equal(t, 0.0, ComputeMandatoryContribution(0, 0.12))
}

func TestComputeStudentLoanRepayment(t *testing.T) {
	tc := testTaxConfig()
	tests := []struct {
		income   float64
		expected float64
	}{
		{50000, 0},
		{54435, 544.35},
		{60000, 600},
		{100000, 5500},
		{200000, 20000},
	}
	for _, tt := range tests {
		assertTaxEquals(t, tt.expected, ComputeStudentLoanRepayment(tc, tt.income), "student loan")
	}
}

func TestTaxConfig_FallsBackToDefaults(t *testing.T) {
	empty := &TaxConfig{}
	assert.Len(t, empty.GetBrackets(), 5)
	assert.Equal(t, 18200.0, empty.GetTaxFreeThreshold())
	assert.NotEmpty(t, empty.GetStudentLoanBands())
}
