package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_ReferenceScenario(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	result := simulate(t, cfg, snap)

	m := Summarize(cfg, &snap, result)

	assert.True(t, m.CanRetire)
	assert.Equal(t, result.TotalAssets[29], m.FinalAssets)
	assert.InDelta(t, m.FinalAssets*0.04, m.FinalAnnualIncome, 1e-6)
	assert.InDelta(t, m.FinalAnnualIncome/12, m.FinalMonthlyIncome, 1e-6)
	assert.Equal(t, 34200.0, m.RequiredAnnualExpenses)
	assert.Zero(t, m.Shortfall)
	assert.InDelta(t, m.FinalAnnualIncome/34200*100, m.IncomeReplacementPercent, 1e-6)

	assert.Equal(t, result.SuperBalance[29], m.AssetBreakdown.Super)
	assert.Equal(t, result.ETFPortfolio[29], m.AssetBreakdown.ETF)
	assert.Zero(t, m.AssetBreakdown.PropertyEquity)

	require.NotNil(t, m.ProjectedRetirementAge)
	assert.Equal(t, 46, *m.ProjectedRetirementAge)
	assert.Nil(t, m.FirstShortfallAge)
	assert.Equal(t, m.FinalAssets, m.AssetsAtLifeExpectancy)
}

func TestSummarize_Shortfall(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Person = Person{CurrentAge: 60, RetirementAge: 61, LifeExpectancyAge: 62}
	snap.IncomeExpense.MonthlyExpenses = 2500

	result := &SimulationResult{
		Ages:           []int{60, 61, 62},
		Phase:          []string{PhaseAccumulation, PhaseAccumulation, PhaseDrawdown},
		TotalAssets:    []float64{450000, 500000, 480000},
		SuperBalance:   []float64{300000, 350000, 330000},
		ETFPortfolio:   []float64{150000, 150000, 150000},
		PropertyEquity: []float64{0, 0, 0},
		BufferBalance:  []float64{0, 0, 0},
		Shortfall:      []float64{0, 0, 0},
	}
	result.Years = []int{2025, 2026, 2027}

	m := Summarize(cfg, &snap, result)

	assert.False(t, m.CanRetire)
	assert.Equal(t, 500000.0, m.FinalAssets)
	assert.Equal(t, 30000.0, m.RequiredAnnualExpenses)
	assert.InDelta(t, 10000, m.Shortfall, 1e-9)
	assert.Nil(t, m.ProjectedRetirementAge)
	assert.Equal(t, 480000.0, m.AssetsAtLifeExpectancy)
}

func TestSummarize_EmptyResult(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()

	assert.Equal(t, Metrics{}, Summarize(cfg, &snap, nil))
	assert.Equal(t, Metrics{}, Summarize(cfg, &snap, &SimulationResult{}))
}

func recommendationIDs(recs []Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func TestRecommend_ReferenceScenario(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	result := simulate(t, cfg, snap)
	m := Summarize(cfg, &snap, result)

	recs := Recommend(cfg, &snap, result, m)

	assert.Equal(t, []string{"concessional-cap-room", "earlier-retirement"}, recommendationIDs(recs))
	assert.Equal(t, 21000.0, recs[0].Amount)
}

func TestRecommend_OrderedByPriority(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Superannuation.MonthlySalarySacrifice = 2000
	snap.Buffer = Buffer{TargetMonths: 3}
	snap.IncomeExpense.HasStudentLoan = true
	property := investmentFixture()
	property.LoanBalance = 540000
	snap.Properties = []Property{property}

	m := Metrics{Shortfall: 5000, FirstShortfallAge: ptr(70)}
	recs := Recommend(cfg, &snap, &SimulationResult{}, m)

	assert.Equal(t, []string{
		"savings-rate",
		"emergency-buffer",
		"concessional-cap-exceeded",
		"drawdown-depletion",
		"negative-cash-flow",
		"high-lvr",
		"student-loan",
	}, recommendationIDs(recs))

	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Priority, recs[i].Priority)
	}

	byID := make(map[string]Recommendation, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	assert.Equal(t, 3000.0, byID["concessional-cap-exceeded"].Amount)
	assert.Equal(t, 8550.0, byID["emergency-buffer"].Amount)
	assert.InDelta(t, requiredMonthlySaving(125000, 0.07, 30), byID["savings-rate"].Amount, 1e-9)
	assert.InDelta(t, 60000, byID["high-lvr"].Amount, 1e-9)
}

func TestRequiredMonthlySaving(t *testing.T) {
	tests := []struct {
		name     string
		target   float64
		rate     float64
		years    int
		expected float64
	}{
		{"zero rate", 120000, 0, 10, 1000},
		{"no target", 0, 0.07, 10, 0},
		{"no time", 1000, 0.07, 0, 0},
		{"compounding", 10000, 0.10, 1, 10000.0 / 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, requiredMonthlySaving(tt.target, tt.rate, tt.years), 1e-9)
		})
	}
}
