package main

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStartYear = 2025

// referenceSnapshot is a 30-year accumulation with no inflation, wage growth or buffer target:
// super 8%, ETF 7%, salary 75,000 and living costs of 2,850 a month
func referenceSnapshot() FinancialSnapshot {
	return FinancialSnapshot{
		Version: SnapshotVersion,
		Person:  Person{CurrentAge: 30, RetirementAge: 59, LifeExpectancyAge: 59},
		IncomeExpense: IncomeExpense{
			AnnualSalary:    75000,
			MonthlyExpenses: 2850,
		},
		Superannuation: Superannuation{
			CurrentBalance:   50000,
			InvestmentOption: Balanced,
			GuaranteeRate:    0.12,
		},
		Portfolio: Portfolio{
			MonthlyContribution: 1000,
			AllocationPreset:    SingleFund,
		},
		Assumptions: Assumptions{
			SuperReturnByOption:   map[InvestmentOption]float64{Balanced: 0.08},
			ETFReturnByPreset:     map[AllocationPreset]float64{SingleFund: 0.07},
			PropertyGrowthDefault: 0.05,
		},
	}
}

func simulate(t *testing.T, cfg *Config, snap FinancialSnapshot) *SimulationResult {
	t.Helper()
	result, err := Simulate(context.Background(), cfg, testStartYear, snap)
	require.NoError(t, err)
	return result
}

func TestSimulate_EndToEndReference(t *testing.T) {
	cfg := testConfig(t)
	result := simulate(t, cfg, referenceSnapshot())

	require.Equal(t, 30, result.Len())
	assert.Equal(t, testStartYear, result.Years[0])
	assert.Equal(t, testStartYear+29, result.Years[29])
	assert.Equal(t, 30, result.Ages[0])
	assert.Equal(t, 59, result.Ages[29])

	// Employer contributions of 9,000 less 15% contributions tax, and 12,000 a year into the ETF
	superRef := 50000*math.Pow(1.08, 30) + 7650*1.08*(math.Pow(1.08, 30)-1)/0.08
	etfRef := 12000 * 1.07 * (math.Pow(1.07, 30) - 1) / 0.07

	assert.InDelta(t, superRef, result.SuperBalance[29], 0.01)
	assert.InDelta(t, etfRef, result.ETFPortfolio[29], 0.01)
	assert.InDelta(t, 2651955.23, result.TotalAssets[29], 0.05)

	for i := 0; i < result.Len(); i++ {
		assert.Equal(t, PhaseAccumulation, result.Phase[i])
		assert.Equal(t, 14788.0, result.TaxPaid[i])
		assert.Equal(t, 12000.0, result.ETFDeposits[i])
	}
	assert.Empty(t, result.ShortfallYears)
}

func TestSimulate_Deterministic(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Properties = []Property{investmentFixture()}
	snap.Assumptions.InflationRate = 0.025
	snap.IncomeExpense.WageGrowthRate = 0.03

	first := simulate(t, cfg, snap)
	second := simulate(t, cfg, snap)
	assert.Equal(t, first, second)
}

func TestSimulate_DoesNotModifyInput(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Properties = []Property{investmentFixture()}
	before := snap.Clone()

	simulate(t, cfg, snap)
	assert.Equal(t, before, snap)
}

func TestSimulate_ZeroGrowthZeroContributionsHoldsBalances(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.IncomeExpense = IncomeExpense{}
	snap.Superannuation.GuaranteeRate = 0
	snap.Portfolio.CurrentValue = 40000
	snap.Portfolio.MonthlyContribution = 0
	snap.Buffer = Buffer{CurrentBalance: 10000}
	snap.Assumptions.SuperReturnByOption[Balanced] = 0
	snap.Assumptions.ETFReturnByPreset[SingleFund] = 0
	snap.Properties = []Property{{
		ID:                     "home",
		Type:                   OwnerOccupied,
		CurrentValue:           700000,
		CustomAnnualGrowthRate: ptr(0.0),
	}}

	result := simulate(t, cfg, snap)

	for i := 0; i < result.Len(); i++ {
		assert.Equal(t, 50000.0, result.SuperBalance[i], "super year %d", i)
		assert.Equal(t, 40000.0, result.ETFPortfolio[i], "etf year %d", i)
		assert.Equal(t, 10000.0, result.BufferBalance[i], "buffer year %d", i)
		assert.Equal(t, 700000.0, result.PropertyEquity[i], "equity year %d", i)
	}
}

func TestSimulate_BufferFilledBeforeETF(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Buffer = Buffer{TargetMonths: 12}

	result := simulate(t, cfg, snap)

	// 26,012 of surplus in year one is short of the 34,200 target
	assert.InDelta(t, 26012, result.BufferBalance[0], 0.01)
	assert.Zero(t, result.ETFDeposits[0])
	assert.Zero(t, result.ETFPortfolio[0])

	// Year two tops the buffer up, then invests
	assert.InDelta(t, 34200, result.BufferBalance[1], 0.01)
	assert.Equal(t, 12000.0, result.ETFDeposits[1])
	assert.Greater(t, result.ETFPortfolio[1], 0.0)
}

func TestSimulate_ConcessionalCapLimitsDeduction(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Superannuation.MonthlySalarySacrifice = 2000

	result := simulate(t, cfg, snap)

	// Guarantee 9,000 leaves 21,000 of deductible room; 3,000 is over the cap
	expected := ComputeTaxBreakdown(&cfg.Tax, 75000, 21000)
	assert.Equal(t, expected.TotalTax, result.TaxPaid[0])
	assert.InDelta(t, 30000*0.85+3000, result.SuperDeposits[0], 0.001)
	assert.InDelta(t, expected.NetIncome-24000, result.NetIncome[0], 0.001)
}

func interestOnlySnapshot() FinancialSnapshot {
	snap := referenceSnapshot()
	snap.Properties = []Property{{
		ID:                     "io",
		Type:                   OwnerOccupied,
		CurrentValue:           500000,
		LoanBalance:            400000,
		InterestRate:           6,
		LoanType:               InterestOnly,
		RemainingTermYears:     2,
		CustomAnnualGrowthRate: ptr(0.0),
	}}
	return snap
}

func TestSimulate_InterestOnlyRevertsAtExpiry(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drawdown.InterestOnlyExpiry = InterestOnlyRevert

	result := simulate(t, cfg, interestOnlySnapshot())

	assert.Equal(t, 400000.0, result.LoanBalance[0])
	assert.Equal(t, 400000.0, result.LoanBalance[1])

	payment := ComputeAmortizedPayment(400000, 6, 25, PrincipalAndInterest)
	assert.InDelta(t, RemainingBalance(400000, 6, payment, 12), result.LoanBalance[2], 0.01)
	assert.Less(t, result.LoanBalance[3], result.LoanBalance[2])
}

func TestSimulate_InterestOnlyRefinanced(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drawdown.InterestOnlyExpiry = InterestOnlyRefinance

	result := simulate(t, cfg, interestOnlySnapshot())

	for i := 0; i < result.Len(); i++ {
		assert.Equal(t, 400000.0, result.LoanBalance[i], "year %d", i)
	}
}

func TestSimulate_UnderpaidLoanCarriesBalancePastTerm(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Properties = []Property{{
		ID:                     "short",
		Type:                   OwnerOccupied,
		CurrentValue:           500000,
		LoanBalance:            400000,
		InterestRate:           6,
		LoanType:               PrincipalAndInterest,
		RemainingTermYears:     5,
		MonthlyRepayment:       1000,
		CustomAnnualGrowthRate: ptr(0.0),
	}}

	result := simulate(t, cfg, snap)

	// 1,000 a month is below the 2,000 monthly interest, so the debt grows
	balance := 400000.0
	for i := 0; i < 5; i++ {
		balance = RemainingBalance(balance, 6, 1000, 12)
		assert.InDelta(t, balance, result.LoanBalance[i], 0.01, "year %d", i)
	}
	assert.Greater(t, result.LoanBalance[4], 400000.0)
	assert.InDelta(t, 500000-balance, result.PropertyEquity[4], 0.01)

	// The remaining balance is re-amortized rather than written off
	payment := ComputeAmortizedPayment(balance, 6, cfg.Drawdown.GetInterestOnlyRevertTermYears(), PrincipalAndInterest)
	assert.InDelta(t, RemainingBalance(balance, 6, payment, 12), result.LoanBalance[5], 0.01)
	last := result.Len() - 1
	for i := 5; i < last; i++ {
		assert.Greater(t, result.LoanBalance[i], 0.0, "year %d", i)
		assert.Less(t, result.PropertyEquity[i], 500000.0, "year %d", i)
	}
	// The new 25-year term ends in the final year
	assert.Zero(t, result.LoanBalance[last])
}

func TestPropertyState_RefinanceKeepsInterestOnlyTerm(t *testing.T) {
	dc := &DrawdownConfig{InterestOnlyExpiry: InterestOnlyRefinance, InterestOnlyRevertTermYears: 25}
	ps := newPropertyState(Property{
		Type:               OwnerOccupied,
		CurrentValue:       500000,
		LoanBalance:        400000,
		InterestRate:       6,
		LoanType:           InterestOnly,
		RemainingTermYears: 3,
	}, 0)

	for year := 0; year < 3; year++ {
		ps.advance(dc)
	}
	assert.Equal(t, InterestOnly, ps.loanType)
	assert.Equal(t, 3, ps.termLeft)
	assert.Equal(t, 400000.0, ps.loan)

	dc.InterestOnlyExpiry = InterestOnlyRevert
	for year := 0; year < 3; year++ {
		ps.advance(dc)
	}
	assert.Equal(t, PrincipalAndInterest, ps.loanType)
	assert.Equal(t, 25, ps.termLeft)
	assert.InDelta(t, ComputeAmortizedPayment(400000, 6, 25, PrincipalAndInterest), ps.repayment, 1e-9)
}

func TestSimulate_PrincipalAndInterestPaidOff(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Properties = []Property{{
		ID:                     "pi",
		Type:                   OwnerOccupied,
		CurrentValue:           300000,
		LoanBalance:            50000,
		InterestRate:           5,
		LoanType:               PrincipalAndInterest,
		RemainingTermYears:     5,
		CustomAnnualGrowthRate: ptr(0.0),
	}}

	result := simulate(t, cfg, snap)

	for i := 1; i < 5; i++ {
		assert.Less(t, result.LoanBalance[i], result.LoanBalance[i-1])
	}
	assert.Zero(t, result.LoanBalance[4])
	assert.Equal(t, 300000.0, result.PropertyEquity[5])
}

// drawdownSnapshot retires at 56 with zero returns, so withdrawals are easy to follow
func drawdownSnapshot() FinancialSnapshot {
	return FinancialSnapshot{
		Version: SnapshotVersion,
		Person:  Person{CurrentAge: 55, RetirementAge: 56, LifeExpectancyAge: 65},
		IncomeExpense: IncomeExpense{
			AnnualSalary:    80000,
			MonthlyExpenses: 2000,
		},
		Superannuation: Superannuation{
			CurrentBalance:   200000,
			InvestmentOption: Balanced,
			GuaranteeRate:    0.12,
		},
		Portfolio: Portfolio{
			CurrentValue:     20000,
			AllocationPreset: SingleFund,
		},
		Assumptions: Assumptions{
			SuperReturnByOption: map[InvestmentOption]float64{Balanced: 0},
			ETFReturnByPreset:   map[AllocationPreset]float64{SingleFund: 0},
		},
	}
}

func TestSimulate_DrawdownRespectsPreservationAge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drawdown.Policy = DrawdownExpenses

	result := simulate(t, cfg, drawdownSnapshot())
	require.Equal(t, 11, result.Len())

	assert.Equal(t, PhaseAccumulation, result.Phase[1])
	assert.Equal(t, PhaseDrawdown, result.Phase[2])

	// Two years of 8,160 net employer contributions
	assert.InDelta(t, 216320, result.SuperBalance[1], 0.001)

	// Age 57: the ETF covers 20,000 of 24,000; super is preserved until 60
	assert.InDelta(t, 4000, result.Shortfall[2], 0.001)
	assert.InDelta(t, 24000, result.Shortfall[3], 0.001)
	assert.InDelta(t, 24000, result.Shortfall[4], 0.001)
	assert.InDelta(t, 216320, result.SuperBalance[4], 0.001)

	// Age 60: super funds spending
	assert.Zero(t, result.Shortfall[5])
	assert.InDelta(t, 192320, result.SuperBalance[5], 0.001)

	assert.Equal(t, []int{testStartYear + 2, testStartYear + 3, testStartYear + 4}, result.ShortfallYears)

	m := Summarize(cfg, ptr(drawdownSnapshot()), result)
	require.NotNil(t, m.FirstShortfallAge)
	assert.Equal(t, 57, *m.FirstShortfallAge)
}

func TestSimulate_FixedPercentageDrawdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drawdown.Policy = DrawdownFixedPercentage
	cfg.Drawdown.FixedRate = 0.04

	snap := drawdownSnapshot()
	snap.Person.CurrentAge = 60
	snap.Person.RetirementAge = 61
	snap.Person.LifeExpectancyAge = 63

	result := simulate(t, cfg, snap)

	liquid := result.SuperBalance[1] + result.ETFPortfolio[1] + result.BufferBalance[1]
	assert.InDelta(t, liquid*0.04, result.Withdrawals[2], 0.001)

	// 4% of liquid assets does not cover 24,000 of spending
	assert.InDelta(t, 24000-result.Withdrawals[2], result.Shortfall[2], 0.001)
	assert.Contains(t, result.ShortfallYears, testStartYear+2)
}

func TestSimulate_DefaultPolicyReportsUnfundedSpending(t *testing.T) {
	cfg := testConfig(t)
	snap := drawdownSnapshot()
	snap.Person = Person{CurrentAge: 64, RetirementAge: 65, LifeExpectancyAge: 75}
	snap.IncomeExpense.AnnualSalary = 0
	snap.IncomeExpense.MonthlyExpenses = 5000
	snap.Superannuation.CurrentBalance = 10000
	snap.Portfolio.CurrentValue = 0

	result := simulate(t, cfg, snap)
	require.Equal(t, DrawdownFixedPercentage, cfg.Drawdown.GetPolicy())
	require.Equal(t, PhaseDrawdown, result.Phase[2])

	for i := 2; i < result.Len(); i++ {
		assert.Greater(t, result.Shortfall[i], 0.0, "age %d", result.Ages[i])
		assert.LessOrEqual(t, result.Withdrawals[i]+result.Shortfall[i], 60000.0+0.001)
	}
	assert.NotEmpty(t, result.ShortfallYears)

	m := Summarize(cfg, &snap, result)
	assert.False(t, m.CanRetire)
	require.NotNil(t, m.FirstShortfallAge)
	assert.LessOrEqual(t, *m.FirstShortfallAge, 66)

	ids := make([]string, 0)
	for _, r := range Recommend(cfg, &snap, result, m) {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, "drawdown-depletion")
}

func TestSimulate_RejectsInvalidSnapshot(t *testing.T) {
	cfg := testConfig(t)
	snap := referenceSnapshot()
	snap.Person.RetirementAge = 25

	result, err := Simulate(context.Background(), cfg, testStartYear, snap)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
	assert.Contains(t, err.Error(), "person.retirementAge")
}

func TestSimulate_StopsWhenCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Simulate(ctx, cfg, testStartYear, referenceSnapshot())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func ptr[T any](v T) *T {
	return &v
}
