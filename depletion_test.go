package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spendingSnapshot has 240,000 of super and nine retirement years with zero returns
func spendingSnapshot() FinancialSnapshot {
	snap := drawdownSnapshot()
	snap.Person = Person{CurrentAge: 60, RetirementAge: 61, LifeExpectancyAge: 70}
	snap.Superannuation.CurrentBalance = 240000
	snap.Superannuation.GuaranteeRate = 0
	snap.Portfolio.CurrentValue = 0
	return snap
}

func TestFindSustainableSpending(t *testing.T) {
	engine := NewEngine(testConfig(t), FixedClock{T: testNow})

	res, err := engine.FindSustainableSpending(context.Background(), spendingSnapshot())
	require.NoError(t, err)

	// 240,000 over 108 months
	assert.InDelta(t, 2222.22, res.MonthlySpending, 1.0)
	assert.LessOrEqual(t, res.MonthlySpending, 2222.23)
	assert.InDelta(t, res.MonthlySpending*12, res.AnnualSpending, 1e-9)
	assert.Equal(t, 2000.0, res.CurrentSpending)
	assert.InDelta(t, res.MonthlySpending-2000, res.Headroom, 1e-9)
	assert.Empty(t, res.SimulationResult.ShortfallYears)
	assert.Less(t, res.Iterations, spendingMaxIterations)
}

func TestFindSustainableSpending_IgnoresConfiguredPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drawdown.Policy = DrawdownFixedPercentage
	engine := NewEngine(cfg, FixedClock{T: testNow})

	res, err := engine.FindSustainableSpending(context.Background(), spendingSnapshot())
	require.NoError(t, err)
	assert.InDelta(t, 2222.22, res.MonthlySpending, 1.0)
	assert.Equal(t, DrawdownFixedPercentage, cfg.Drawdown.Policy)
}

func TestFindSustainableSpending_RentAloneFails(t *testing.T) {
	engine := NewEngine(testConfig(t), FixedClock{T: testNow})
	snap := spendingSnapshot()
	snap.Superannuation.CurrentBalance = 0
	snap.IncomeExpense.IsRenting = true
	snap.IncomeExpense.MonthlyRent = 2000

	res, err := engine.FindSustainableSpending(context.Background(), snap)
	require.NoError(t, err)
	assert.Zero(t, res.MonthlySpending)
	assert.NotEmpty(t, res.SimulationResult.ShortfallYears)
}

func TestFindSustainableSpending_InvalidSnapshot(t *testing.T) {
	engine := NewEngine(testConfig(t), nil)
	snap := spendingSnapshot()
	snap.Version = 99

	_, err := engine.FindSustainableSpending(context.Background(), snap)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}
