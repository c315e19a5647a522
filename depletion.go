package main

import (
	"context"
	"fmt"
	"log"
	"math"
)

// SpendingResult is the highest monthly spending the plan can fund to life expectancy
type SpendingResult struct {
	MonthlySpending  float64           `json:"monthlySpending"` // Today's dollars
	AnnualSpending   float64           `json:"annualSpending"`
	CurrentSpending  float64           `json:"currentSpending"`
	Headroom         float64           `json:"headroom"` // MonthlySpending less current spending
	AssetsAtEnd      float64           `json:"assetsAtLifeExpectancy"`
	Iterations       int               `json:"iterations"`
	SimulationResult *SimulationResult `json:"result"`
}

const (
	spendingTolerance     = 1.0 // Dollars a month
	spendingMaxIterations = 100
	spendingCeiling       = 1e7
)

// sustainable reports whether spending can be funded every year without a shortfall
func sustainable(r *SimulationResult) bool {
	return len(r.ShortfallYears) == 0
}

// FindSustainableSpending uses binary search to find the monthly living cost, applied
// in every year and inflated like the snapshot's expenses, that never runs short. Drawdown
// withdrawals follow spending for the search regardless of the configured policy.
func (e *Engine) FindSustainableSpending(ctx context.Context, snap FinancialSnapshot) (*SpendingResult, error) {
	if err := ValidateSnapshot(&snap, e.cfg.Projection.GetMaxYears()); err != nil {
		return nil, err
	}
	cfg := *e.cfg
	cfg.Drawdown.Policy = DrawdownExpenses
	startYear := cfg.Projection.GetStartYear(e.clock.Now())

	run := func(monthly float64) (*SimulationResult, error) {
		s := snap.Clone()
		s.IncomeExpense.MonthlyExpenses = monthly
		return Simulate(ctx, &cfg, startYear, s)
	}

	low, high := 0.0, 1000.0
	iterations := 0

	best, err := run(low)
	if err != nil {
		return nil, err
	}
	if !sustainable(best) {
		// Housing costs alone already run short
		return e.spendingResult(snap, 0, best, 1), nil
	}

	// Grow the upper bound until it fails
	for {
		iterations++
		r, err := run(high)
		if err != nil {
			return nil, err
		}
		if !sustainable(r) {
			break
		}
		low, best = high, r
		if high >= spendingCeiling {
			return e.spendingResult(snap, high, best, iterations), nil
		}
		high = math.Min(high*2, spendingCeiling)
	}

	for high-low > spendingTolerance && iterations < spendingMaxIterations {
		iterations++
		mid := (low + high) / 2
		r, err := run(mid)
		if err != nil {
			return nil, fmt.Errorf("sustainable spending at %s: %w", FormatMoneyFull(mid), err)
		}
		if sustainable(r) {
			low, best = mid, r
		} else {
			high = mid
		}
	}

	return e.spendingResult(snap, low, best, iterations), nil
}

func (e *Engine) spendingResult(snap FinancialSnapshot, monthly float64, r *SimulationResult, iterations int) *SpendingResult {
	monthly = roundCents(monthly)
	res := &SpendingResult{
		MonthlySpending:  monthly,
		AnnualSpending:   monthly * 12,
		CurrentSpending:  snap.IncomeExpense.MonthlyExpenses,
		Headroom:         monthly - snap.IncomeExpense.MonthlyExpenses,
		Iterations:       iterations,
		SimulationResult: r,
	}
	if n := r.Len(); n > 0 {
		res.AssetsAtEnd = r.TotalAssets[n-1]
	}
	log.Printf("sustainable spending %s/month after %d iterations", FormatMoneyFull(monthly), iterations)
	return res
}
