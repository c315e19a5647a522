package main

import "math"

// drawdownYear is what a policy sees at the start of a retirement year
type drawdownYear struct {
	Age                 int
	YearsRemaining      int     // Including this year
	Liquid              float64 // Super + ETF + buffer
	Required            float64 // Spending the pools must fund this year
	Inflation           float64
	InflationMultiplier float64 // Cumulative since the first drawdown year
}

// drawdownPolicy sizes the withdrawal for one retirement year. Policies may keep
// state across years, so each simulation builds its own.
type drawdownPolicy interface {
	Withdrawal(d drawdownYear) float64
}

type fixedPercentagePolicy struct {
	rate float64
}

func (p fixedPercentagePolicy) Withdrawal(d drawdownYear) float64 {
	return math.Max(0, d.Liquid) * p.rate
}

type expensesPolicy struct{}

func (expensesPolicy) Withdrawal(d drawdownYear) float64 {
	return d.Required
}

type guardrailsPolicy struct {
	state *GuardrailsState
}

func (p *guardrailsPolicy) Withdrawal(d drawdownYear) float64 {
	if !p.state.Initialized() {
		p.state.Initialize(d.Liquid, d.Required)
		return d.Required
	}
	return p.state.NextWithdrawal(d.Liquid, d.Inflation)
}

type vpwPolicy struct {
	state *VPWState
}

func (p *vpwPolicy) Withdrawal(d drawdownYear) float64 {
	return p.state.CalculateWithdrawal(d.Liquid, d.YearsRemaining, d.InflationMultiplier)
}

// newDrawdownPolicy builds the configured policy. realReturn feeds VPW.
func newDrawdownPolicy(dc *DrawdownConfig, realReturn float64) drawdownPolicy {
	switch dc.GetPolicy() {
	case DrawdownExpenses:
		return expensesPolicy{}
	case DrawdownGuardrails:
		return &guardrailsPolicy{state: NewGuardrailsState(dc)}
	case DrawdownVPW:
		return &vpwPolicy{state: NewVPWState(dc, realReturn)}
	default:
		return fixedPercentagePolicy{rate: dc.GetFixedRate()}
	}
}

// withdrawalPools are the balances a withdrawal draws from, in order
type withdrawalPools struct {
	etf, super, buffer *float64
	superAccessible    bool
}

// draw takes amount from ETF, then super (once accessible), then the buffer.
// Returns the part that could not be covered.
func (wp withdrawalPools) draw(amount float64) float64 {
	remaining := amount
	take := func(pool *float64) {
		if remaining <= 0 || *pool <= 0 {
			return
		}
		t := math.Min(*pool, remaining)
		*pool -= t
		remaining -= t
	}
	take(wp.etf)
	if wp.superAccessible {
		take(wp.super)
	}
	take(wp.buffer)
	if remaining < 0.005 {
		return 0
	}
	return remaining
}
