package main

import "math"

// VPW (Variable Percentage Withdrawal) withdraws the annuity payment that would
// exhaust the portfolio exactly at the planning horizon, recomputed every year.
// The rate therefore rises as the remaining horizon shortens.

// VPWRate returns the fraction of the portfolio to withdraw with yearsRemaining
// years left (including this one), assuming realReturn per year.
func VPWRate(yearsRemaining int, realReturn float64) float64 {
	if yearsRemaining <= 1 {
		return 1
	}
	n := float64(yearsRemaining)
	if math.Abs(realReturn) < 1e-9 {
		return 1 / n
	}
	// Payment at the start of each year: r / ((1+r) * (1 - (1+r)^-n))
	return realReturn / ((1 + realReturn) * (1 - math.Pow(1+realReturn, -n)))
}

// VPWState holds the optional floor and ceiling
type VPWState struct {
	RealReturn        float64
	InitialFloor      float64 // Annual, in retirement-start dollars
	CeilingMultiplier float64 // Maximum as a multiple of the floor
}

// NewVPWState creates a VPW state from the drawdown settings
func NewVPWState(dc *DrawdownConfig, realReturn float64) *VPWState {
	return &VPWState{
		RealReturn:        realReturn,
		InitialFloor:      math.Max(0, dc.VPWFloor),
		CeilingMultiplier: math.Max(0, dc.VPWCeiling),
	}
}

// CalculateWithdrawal sizes this year's withdrawal. inflationMultiplier is
// cumulative inflation since retirement and scales the floor.
func (v *VPWState) CalculateWithdrawal(liquid float64, yearsRemaining int, inflationMultiplier float64) float64 {
	if liquid <= 0 {
		return 0
	}
	amount := liquid * VPWRate(yearsRemaining, v.RealReturn)

	if v.InitialFloor > 0 {
		floor := v.InitialFloor * inflationMultiplier
		if amount < floor {
			amount = floor
		}
		if v.CeilingMultiplier > 0 {
			amount = math.Min(amount, floor*v.CeilingMultiplier)
		}
	}
	return amount
}
