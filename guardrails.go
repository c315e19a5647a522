package main

// GuardrailsState tracks a Guyton-Klinger withdrawal through retirement
type GuardrailsState struct {
	InitialWithdrawalRate float64 // First-year withdrawal / liquid assets
	CurrentWithdrawal     float64
	UpperLimit            float64 // e.g. 1.20 = cut spending when the rate is 120% of the initial rate
	LowerLimit            float64 // e.g. 0.80 = raise spending when the rate is 80% of the initial rate
	AdjustmentRate        float64
	LastTrigger           int // -1 cut, 0 none, 1 raise
}

// NewGuardrailsState creates guardrails from the drawdown settings
func NewGuardrailsState(dc *DrawdownConfig) *GuardrailsState {
	upper := dc.GuardrailsUpperLimit
	if upper <= 0 {
		upper = 1.20
	}
	lower := dc.GuardrailsLowerLimit
	if lower <= 0 {
		lower = 0.80
	}
	adjustment := dc.GuardrailsAdjustment
	if adjustment <= 0 {
		adjustment = 0.10
	}
	return &GuardrailsState{UpperLimit: upper, LowerLimit: lower, AdjustmentRate: adjustment}
}

// Initialize records the first drawdown year
func (g *GuardrailsState) Initialize(liquid, withdrawal float64) {
	g.CurrentWithdrawal = withdrawal
	if liquid > 0 {
		g.InitialWithdrawalRate = withdrawal / liquid
	}
}

// Initialized reports whether the first drawdown year has been recorded
func (g *GuardrailsState) Initialized() bool {
	return g.CurrentWithdrawal > 0 || g.InitialWithdrawalRate > 0
}

// NextWithdrawal inflates last year's withdrawal and applies the guardrails against current liquid assets
func (g *GuardrailsState) NextWithdrawal(liquid, inflation float64) float64 {
	w := g.CurrentWithdrawal * (1 + inflation)
	g.LastTrigger = 0

	if g.InitialWithdrawalRate > 0 && liquid > 0 {
		ratio := (w / liquid) / g.InitialWithdrawalRate
		switch {
		case ratio > g.UpperLimit:
			w *= 1 - g.AdjustmentRate
			g.LastTrigger = -1
		case ratio < g.LowerLimit:
			w *= 1 + g.AdjustmentRate
			g.LastTrigger = 1
		}
	}

	g.CurrentWithdrawal = w
	return w
}
