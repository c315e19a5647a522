package main

import "math"

// requiredAnnualSpending returns living costs (and rent) for simulation year index i
func requiredAnnualSpending(s *FinancialSnapshot, i int) float64 {
	annual := s.IncomeExpense.MonthlyExpenses * 12
	if s.IncomeExpense.IsRenting {
		annual += s.IncomeExpense.MonthlyRent * 12
	}
	return annual * math.Pow(1+s.Assumptions.InflationRate, float64(i))
}

// Summarize reduces a simulation to retirement-readiness metrics. Readiness is judged at the
// retirement milestone: the last working year, which is also the final simulated year when
// retirement age equals life expectancy.
func Summarize(cfg *Config, s *FinancialSnapshot, r *SimulationResult) Metrics {
	var m Metrics
	if r == nil || r.Len() == 0 {
		return m
	}
	swr := cfg.Projection.GetSafeWithdrawalRate()

	idx := r.IndexOfAge(s.Person.RetirementAge)
	if idx < 0 {
		idx = r.Len() - 1
	}

	m.FinalAssets = r.TotalAssets[idx]
	m.FinalAnnualIncome = m.FinalAssets * swr
	m.FinalMonthlyIncome = m.FinalAnnualIncome / 12
	m.RequiredAnnualExpenses = requiredAnnualSpending(s, idx)
	m.CanRetire = m.FinalAnnualIncome >= m.RequiredAnnualExpenses
	m.Shortfall = math.Max(0, m.RequiredAnnualExpenses-m.FinalAnnualIncome)

	if current := requiredAnnualSpending(s, 0); current > 0 {
		m.IncomeReplacementPercent = m.FinalAnnualIncome / current * 100
	}

	m.AssetBreakdown = AssetBreakdown{
		Super:          r.SuperBalance[idx],
		ETF:            r.ETFPortfolio[idx],
		PropertyEquity: r.PropertyEquity[idx],
		Buffer:         r.BufferBalance[idx],
	}

	for i := 0; i < r.Len() && r.Phase[i] == PhaseAccumulation; i++ {
		if r.TotalAssets[i]*swr >= requiredAnnualSpending(s, i) {
			age := r.Ages[i]
			m.ProjectedRetirementAge = &age
			break
		}
	}

	m.AssetsAtLifeExpectancy = r.TotalAssets[r.Len()-1]
	for i, short := range r.Shortfall {
		if short > 0 {
			age := r.Ages[i]
			m.FirstShortfallAge = &age
			break
		}
	}
	return m
}
