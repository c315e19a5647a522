package main

import "math"

// PropertyMetrics are the derived figures for one property
type PropertyMetrics struct {
	PropertyID       string  `json:"propertyId"`
	Name             string  `json:"name"`
	Equity           float64 `json:"equity"`
	LoanToValue      float64 `json:"loanToValue"`
	AnnualRent       float64 `json:"annualRent"`
	AnnualExpenses   float64 `json:"annualExpenses"`
	AnnualInterest   float64 `json:"annualInterest"`
	GrossYield       float64 `json:"grossYield"`
	NetYield         float64 `json:"netYield"`
	MonthlyCashFlow  float64 `json:"monthlyCashFlow"`
	MonthlyRepayment float64 `json:"monthlyRepayment"`
}

// AnnualRent returns gross rent for a full year, zero for owner-occupied property
func (p *Property) AnnualRent() float64 {
	if !p.IsInvestment() {
		return 0
	}
	return math.Max(0, p.WeeklyRent) * 52
}

// AnnualExpenses returns management, vacancy and fixed holding costs for an investment property
func (p *Property) AnnualExpenses() float64 {
	if !p.IsInvestment() {
		return 0
	}
	rent := p.AnnualRent()
	return p.ManagementFeePercent/100*rent +
		p.VacancyWeeksPerYear/52*rent +
		p.AnnualCouncilRates + p.AnnualInsurance + p.AnnualMaintenance
}

// AnnualInterest returns a year of interest on the current balance
func (p *Property) AnnualInterest() float64 {
	return p.LoanBalance * p.InterestRate / 100
}

// ComputePropertyMetrics derives equity, LVR, yields and cash flow. Equity is reported
// floored at zero even when the loan exceeds the value.
func ComputePropertyMetrics(p Property) PropertyMetrics {
	m := PropertyMetrics{
		PropertyID:       p.ID,
		Name:             p.Name,
		Equity:           math.Max(0, p.CurrentValue-p.LoanBalance),
		AnnualRent:       p.AnnualRent(),
		AnnualExpenses:   p.AnnualExpenses(),
		AnnualInterest:   p.AnnualInterest(),
		MonthlyRepayment: p.GetMonthlyRepayment(),
	}
	m.MonthlyCashFlow = (m.AnnualRent - m.AnnualExpenses - m.AnnualInterest) / 12

	if p.CurrentValue > 0 {
		m.LoanToValue = p.LoanBalance / p.CurrentValue
		m.GrossYield = m.AnnualRent / p.CurrentValue
		m.NetYield = (m.AnnualRent - m.AnnualExpenses) / p.CurrentValue
	}
	return m
}

// ComputeAllPropertyMetrics returns metrics in property order
func ComputeAllPropertyMetrics(properties []Property) []PropertyMetrics {
	out := make([]PropertyMetrics, len(properties))
	for i, p := range properties {
		out[i] = ComputePropertyMetrics(p)
	}
	return out
}

// netRentalIncome returns annual rent less holding expenses, before interest
func (p *Property) netRentalIncome() float64 {
	return p.AnnualRent() - p.AnnualExpenses()
}
