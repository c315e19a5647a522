package main

import (
	"fmt"
	"math"
)

// TaxBreakdown is the personal tax position for one year of income
type TaxBreakdown struct {
	GrossIncome      float64 `json:"grossIncome"`
	TaxableIncome    float64 `json:"taxableIncome"`
	IncomeTax        float64 `json:"incomeTax"`
	MedicareLevy     float64 `json:"medicareLevy"`
	LowIncomeOffset  float64 `json:"lowIncomeOffset"`
	TotalTax         float64 `json:"totalTax"`
	NetIncome        float64 `json:"netIncome"`
	MonthlyNet       float64 `json:"monthlyNet"`
	EffectiveTaxRate float64 `json:"effectiveTaxRate"`
}

// MarginalBracket describes the bracket an income falls into
type MarginalBracket struct {
	Name          string  `json:"name"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"` // 0 = no upper limit
	MarginalRate  float64 `json:"marginalRate"`
	EffectiveRate float64 `json:"effectiveRate"`
	Label         string  `json:"label"`
}

func (b TaxBand) upperBound() float64 {
	if b.Upper <= 0 {
		return math.Inf(1)
	}
	return b.Upper
}

// CalculateTaxOnIncome applies the marginal brackets to a taxable income
func CalculateTaxOnIncome(income float64, bands []TaxBand) float64 {
	if income <= 0 {
		return 0
	}

	var totalTax float64
	for _, band := range bands {
		if income <= band.Lower {
			break
		}
		taxableInBand := math.Min(income, band.upperBound()) - band.Lower
		if taxableInBand > 0 {
			totalTax += taxableInBand * band.Rate
		}
	}
	return totalTax
}

// GetMarginalRate returns the rate that applies to the next dollar above income
func GetMarginalRate(income float64, bands []TaxBand) float64 {
	for _, band := range bands {
		if income >= band.Lower && income < band.upperBound() {
			return band.Rate
		}
	}
	if len(bands) > 0 {
		return bands[len(bands)-1].Rate
	}
	return 0
}

// CalculateLowIncomeOffset returns the offset available before it is limited to the tax payable.
// The full amount applies up to PhaseOutStart and reduces linearly to zero at Cutoff.
func (tc *TaxConfig) CalculateLowIncomeOffset(taxable float64) float64 {
	o := tc.LowIncomeOffset
	if o.Max <= 0 || taxable >= o.Cutoff {
		return 0
	}
	if taxable <= o.PhaseOutStart || o.Cutoff <= o.PhaseOutStart {
		return o.Max
	}
	return o.Max * (o.Cutoff - taxable) / (o.Cutoff - o.PhaseOutStart)
}

// CalculateMedicareLevy charges the levy on gross income with the low-income shade-in
func (tc *TaxConfig) CalculateMedicareLevy(gross float64) float64 {
	m := tc.Medicare
	if gross <= m.LowIncomeThreshold || m.Rate <= 0 {
		return 0
	}
	levy := gross * m.Rate
	if m.ShadeInRate > 0 {
		levy = math.Min(levy, (gross-m.LowIncomeThreshold)*m.ShadeInRate)
	}
	return levy
}

// ComputeTaxBreakdown computes income tax, levy and offset for a year's gross salary.
// Pre-tax super contributions reduce taxable income but not the levy base.
func ComputeTaxBreakdown(tc *TaxConfig, gross, pretaxSuper float64) TaxBreakdown {
	if gross < 0 {
		gross = 0
	}
	taxable := math.Max(0, gross-math.Max(0, pretaxSuper))

	incomeTax := roundCents(CalculateTaxOnIncome(taxable, tc.GetBrackets()))
	offset := math.Min(roundCents(tc.CalculateLowIncomeOffset(taxable)), incomeTax)
	levy := roundCents(tc.CalculateMedicareLevy(gross))
	total := roundCents(incomeTax - offset + levy)

	net := gross - total
	breakdown := TaxBreakdown{
		GrossIncome:     gross,
		TaxableIncome:   taxable,
		IncomeTax:       incomeTax,
		MedicareLevy:    levy,
		LowIncomeOffset: offset,
		TotalTax:        total,
		NetIncome:       net,
		MonthlyNet:      net / 12,
	}
	if gross > 0 {
		breakdown.EffectiveTaxRate = total / gross
	}
	return breakdown
}

// GetMarginalBracket returns the bracket containing income, or nil inside the tax-free threshold
func GetMarginalBracket(tc *TaxConfig, income float64) *MarginalBracket {
	if income <= tc.GetTaxFreeThreshold() {
		return nil
	}
	for _, band := range tc.GetBrackets() {
		if income <= band.Lower || income > band.upperBound() {
			continue
		}
		b := &MarginalBracket{
			Name:          band.Name,
			Lower:         band.Lower,
			Upper:         band.Upper,
			MarginalRate:  band.Rate,
			EffectiveRate: CalculateTaxOnIncome(income, tc.GetBrackets()) / income,
		}
		if band.Upper > 0 {
			b.Label = fmt.Sprintf("%s to %s at %s", FormatMoneyFull(band.Lower+1), FormatMoneyFull(band.Upper), FormatPercent(band.Rate))
		} else {
			b.Label = fmt.Sprintf("%s and over at %s", FormatMoneyFull(band.Lower+1), FormatPercent(band.Rate))
		}
		return b
	}
	return nil
}

// ComputeMandatoryContribution returns the employer guarantee contribution. No cap is applied here.
func ComputeMandatoryContribution(gross, rate float64) float64 {
	if gross <= 0 || rate <= 0 {
		return 0
	}
	return gross * rate
}

// ComputeStudentLoanRepayment applies the rate of the highest band reached to the whole income
func ComputeStudentLoanRepayment(tc *TaxConfig, income float64) float64 {
	rate := 0.0
	for _, band := range tc.GetStudentLoanBands() {
		if income >= band.Threshold {
			rate = band.Rate
		}
	}
	return roundCents(income * rate)
}

// ContributionSplit divides a year's before-tax super contributions around the concessional cap
type ContributionSplit struct {
	Guarantee  float64 `json:"guarantee"`
	Deductible float64 `json:"deductible"` // Salary sacrifice inside the cap, deducted from taxable income
	Excess     float64 `json:"excess"`     // Salary sacrifice above the cap, paid from after-tax income
}

// SplitContributions applies the concessional cap. The guarantee is counted first and
// only the room left under the cap is deductible; the rest is still contributed.
func SplitContributions(sc *SuperConfig, salary, guaranteeRate, annualSacrifice float64) ContributionSplit {
	guarantee := ComputeMandatoryContribution(salary, guaranteeRate)
	sacrifice := math.Max(0, annualSacrifice)
	deductible := math.Min(sacrifice, math.Max(0, sc.GetConcessionalCap()-guarantee))
	return ContributionSplit{
		Guarantee:  guarantee,
		Deductible: deductible,
		Excess:     sacrifice - deductible,
	}
}

// Sacrifice returns the total salary sacrificed
func (c ContributionSplit) Sacrifice() float64 {
	return c.Deductible + c.Excess
}

// Concessional returns contributions counted against the cap
func (c ContributionSplit) Concessional() float64 {
	return c.Guarantee + c.Deductible
}

// Deposit returns what reaches the fund after contributions tax on the concessional part
func (c ContributionSplit) Deposit(contributionsTaxRate float64) float64 {
	return c.Concessional()*(1-contributionsTaxRate) + c.Excess
}
