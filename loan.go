package main

import "math"

// ComputeAmortizedPayment returns the monthly repayment for a loan.
// Interest-only loans pay principal x monthly rate. Principal-and-interest loans use
// M = P * [r(1+r)^n] / [(1+r)^n - 1], or P/n when the rate is zero.
func ComputeAmortizedPayment(principal, annualRatePercent float64, termYears int, loanType LoanType) float64 {
	if principal <= 0 {
		return 0
	}
	monthlyRate := annualRatePercent / 100 / 12

	if loanType == InterestOnly {
		return principal * monthlyRate
	}
	if termYears <= 0 {
		return 0
	}

	numPayments := float64(termYears * 12)
	if monthlyRate == 0 {
		return principal / numPayments
	}

	factor := math.Pow(1+monthlyRate, numPayments)
	return principal * (monthlyRate * factor) / (factor - 1)
}

// RemainingBalance returns the balance after paying monthlyPayment for the given number of months.
// B = P(1+r)^k - M[(1+r)^k - 1]/r, floored at zero.
func RemainingBalance(principal, annualRatePercent, monthlyPayment float64, months int) float64 {
	if principal <= 0 {
		return 0
	}
	if months <= 0 {
		return principal
	}
	monthlyRate := annualRatePercent / 100 / 12
	k := float64(months)

	var balance float64
	if monthlyRate == 0 {
		balance = principal - monthlyPayment*k
	} else {
		growth := math.Pow(1+monthlyRate, k)
		balance = principal*growth - monthlyPayment*(growth-1)/monthlyRate
	}
	return math.Max(0, balance)
}

// ScheduleYear is one row of a yearly amortization table
type ScheduleYear struct {
	Year           int     `json:"year"`
	OpeningBalance float64 `json:"openingBalance"`
	InterestPaid   float64 `json:"interestPaid"`
	PrincipalPaid  float64 `json:"principalPaid"`
	ClosingBalance float64 `json:"closingBalance"`
}

// AmortizationSchedule tabulates a loan year by year until it is repaid or the term ends
func AmortizationSchedule(principal, annualRatePercent float64, termYears int, loanType LoanType) []ScheduleYear {
	if principal <= 0 || termYears <= 0 {
		return nil
	}
	payment := ComputeAmortizedPayment(principal, annualRatePercent, termYears, loanType)
	monthlyRate := annualRatePercent / 100 / 12

	schedule := make([]ScheduleYear, 0, termYears)
	balance := principal
	for year := 1; year <= termYears && balance > 0; year++ {
		row := ScheduleYear{Year: year, OpeningBalance: balance}
		for m := 0; m < 12 && balance > 0; m++ {
			interest := balance * monthlyRate
			principalPart := math.Min(payment-interest, balance)
			if loanType == InterestOnly {
				principalPart = 0
			}
			row.InterestPaid += interest
			row.PrincipalPaid += principalPart
			balance -= principalPart
		}
		if balance < 0.005 {
			balance = 0
		}
		row.ClosingBalance = balance
		schedule = append(schedule, row)
	}
	return schedule
}

// RecalculateRepayment derives MonthlyRepayment from the loan fields
func (p *Property) RecalculateRepayment() {
	p.MonthlyRepayment = ComputeAmortizedPayment(p.LoanBalance, p.InterestRate, p.RemainingTermYears, p.LoanType)
}

// GetMonthlyRepayment returns the stored repayment, or the derived one when none is stored
func (p *Property) GetMonthlyRepayment() float64 {
	if p.MonthlyRepayment > 0 {
		return p.MonthlyRepayment
	}
	return ComputeAmortizedPayment(p.LoanBalance, p.InterestRate, p.RemainingTermYears, p.LoanType)
}

// LoanEdit is a partial update to a property's loan. Nil fields are left unchanged.
type LoanEdit struct {
	LoanBalance        *float64  `json:"loanBalance,omitempty"`
	InterestRate       *float64  `json:"interestRate,omitempty"`
	RemainingTermYears *int      `json:"remainingTermYears,omitempty"`
	LoanType           *LoanType `json:"loanType,omitempty"`
	MonthlyRepayment   *float64  `json:"monthlyRepayment,omitempty"`
}

// ApplyLoanEdit applies edit to p. The repayment is recalculated only when principal,
// rate or term changed, so a user-entered repayment survives unrelated edits.
func ApplyLoanEdit(p *Property, edit LoanEdit) {
	recalc := false
	if edit.LoanBalance != nil && *edit.LoanBalance != p.LoanBalance {
		p.LoanBalance = *edit.LoanBalance
		recalc = true
	}
	if edit.InterestRate != nil && *edit.InterestRate != p.InterestRate {
		p.InterestRate = *edit.InterestRate
		recalc = true
	}
	if edit.RemainingTermYears != nil && *edit.RemainingTermYears != p.RemainingTermYears {
		p.RemainingTermYears = *edit.RemainingTermYears
		recalc = true
	}
	if edit.LoanType != nil {
		p.LoanType = *edit.LoanType
	}
	if edit.MonthlyRepayment != nil {
		p.MonthlyRepayment = *edit.MonthlyRepayment
	}
	if recalc {
		p.RecalculateRepayment()
	}
}
