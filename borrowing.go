package main

import "math"

// Household is the input to the serviceability test
type Household struct {
	AnnualGrossIncome     float64 `json:"annualGrossIncome" yaml:"annual_gross_income"`
	MonthlyLivingExpenses float64 `json:"monthlyLivingExpenses" yaml:"monthly_living_expenses"`
	MonthlyRent           float64 `json:"monthlyRent" yaml:"monthly_rent"`
	HasStudentLoan        bool    `json:"hasStudentLoan" yaml:"has_student_loan"`
	InterestRatePercent   float64 `json:"interestRatePercent,omitempty" yaml:"interest_rate_percent,omitempty"` // 0 = lending base rate
}

// HouseholdFromSnapshot builds the serviceability input from a snapshot
func HouseholdFromSnapshot(s *FinancialSnapshot) *Household {
	if s == nil {
		return nil
	}
	h := &Household{
		AnnualGrossIncome:     s.IncomeExpense.AnnualSalary,
		MonthlyLivingExpenses: s.IncomeExpense.MonthlyExpenses,
		HasStudentLoan:        s.IncomeExpense.HasStudentLoan,
	}
	if s.IncomeExpense.IsRenting {
		h.MonthlyRent = s.IncomeExpense.MonthlyRent
	}
	return h
}

// Limiting factors
const (
	LimitServiceability = "serviceability"
	LimitDebtToIncome   = "debt-to-income"
)

// BorrowingCapacityResult carries the capacity and every intermediate figure
type BorrowingCapacityResult struct {
	GrossMonthlyIncome      float64 `json:"grossMonthlyIncome"`
	MonthlyTax              float64 `json:"monthlyTax"`
	MonthlyStudentLoan      float64 `json:"monthlyStudentLoan"`
	MonthlyRentalIncome     float64 `json:"monthlyRentalIncome"` // After haircut
	NetMonthlyIncome        float64 `json:"netMonthlyIncome"`
	ExistingRepayments      float64 `json:"existingRepayments"`
	TotalMonthlyOutgoings   float64 `json:"totalMonthlyOutgoings"`
	MaxMonthlyDebtService   float64 `json:"maxMonthlyDebtService"`
	AssessmentRatePercent   float64 `json:"assessmentRatePercent"`
	TermYears               int     `json:"termYears"`
	ServiceabilityCapacity  float64 `json:"serviceabilityCapacity"`
	DebtToIncomeCeiling     float64 `json:"debtToIncomeCeiling"`
	BorrowingCapacity       float64 `json:"borrowingCapacity"`
	LimitingFactor          string  `json:"limitingFactor"`
	EstimatedMonthlyPayment float64 `json:"estimatedMonthlyPayment"`
}

// annuityPresentValue converts a monthly payment into the principal it services
func annuityPresentValue(monthlyPayment, annualRatePercent float64, termYears int) float64 {
	if monthlyPayment <= 0 || termYears <= 0 {
		return 0
	}
	n := float64(termYears * 12)
	r := annualRatePercent / 100 / 12
	if r == 0 {
		return monthlyPayment * n
	}
	return monthlyPayment * (1 - math.Pow(1+r, -n)) / r
}

// ComputeBorrowingCapacity estimates the largest new loan a lender would approve.
// Returns nil when the household or its income is missing.
func ComputeBorrowingCapacity(cfg *Config, h *Household, existing []Property) *BorrowingCapacityResult {
	if cfg == nil || h == nil || h.AnnualGrossIncome <= 0 {
		return nil
	}
	lc := &cfg.Lending

	gross := h.AnnualGrossIncome
	tax := ComputeTaxBreakdown(&cfg.Tax, gross, 0).TotalTax
	studentLoan := 0.0
	if h.HasStudentLoan {
		studentLoan = ComputeStudentLoanRepayment(&cfg.Tax, gross)
	}

	var rental, repayments float64
	for i := range existing {
		p := &existing[i]
		rental += p.AnnualRent() / 12
		repayments += p.GetMonthlyRepayment()
	}
	rental *= lc.GetRentalIncomeHaircut()

	r := &BorrowingCapacityResult{
		GrossMonthlyIncome:  gross / 12,
		MonthlyTax:          tax / 12,
		MonthlyStudentLoan:  studentLoan / 12,
		MonthlyRentalIncome: rental,
		ExistingRepayments:  repayments,
		TermYears:           lc.GetTermYears(),
	}
	r.NetMonthlyIncome = r.GrossMonthlyIncome - r.MonthlyTax - r.MonthlyStudentLoan + rental
	r.TotalMonthlyOutgoings = h.MonthlyLivingExpenses + h.MonthlyRent + repayments
	r.MaxMonthlyDebtService = math.Max(0, r.NetMonthlyIncome*lc.GetMaxDebtServiceRatio()-(r.TotalMonthlyOutgoings-h.MonthlyRent))

	baseRate := h.InterestRatePercent
	if baseRate <= 0 {
		baseRate = lc.GetBaseRatePercent()
	}
	r.AssessmentRatePercent = baseRate + lc.GetAssessmentBufferPercent()

	r.ServiceabilityCapacity = annuityPresentValue(r.MaxMonthlyDebtService, r.AssessmentRatePercent, r.TermYears)
	r.DebtToIncomeCeiling = gross * lc.GetMaxDebtToIncome()

	r.BorrowingCapacity = r.ServiceabilityCapacity
	r.LimitingFactor = LimitServiceability
	if r.DebtToIncomeCeiling < r.BorrowingCapacity {
		r.BorrowingCapacity = r.DebtToIncomeCeiling
		r.LimitingFactor = LimitDebtToIncome
	}
	r.BorrowingCapacity = math.Max(0, r.BorrowingCapacity)
	r.EstimatedMonthlyPayment = ComputeAmortizedPayment(r.BorrowingCapacity, baseRate, r.TermYears, PrincipalAndInterest)
	return r
}
