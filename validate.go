package main

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidSnapshot     = errors.New("invalid snapshot")
	ErrUnsupportedVersion  = errors.New("unsupported version")
	ErrScenarioNotFound    = errors.New("scenario not found")
	ErrInvalidScenarioName = errors.New("scenario name is required")
)

// ValidationError reports one invalid snapshot field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type snapshotChecker struct {
	errs []ValidationError
}

func (c *snapshotChecker) fail(field, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *snapshotChecker) money(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.fail(field, "must be a finite number")
	} else if v < 0 {
		c.fail(field, "must not be negative (got %.2f)", v)
	}
}

// rate accepts decimal rates strictly above -100% and at most 100%
func (c *snapshotChecker) rate(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= -1 || v > 1 {
		c.fail(field, "must be a decimal rate between -1 and 1 (got %v)", v)
	}
}

func (c *snapshotChecker) fraction(field string, v float64) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		c.fail(field, "must be between 0 and 1 (got %v)", v)
	}
}

// CheckSnapshot returns every problem found in s. maxYears bounds the projected span.
func CheckSnapshot(s *FinancialSnapshot, maxYears int) []ValidationError {
	c := &snapshotChecker{}
	if s == nil {
		c.fail("snapshot", "is required")
		return c.errs
	}

	if s.Version < 0 || s.Version > SnapshotVersion {
		c.fail("version", "unsupported snapshot version %d", s.Version)
	}

	p := s.Person
	if p.CurrentAge < 0 || p.CurrentAge > 120 {
		c.fail("person.currentAge", "must be between 0 and 120 (got %d)", p.CurrentAge)
	}
	if p.RetirementAge <= p.CurrentAge {
		c.fail("person.retirementAge", "must be after current age (got %d, current %d)", p.RetirementAge, p.CurrentAge)
	}
	if p.LifeExpectancyAge < p.RetirementAge {
		c.fail("person.lifeExpectancyAge", "must not be before retirement age (got %d, retirement %d)", p.LifeExpectancyAge, p.RetirementAge)
	}
	if span := p.LifeExpectancyAge - p.CurrentAge + 1; maxYears > 0 && span > maxYears {
		c.fail("person.lifeExpectancyAge", "projection of %d years exceeds the limit of %d", span, maxYears)
	}

	ie := s.IncomeExpense
	c.money("incomeExpense.annualSalary", ie.AnnualSalary)
	c.money("incomeExpense.monthlyExpenses", ie.MonthlyExpenses)
	c.money("incomeExpense.monthlyRent", ie.MonthlyRent)
	c.rate("incomeExpense.wageGrowthRate", ie.WageGrowthRate)

	sup := s.Superannuation
	c.money("superannuation.currentBalance", sup.CurrentBalance)
	c.money("superannuation.monthlySalarySacrifice", sup.MonthlySalarySacrifice)
	c.fraction("superannuation.guaranteeRate", sup.GuaranteeRate)
	if !sup.InvestmentOption.Valid() {
		c.fail("superannuation.investmentOption", "unknown option %q", sup.InvestmentOption)
	}

	pf := s.Portfolio
	c.money("portfolio.currentValue", pf.CurrentValue)
	c.money("portfolio.monthlyContribution", pf.MonthlyContribution)
	if !pf.AllocationPreset.Valid() {
		c.fail("portfolio.allocationPreset", "unknown preset %q", pf.AllocationPreset)
	}
	if pf.ExpectedReturnOverride != nil {
		c.rate("portfolio.expectedReturnOverride", *pf.ExpectedReturnOverride)
	}

	c.money("buffer.targetMonths", s.Buffer.TargetMonths)
	c.money("buffer.currentBalance", s.Buffer.CurrentBalance)

	a := s.Assumptions
	c.rate("assumptions.inflationRate", a.InflationRate)
	c.rate("assumptions.propertyGrowthDefault", a.PropertyGrowthDefault)
	c.rate("assumptions.cashReturnRate", a.CashReturnRate)
	if sup.InvestmentOption.Valid() {
		if r, ok := a.SuperReturnByOption[sup.InvestmentOption]; !ok {
			c.fail("assumptions.superReturnByOption", "missing return for %s", sup.InvestmentOption)
		} else {
			c.rate("assumptions.superReturnByOption."+string(sup.InvestmentOption), r)
		}
	}
	if pf.AllocationPreset.Valid() && pf.ExpectedReturnOverride == nil {
		if r, ok := a.ETFReturnByPreset[pf.AllocationPreset]; !ok {
			c.fail("assumptions.etfReturnByPreset", "missing return for %s", pf.AllocationPreset)
		} else {
			c.rate("assumptions.etfReturnByPreset."+string(pf.AllocationPreset), r)
		}
	}

	for i := range s.Properties {
		checkProperty(c, fmt.Sprintf("properties[%d]", i), &s.Properties[i])
	}

	return c.errs
}

func checkProperty(c *snapshotChecker, prefix string, p *Property) {
	switch p.Type {
	case OwnerOccupied, Investment:
	default:
		c.fail(prefix+".type", "unknown property type %q", p.Type)
	}
	switch p.Intent {
	case "", IntentExisting, IntentPlannedPurchase:
	default:
		c.fail(prefix+".intent", "unknown intent %q", p.Intent)
	}

	c.money(prefix+".currentValue", p.CurrentValue)
	c.money(prefix+".loanBalance", p.LoanBalance)
	c.money(prefix+".monthlyRepayment", p.MonthlyRepayment)
	if math.IsNaN(p.InterestRate) || p.InterestRate < 0 || p.InterestRate > 100 {
		c.fail(prefix+".interestRate", "must be a percentage between 0 and 100 (got %v)", p.InterestRate)
	}
	if p.RemainingTermYears < 0 {
		c.fail(prefix+".remainingTermYears", "must not be negative (got %d)", p.RemainingTermYears)
	}
	if p.LoanBalance > 0 {
		switch p.LoanType {
		case PrincipalAndInterest:
			if p.RemainingTermYears == 0 {
				c.fail(prefix+".remainingTermYears", "is required for a principal-and-interest loan")
			}
		case InterestOnly:
		default:
			c.fail(prefix+".loanType", "unknown loan type %q", p.LoanType)
		}
	}
	if p.CustomAnnualGrowthRate != nil {
		c.rate(prefix+".customAnnualGrowthRate", *p.CustomAnnualGrowthRate)
	}

	if !p.IsInvestment() {
		return
	}
	c.money(prefix+".weeklyRent", p.WeeklyRent)
	c.money(prefix+".annualCouncilRates", p.AnnualCouncilRates)
	c.money(prefix+".annualInsurance", p.AnnualInsurance)
	c.money(prefix+".annualMaintenance", p.AnnualMaintenance)
	if p.ManagementFeePercent < 0 || p.ManagementFeePercent > 100 {
		c.fail(prefix+".managementFeePercent", "must be between 0 and 100 (got %v)", p.ManagementFeePercent)
	}
	if p.VacancyWeeksPerYear < 0 || p.VacancyWeeksPerYear > 52 {
		c.fail(prefix+".vacancyWeeksPerYear", "must be between 0 and 52 (got %v)", p.VacancyWeeksPerYear)
	}
}

// ValidateSnapshot returns nil or an error wrapping ErrInvalidSnapshot that lists every problem
func ValidateSnapshot(s *FinancialSnapshot, maxYears int) error {
	problems := CheckSnapshot(s, maxYears)
	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = p
	}
	return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(errs...))
}

// DecodeSnapshot strictly decodes a JSON snapshot; unknown fields are rejected
func DecodeSnapshot(data []byte) (FinancialSnapshot, error) {
	var s FinancialSnapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return s, nil
}

// DecodeSnapshotYAML strictly decodes a YAML snapshot
func DecodeSnapshotYAML(data []byte) (FinancialSnapshot, error) {
	var s FinancialSnapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return s, nil
}
