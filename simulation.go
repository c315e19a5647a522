package main

import (
	"context"
	"math"
)

// propertyState is the simulation's working copy of one property
type propertyState struct {
	value       float64
	loan        float64
	ratePercent float64
	loanType    LoanType
	termLeft    int // Years; 0 on an interest-only loan means no expiry
	ioTerm      int // Original interest-only period, reused on refinance
	repayment   float64
	growth      float64
	netRent     float64 // Annual rent less holding costs, in today's dollars
	investment  bool
}

func newPropertyState(p Property, defaultGrowth float64) *propertyState {
	ps := &propertyState{
		value:       p.CurrentValue,
		loan:        p.LoanBalance,
		ratePercent: p.InterestRate,
		loanType:    p.LoanType,
		termLeft:    p.RemainingTermYears,
		ioTerm:      p.RemainingTermYears,
		repayment:   p.GetMonthlyRepayment(),
		growth:      defaultGrowth,
		investment:  p.IsInvestment(),
	}
	if p.CustomAnnualGrowthRate != nil {
		ps.growth = *p.CustomAnnualGrowthRate
	}
	if ps.investment {
		ps.netRent = p.netRentalIncome()
	}
	if ps.loan <= 0 {
		ps.repayment = 0
	}
	return ps
}

func (ps *propertyState) annualRepayment() float64 {
	if ps.loan <= 0 {
		return 0
	}
	return ps.repayment * 12
}

func (ps *propertyState) equity() float64 {
	return math.Max(0, ps.value-ps.loan)
}

// advance grows the value and runs the loan forward twelve months
func (ps *propertyState) advance(dc *DrawdownConfig) {
	ps.value *= 1 + ps.growth
	if ps.loan <= 0 {
		return
	}

	switch ps.loanType {
	case InterestOnly:
		if ps.termLeft == 0 {
			return
		}
		ps.termLeft--
		if ps.termLeft > 0 {
			return
		}
		if dc.GetInterestOnlyExpiry() == InterestOnlyRefinance {
			ps.termLeft = ps.ioTerm
			return
		}
		ps.reamortize(dc.GetInterestOnlyRevertTermYears())
	default:
		ps.loan = RemainingBalance(ps.loan, ps.ratePercent, ps.repayment, 12)
		if ps.termLeft > 0 {
			ps.termLeft--
		}
		switch {
		case ps.loan < loanResidual:
			ps.loan = 0
			ps.repayment = 0
		case ps.termLeft == 0:
			// Repayments set below the amortizing amount leave a balance at term end
			ps.reamortize(dc.GetInterestOnlyRevertTermYears())
		}
	}
}

// loanResidual is the balance treated as repaid; it absorbs float drift over a full term
const loanResidual = 1.0

// reamortize converts the loan to principal-and-interest over termYears from the current balance
func (ps *propertyState) reamortize(termYears int) {
	ps.loanType = PrincipalAndInterest
	ps.termLeft = termYears
	ps.repayment = ComputeAmortizedPayment(ps.loan, ps.ratePercent, termYears, PrincipalAndInterest)
}

// returnRates resolves the super and ETF returns for a snapshot
func returnRates(s *FinancialSnapshot) (superRate, etfRate float64) {
	superRate = s.Assumptions.SuperReturnByOption[s.Superannuation.InvestmentOption]
	if s.Portfolio.ExpectedReturnOverride != nil {
		etfRate = *s.Portfolio.ExpectedReturnOverride
	} else {
		etfRate = s.Assumptions.ETFReturnByPreset[s.Portfolio.AllocationPreset]
	}
	return superRate, etfRate
}

// clampGrowth bounds the default property growth assumption
func clampGrowth(rate, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, rate))
}

// Simulate projects the snapshot one year per step from current age to life expectancy
// inclusive. Index 0 is the current year, with its contributions and growth applied.
// The snapshot is validated first and no partial result is returned on error.
func Simulate(ctx context.Context, cfg *Config, startYear int, snap FinancialSnapshot) (*SimulationResult, error) {
	maxYears := cfg.Projection.GetMaxYears()
	if err := ValidateSnapshot(&snap, maxYears); err != nil {
		return nil, err
	}

	person := snap.Person
	ie := snap.IncomeExpense
	span := person.LifeExpectancyAge - person.CurrentAge + 1

	superRate, etfRate := returnRates(&snap)
	cashRate := snap.Assumptions.CashReturnRate
	inflation := snap.Assumptions.InflationRate

	lo, hi := cfg.Projection.GetPropertyGrowthBounds()
	defaultGrowth := clampGrowth(snap.Assumptions.PropertyGrowthDefault, lo, hi)
	properties := make([]*propertyState, len(snap.Properties))
	for i, p := range snap.Properties {
		properties[i] = newPropertyState(p, defaultGrowth)
	}

	policy := newDrawdownPolicy(&cfg.Drawdown, (superRate+etfRate)/2-inflation)
	contributionTax := cfg.Super.GetContributionsTaxRate()
	preservationAge := cfg.Super.GetPreservationAge()

	result := newSimulationResult(span)

	salary := ie.AnnualSalary
	superBal := snap.Superannuation.CurrentBalance
	etf := snap.Portfolio.CurrentValue
	buffer := snap.Buffer.CurrentBalance
	retirementInflation := 1.0

	for i := 0; i < span && i < maxYears; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		age := person.CurrentAge + i
		inflationMultiplier := math.Pow(1+inflation, float64(i))
		livingCost := ie.MonthlyExpenses * 12 * inflationMultiplier
		if ie.IsRenting {
			livingCost += ie.MonthlyRent * 12 * inflationMultiplier
		}

		var netRent, repayments float64
		for _, ps := range properties {
			if ps.investment {
				netRent += ps.netRent * inflationMultiplier
			}
			repayments += ps.annualRepayment()
		}

		var (
			superDeposit, etfDeposit float64
			takeHome, withdrawal     float64
			taxPaid                  float64
			shortfall                float64
			phase                    = PhaseAccumulation
		)

		if age <= person.RetirementAge {
			if i > 0 {
				salary *= 1 + ie.WageGrowthRate
			}

			split := SplitContributions(&cfg.Super, salary, snap.Superannuation.GuaranteeRate, snap.Superannuation.MonthlySalarySacrifice*12)
			tax := ComputeTaxBreakdown(&cfg.Tax, salary, split.Deductible)
			taxPaid = tax.TotalTax
			takeHome = tax.NetIncome - split.Sacrifice()
			if ie.HasStudentLoan {
				takeHome -= ComputeStudentLoanRepayment(&cfg.Tax, salary)
			}
			superDeposit = split.Deposit(contributionTax)

			surplus := takeHome + netRent - repayments - livingCost
			target := snap.Buffer.TargetMonths * ie.MonthlyExpenses * inflationMultiplier

			if surplus >= 0 {
				topUp := math.Min(surplus, math.Max(0, target-buffer))
				buffer += topUp
				surplus -= topUp
				if buffer >= target {
					etfDeposit = math.Min(snap.Portfolio.MonthlyContribution*12, surplus)
				}
			} else {
				shortfall = withdrawalPools{etf: &etf, super: &superBal, buffer: &buffer}.draw(-surplus)
			}
		} else {
			phase = PhaseDrawdown
			salary = 0
			if i > 0 && result.Phase[i-1] == PhaseDrawdown {
				retirementInflation *= 1 + inflation
			}

			required := math.Max(0, livingCost+repayments-netRent)
			withdrawal = policy.Withdrawal(drawdownYear{
				Age:                 age,
				YearsRemaining:      person.LifeExpectancyAge - age + 1,
				Liquid:              superBal + etf + buffer,
				Required:            required,
				Inflation:           inflation,
				InflationMultiplier: retirementInflation,
			})

			pools := withdrawalPools{etf: &etf, super: &superBal, buffer: &buffer, superAccessible: age >= preservationAge}
			drawn := withdrawal - pools.draw(withdrawal)
			// Spending the drawn amount does not cover is unfunded, whatever the policy asked for
			shortfall = math.Max(0, required-drawn)
			if shortfall < 0.005 {
				shortfall = 0
			}
		}

		superBal = (superBal + superDeposit) * (1 + superRate)
		etf = (etf + etfDeposit) * (1 + etfRate)
		buffer *= 1 + cashRate

		superBal = math.Max(0, superBal)
		etf = math.Max(0, etf)
		buffer = math.Max(0, buffer)

		var value, loans, equity float64
		for _, ps := range properties {
			ps.advance(&cfg.Drawdown)
			value += ps.value
			loans += ps.loan
			equity += ps.equity()
		}

		result.Years = append(result.Years, startYear+i)
		result.Ages = append(result.Ages, age)
		result.Phase = append(result.Phase, phase)
		result.SuperBalance = append(result.SuperBalance, superBal)
		result.ETFPortfolio = append(result.ETFPortfolio, etf)
		result.PropertyValue = append(result.PropertyValue, value)
		result.PropertyEquity = append(result.PropertyEquity, equity)
		result.LoanBalance = append(result.LoanBalance, loans)
		result.BufferBalance = append(result.BufferBalance, buffer)
		result.TotalAssets = append(result.TotalAssets, superBal+etf+equity+buffer)
		result.Salary = append(result.Salary, salary)
		result.TaxPaid = append(result.TaxPaid, taxPaid)
		result.NetIncome = append(result.NetIncome, takeHome)
		result.SuperDeposits = append(result.SuperDeposits, superDeposit)
		result.ETFDeposits = append(result.ETFDeposits, etfDeposit)
		result.Withdrawals = append(result.Withdrawals, withdrawal)
		result.Shortfall = append(result.Shortfall, shortfall)
		if shortfall > 0 {
			result.ShortfallYears = append(result.ShortfallYears, startYear+i)
		}
	}

	return result, nil
}

func newSimulationResult(span int) *SimulationResult {
	return &SimulationResult{
		Years:          make([]int, 0, span),
		Ages:           make([]int, 0, span),
		Phase:          make([]string, 0, span),
		SuperBalance:   make([]float64, 0, span),
		ETFPortfolio:   make([]float64, 0, span),
		PropertyValue:  make([]float64, 0, span),
		PropertyEquity: make([]float64, 0, span),
		LoanBalance:    make([]float64, 0, span),
		BufferBalance:  make([]float64, 0, span),
		TotalAssets:    make([]float64, 0, span),
		Salary:         make([]float64, 0, span),
		TaxPaid:        make([]float64, 0, span),
		NetIncome:      make([]float64, 0, span),
		SuperDeposits:  make([]float64, 0, span),
		ETFDeposits:    make([]float64, 0, span),
		Withdrawals:    make([]float64, 0, span),
		Shortfall:      make([]float64, 0, span),
		ShortfallYears: []int{},
	}
}
