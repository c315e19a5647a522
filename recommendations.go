package main

import (
	"fmt"
	"math"
	"sort"
)

// Recommendation priorities, highest first
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// Recommendation is one action item for the user
type Recommendation struct {
	ID       string  `json:"id"`
	Priority int     `json:"priority"`
	Title    string  `json:"title"`
	Detail   string  `json:"detail"`
	Amount   float64 `json:"amount,omitempty"` // Dollar figure the advice refers to, if any
}

type recommendationInput struct {
	cfg     *Config
	snap    *FinancialSnapshot
	result  *SimulationResult
	metrics Metrics
}

type recommendationRule struct {
	id       string
	priority int
	build    func(in *recommendationInput) *Recommendation
}

// recommendationRules is evaluated in this order; it also breaks priority ties
var recommendationRules = []recommendationRule{
	{"savings-rate", PriorityHigh, recommendSavingsRate},
	{"emergency-buffer", PriorityHigh, recommendBuffer},
	{"concessional-cap-exceeded", PriorityHigh, recommendCapExceeded},
	{"concessional-cap-room", PriorityMedium, recommendCapRoom},
	{"negative-cash-flow", PriorityMedium, recommendCashFlow},
	{"high-lvr", PriorityMedium, recommendLVR},
	{"drawdown-depletion", PriorityHigh, recommendDepletion},
	{"student-loan", PriorityLow, recommendStudentLoan},
	{"earlier-retirement", PriorityLow, recommendEarlierRetirement},
}

// Recommend returns action items ordered by priority, ties in rule order
func Recommend(cfg *Config, s *FinancialSnapshot, r *SimulationResult, m Metrics) []Recommendation {
	in := &recommendationInput{cfg: cfg, snap: s, result: r, metrics: m}

	recs := make([]Recommendation, 0, len(recommendationRules))
	for _, rule := range recommendationRules {
		rec := rule.build(in)
		if rec == nil {
			continue
		}
		rec.ID = rule.id
		rec.Priority = rule.priority
		recs = append(recs, *rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})
	return recs
}

// requiredMonthlySaving returns the monthly amount that grows to target over years at rate
func requiredMonthlySaving(target, rate float64, years int) float64 {
	if target <= 0 || years <= 0 {
		return 0
	}
	if rate == 0 {
		return target / float64(years) / 12
	}
	return target * rate / (math.Pow(1+rate, float64(years)) - 1) / 12
}

func recommendSavingsRate(in *recommendationInput) *Recommendation {
	if in.metrics.Shortfall <= 0 {
		return nil
	}
	gap := in.metrics.Shortfall / in.cfg.Projection.GetSafeWithdrawalRate()
	_, etfRate := returnRates(in.snap)
	years := in.snap.Person.RetirementAge - in.snap.Person.CurrentAge + 1
	monthly := requiredMonthlySaving(gap, etfRate, years)
	return &Recommendation{
		Title: "Increase your savings rate",
		Detail: fmt.Sprintf("Projected retirement income falls %s a year short of expenses. Investing about %s more each month closes a %s asset gap.",
			FormatMoneyFull(in.metrics.Shortfall), FormatMoneyFull(monthly), FormatMoney(gap)),
		Amount: monthly,
	}
}

func recommendBuffer(in *recommendationInput) *Recommendation {
	b := in.snap.Buffer
	target := b.TargetMonths * in.snap.IncomeExpense.MonthlyExpenses
	if target <= 0 || b.CurrentBalance >= target {
		return nil
	}
	return &Recommendation{
		Title: "Build your emergency buffer",
		Detail: fmt.Sprintf("Your buffer of %s is below the %.0f-month target of %s. New investing pauses until it is topped up.",
			FormatMoneyFull(b.CurrentBalance), b.TargetMonths, FormatMoneyFull(target)),
		Amount: target - b.CurrentBalance,
	}
}

func contributionSplitNow(in *recommendationInput) ContributionSplit {
	return SplitContributions(&in.cfg.Super, in.snap.IncomeExpense.AnnualSalary,
		in.snap.Superannuation.GuaranteeRate, in.snap.Superannuation.MonthlySalarySacrifice*12)
}

func recommendCapExceeded(in *recommendationInput) *Recommendation {
	split := contributionSplitNow(in)
	if split.Excess <= 0 {
		return nil
	}
	return &Recommendation{
		Title: "Salary sacrifice exceeds the concessional cap",
		Detail: fmt.Sprintf("%s a year is above the %s cap and gets no tax benefit. Consider redirecting it to your ETF portfolio.",
			FormatMoneyFull(split.Excess), FormatMoneyFull(in.cfg.Super.GetConcessionalCap())),
		Amount: split.Excess,
	}
}

func recommendCapRoom(in *recommendationInput) *Recommendation {
	salary := in.snap.IncomeExpense.AnnualSalary
	split := contributionSplitNow(in)
	room := in.cfg.Super.GetConcessionalCap() - split.Concessional()
	marginal := GetMarginalRate(salary, in.cfg.Tax.GetBrackets())
	if room < 1000 || marginal <= in.cfg.Super.GetContributionsTaxRate() {
		return nil
	}
	return &Recommendation{
		Title: "Use your concessional cap",
		Detail: fmt.Sprintf("You could salary sacrifice up to %s more a year, taxed at %s in super instead of your %s marginal rate.",
			FormatMoneyFull(room), FormatPercent(in.cfg.Super.GetContributionsTaxRate()), FormatPercent(marginal)),
		Amount: room,
	}
}

func recommendCashFlow(in *recommendationInput) *Recommendation {
	total := 0.0
	for _, p := range in.snap.Properties {
		if !p.IsInvestment() {
			continue
		}
		if cf := ComputePropertyMetrics(p).MonthlyCashFlow; cf < 0 {
			total += cf
		}
	}
	if total >= 0 {
		return nil
	}
	return &Recommendation{
		Title:  "Investment property is negatively geared",
		Detail: fmt.Sprintf("Your investment properties cost %s a month after rent, expenses and interest.", FormatMoneyFull(-total)),
		Amount: -total,
	}
}

func recommendLVR(in *recommendationInput) *Recommendation {
	var worst *Property
	worstLVR := 0.8
	for i := range in.snap.Properties {
		p := &in.snap.Properties[i]
		if lvr := ComputePropertyMetrics(*p).LoanToValue; lvr > worstLVR {
			worst, worstLVR = p, lvr
		}
	}
	if worst == nil {
		return nil
	}
	return &Recommendation{
		Title:  "High loan-to-value ratio",
		Detail: fmt.Sprintf("%s has an LVR of %s. Reducing debt below 80%% lowers risk and refinancing costs.", propertyLabel(worst), FormatPercent(worstLVR)),
		Amount: worst.LoanBalance - 0.8*worst.CurrentValue,
	}
}

func propertyLabel(p *Property) string {
	if p.Name != "" {
		return p.Name
	}
	return "A property"
}

func recommendDepletion(in *recommendationInput) *Recommendation {
	if in.metrics.FirstShortfallAge == nil {
		return nil
	}
	return &Recommendation{
		Title: "Savings run short in retirement",
		Detail: fmt.Sprintf("At the planned drawdown your accessible savings cannot fund spending from age %d. Consider retiring later or spending less.",
			*in.metrics.FirstShortfallAge),
	}
}

func recommendStudentLoan(in *recommendationInput) *Recommendation {
	if !in.snap.IncomeExpense.HasStudentLoan {
		return nil
	}
	repayment := ComputeStudentLoanRepayment(&in.cfg.Tax, in.snap.IncomeExpense.AnnualSalary)
	if repayment <= 0 {
		return nil
	}
	return &Recommendation{
		Title:  "Student loan repayments",
		Detail: fmt.Sprintf("Compulsory repayments of %s a year reduce take-home pay until the loan is repaid.", FormatMoneyFull(repayment)),
		Amount: repayment,
	}
}

func recommendEarlierRetirement(in *recommendationInput) *Recommendation {
	age := in.metrics.ProjectedRetirementAge
	if age == nil || *age >= in.snap.Person.RetirementAge {
		return nil
	}
	return &Recommendation{
		Title:  "You may be able to retire earlier",
		Detail: fmt.Sprintf("Your assets are projected to support your spending from age %d, %d years before your planned retirement.", *age, in.snap.Person.RetirementAge-*age),
	}
}
