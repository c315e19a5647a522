package main

// SnapshotVersion is the current FinancialSnapshot schema version
const SnapshotVersion = 1

// InvestmentOption is the superannuation investment mix
type InvestmentOption string

const (
	Conservative InvestmentOption = "Conservative"
	Balanced     InvestmentOption = "Balanced"
	Growth       InvestmentOption = "Growth"
	HighGrowth   InvestmentOption = "HighGrowth"
)

func (o InvestmentOption) Valid() bool {
	switch o {
	case Conservative, Balanced, Growth, HighGrowth:
		return true
	}
	return false
}

func (o InvestmentOption) String() string {
	if o == HighGrowth {
		return "High Growth"
	}
	return string(o)
}

// AllocationPreset is the ETF portfolio layout
type AllocationPreset string

const (
	SingleFund AllocationPreset = "SingleFund"
	TwoFund    AllocationPreset = "TwoFund"
)

func (p AllocationPreset) Valid() bool {
	return p == SingleFund || p == TwoFund
}

func (p AllocationPreset) String() string {
	switch p {
	case SingleFund:
		return "Single Fund"
	case TwoFund:
		return "Two Fund"
	default:
		return "Unknown"
	}
}

// PropertyType classifies a property
type PropertyType string

const (
	OwnerOccupied PropertyType = "owner-occupied"
	Investment    PropertyType = "investment"
)

// PropertyIntent says whether a property is held now or planned
type PropertyIntent string

const (
	IntentExisting        PropertyIntent = "existing"
	IntentPlannedPurchase PropertyIntent = "planned-purchase"
)

// LoanType is the repayment structure of a property loan
type LoanType string

const (
	PrincipalAndInterest LoanType = "principal-and-interest"
	InterestOnly         LoanType = "interest-only"
)

func (l LoanType) String() string {
	switch l {
	case PrincipalAndInterest:
		return "P&I"
	case InterestOnly:
		return "Interest Only"
	default:
		return "Unknown"
	}
}

// Person holds the ages that bound a projection
type Person struct {
	CurrentAge        int `yaml:"current_age" json:"currentAge"`
	RetirementAge     int `yaml:"retirement_age" json:"retirementAge"`
	LifeExpectancyAge int `yaml:"life_expectancy_age" json:"lifeExpectancyAge"`
}

// IncomeExpense holds employment income and living costs
type IncomeExpense struct {
	AnnualSalary    float64 `yaml:"annual_salary" json:"annualSalary"`
	MonthlyExpenses float64 `yaml:"monthly_expenses" json:"monthlyExpenses"`
	WageGrowthRate  float64 `yaml:"wage_growth_rate" json:"wageGrowthRate"`
	HasStudentLoan  bool    `yaml:"has_student_loan" json:"hasStudentLoan"`
	IsRenting       bool    `yaml:"is_renting" json:"isRenting"`
	MonthlyRent     float64 `yaml:"monthly_rent" json:"monthlyRent"`
}

// Superannuation holds the super fund position
type Superannuation struct {
	CurrentBalance         float64          `yaml:"current_balance" json:"currentBalance"`
	MonthlySalarySacrifice float64          `yaml:"monthly_salary_sacrifice" json:"monthlySalarySacrifice"`
	InvestmentOption       InvestmentOption `yaml:"investment_option" json:"investmentOption"`
	GuaranteeRate          float64          `yaml:"guarantee_rate" json:"guaranteeRate"` // Employer contribution as a fraction of salary
}

// Portfolio holds the ETF portfolio position
type Portfolio struct {
	CurrentValue           float64          `yaml:"current_value" json:"currentValue"`
	MonthlyContribution    float64          `yaml:"monthly_contribution" json:"monthlyContribution"`
	AllocationPreset       AllocationPreset `yaml:"allocation_preset" json:"allocationPreset"`
	ExpectedReturnOverride *float64         `yaml:"expected_return_override,omitempty" json:"expectedReturnOverride,omitempty"`
}

// Buffer is the emergency cash reserve
type Buffer struct {
	TargetMonths   float64 `yaml:"target_months" json:"targetMonths"`
	CurrentBalance float64 `yaml:"current_balance" json:"currentBalance"`
}

// Assumptions holds growth and return rates
type Assumptions struct {
	InflationRate         float64                      `yaml:"inflation_rate" json:"inflationRate"`
	SuperReturnByOption   map[InvestmentOption]float64 `yaml:"super_return_by_option" json:"superReturnByOption"`
	ETFReturnByPreset     map[AllocationPreset]float64 `yaml:"etf_return_by_preset" json:"etfReturnByPreset"`
	PropertyGrowthDefault float64                      `yaml:"property_growth_default" json:"propertyGrowthDefault"`
	CashReturnRate        float64                      `yaml:"cash_return_rate" json:"cashReturnRate"` // Earned by the buffer
}

// Property is one real-estate holding. InterestRate and ManagementFeePercent are percentages (6.2 = 6.2%).
type Property struct {
	ID     string         `yaml:"id" json:"id"`
	Name   string         `yaml:"name" json:"name"`
	Type   PropertyType   `yaml:"type" json:"type"`
	Intent PropertyIntent `yaml:"intent" json:"intent"`

	CurrentValue       float64  `yaml:"current_value" json:"currentValue"`
	LoanBalance        float64  `yaml:"loan_balance" json:"loanBalance"`
	InterestRate       float64  `yaml:"interest_rate" json:"interestRate"`
	LoanType           LoanType `yaml:"loan_type" json:"loanType"`
	RemainingTermYears int      `yaml:"remaining_term_years" json:"remainingTermYears"`
	MonthlyRepayment   float64  `yaml:"monthly_repayment" json:"monthlyRepayment"`

	// Investment properties only
	WeeklyRent           float64 `yaml:"weekly_rent,omitempty" json:"weeklyRent,omitempty"`
	ManagementFeePercent float64 `yaml:"management_fee_percent,omitempty" json:"managementFeePercent,omitempty"`
	AnnualCouncilRates   float64 `yaml:"annual_council_rates,omitempty" json:"annualCouncilRates,omitempty"`
	AnnualInsurance      float64 `yaml:"annual_insurance,omitempty" json:"annualInsurance,omitempty"`
	AnnualMaintenance    float64 `yaml:"annual_maintenance,omitempty" json:"annualMaintenance,omitempty"`
	VacancyWeeksPerYear  float64 `yaml:"vacancy_weeks_per_year,omitempty" json:"vacancyWeeksPerYear,omitempty"`

	PurchaseDate           string   `yaml:"purchase_date,omitempty" json:"purchaseDate,omitempty"`
	PurchasePrice          float64  `yaml:"purchase_price,omitempty" json:"purchasePrice,omitempty"`
	CustomAnnualGrowthRate *float64 `yaml:"custom_annual_growth_rate,omitempty" json:"customAnnualGrowthRate,omitempty"`
}

// IsInvestment reports whether the investment-only fields apply
func (p *Property) IsInvestment() bool {
	return p.Type == Investment
}

// FinancialSnapshot is the single input to a projection run
type FinancialSnapshot struct {
	Version        int            `yaml:"version" json:"version"`
	Person         Person         `yaml:"person" json:"person"`
	IncomeExpense  IncomeExpense  `yaml:"income_expense" json:"incomeExpense"`
	Superannuation Superannuation `yaml:"superannuation" json:"superannuation"`
	Portfolio      Portfolio      `yaml:"portfolio" json:"portfolio"`
	Properties     []Property     `yaml:"properties" json:"properties"`
	Buffer         Buffer         `yaml:"buffer" json:"buffer"`
	Assumptions    Assumptions    `yaml:"assumptions" json:"assumptions"`
}

// Clone returns a deep copy so the caller may keep editing the original
func (s FinancialSnapshot) Clone() FinancialSnapshot {
	c := s
	if s.Portfolio.ExpectedReturnOverride != nil {
		v := *s.Portfolio.ExpectedReturnOverride
		c.Portfolio.ExpectedReturnOverride = &v
	}
	if s.Properties != nil {
		c.Properties = make([]Property, len(s.Properties))
		for i, p := range s.Properties {
			if p.CustomAnnualGrowthRate != nil {
				v := *p.CustomAnnualGrowthRate
				p.CustomAnnualGrowthRate = &v
			}
			c.Properties[i] = p
		}
	}
	if s.Assumptions.SuperReturnByOption != nil {
		c.Assumptions.SuperReturnByOption = make(map[InvestmentOption]float64, len(s.Assumptions.SuperReturnByOption))
		for k, v := range s.Assumptions.SuperReturnByOption {
			c.Assumptions.SuperReturnByOption[k] = v
		}
	}
	if s.Assumptions.ETFReturnByPreset != nil {
		c.Assumptions.ETFReturnByPreset = make(map[AllocationPreset]float64, len(s.Assumptions.ETFReturnByPreset))
		for k, v := range s.Assumptions.ETFReturnByPreset {
			c.Assumptions.ETFReturnByPreset[k] = v
		}
	}
	return c
}

// DefaultAssumptions returns the return assumptions used when a snapshot supplies none
func DefaultAssumptions() Assumptions {
	return Assumptions{
		InflationRate: 0.025,
		SuperReturnByOption: map[InvestmentOption]float64{
			Conservative: 0.05,
			Balanced:     0.065,
			Growth:       0.075,
			HighGrowth:   0.085,
		},
		ETFReturnByPreset: map[AllocationPreset]float64{
			SingleFund: 0.07,
			TwoFund:    0.075,
		},
		PropertyGrowthDefault: 0.05,
	}
}

// Phase of a simulated year
const (
	PhaseAccumulation = "accumulation"
	PhaseDrawdown     = "drawdown"
)

// SimulationResult holds parallel per-year series, one entry per simulated year
type SimulationResult struct {
	Years          []int     `json:"years"`
	Ages           []int     `json:"ages"`
	Phase          []string  `json:"phase"`
	SuperBalance   []float64 `json:"superBalance"`
	ETFPortfolio   []float64 `json:"etfPortfolio"`
	PropertyValue  []float64 `json:"propertyValue"`
	PropertyEquity []float64 `json:"propertyEquity"`
	LoanBalance    []float64 `json:"loanBalance"`
	BufferBalance  []float64 `json:"bufferBalance"`
	TotalAssets    []float64 `json:"totalAssets"`
	Salary         []float64 `json:"salary"`
	TaxPaid        []float64 `json:"taxPaid"`
	NetIncome      []float64 `json:"netIncome"`
	SuperDeposits  []float64 `json:"superDeposits"`
	ETFDeposits    []float64 `json:"etfDeposits"`
	Withdrawals    []float64 `json:"withdrawals"`
	Shortfall      []float64 `json:"shortfall"`
	ShortfallYears []int     `json:"shortfallYears"`
}

// Len returns the number of simulated years
func (r *SimulationResult) Len() int {
	return len(r.Years)
}

// IndexOfAge returns the series index for age, or -1
func (r *SimulationResult) IndexOfAge(age int) int {
	for i, a := range r.Ages {
		if a == age {
			return i
		}
	}
	return -1
}

// AssetBreakdown holds per-pool values at one point in time
type AssetBreakdown struct {
	Super          float64 `json:"super"`
	ETF            float64 `json:"etf"`
	PropertyEquity float64 `json:"propertyEquity"`
	Buffer         float64 `json:"buffer"`
}

// Metrics are the headline retirement-readiness figures
type Metrics struct {
	CanRetire                bool           `json:"canRetire"`
	FinalAssets              float64        `json:"finalAssets"`
	FinalMonthlyIncome       float64        `json:"finalMonthlyIncome"`
	FinalAnnualIncome        float64        `json:"finalAnnualIncome"`
	RequiredAnnualExpenses   float64        `json:"requiredAnnualExpenses"`
	IncomeReplacementPercent float64        `json:"incomeReplacementPercent"`
	Shortfall                float64        `json:"shortfall"`
	AssetBreakdown           AssetBreakdown `json:"assetBreakdown"`
	ProjectedRetirementAge   *int           `json:"projectedRetirementAge"`
	AssetsAtLifeExpectancy   float64        `json:"assetsAtLifeExpectancy"`
	FirstShortfallAge        *int           `json:"firstShortfallAge"`
}
