package main

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default-config.yaml
var defaultConfigYAML string

// TaxBand is one marginal income tax bracket. Upper <= 0 means the band is open-ended.
type TaxBand struct {
	Name  string  `yaml:"name" json:"name"`
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
	Rate  float64 `yaml:"rate" json:"rate"`
}

// MedicareConfig describes the flat levy charged on gross income
type MedicareConfig struct {
	Rate               float64 `yaml:"rate" json:"rate"`
	LowIncomeThreshold float64 `yaml:"low_income_threshold" json:"low_income_threshold"`
	ShadeInRate        float64 `yaml:"shade_in_rate" json:"shade_in_rate"` // Levy per $1 over the threshold until the full rate applies
}

// OffsetConfig describes a non-refundable low income tax offset
type OffsetConfig struct {
	Max           float64 `yaml:"max" json:"max"`
	PhaseOutStart float64 `yaml:"phase_out_start" json:"phase_out_start"`
	Cutoff        float64 `yaml:"cutoff" json:"cutoff"` // Income at which the offset reaches zero
}

// StudentLoanBand applies Rate to the whole income once income reaches Threshold
type StudentLoanBand struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Rate      float64 `yaml:"rate" json:"rate"`
}

// TaxConfig holds one financial year's personal income tax schedule
type TaxConfig struct {
	Year             string            `yaml:"year" json:"year"`
	Brackets         []TaxBand         `yaml:"brackets" json:"brackets"`
	Medicare         MedicareConfig    `yaml:"medicare" json:"medicare"`
	LowIncomeOffset  OffsetConfig      `yaml:"low_income_offset" json:"low_income_offset"`
	StudentLoanBands []StudentLoanBand `yaml:"student_loan_bands" json:"student_loan_bands"`
}

// SuperConfig holds superannuation contribution rules
type SuperConfig struct {
	ConcessionalCap      float64 `yaml:"concessional_cap" json:"concessional_cap"`
	ContributionsTaxRate float64 `yaml:"contributions_tax_rate" json:"contributions_tax_rate"`
	PreservationAge      int     `yaml:"preservation_age" json:"preservation_age"` // Super cannot be drawn before this age
}

// LendingConfig holds the serviceability test a lender applies
type LendingConfig struct {
	MaxDebtServiceRatio     float64 `yaml:"max_debt_service_ratio" json:"max_debt_service_ratio"`
	AssessmentBufferPercent float64 `yaml:"assessment_buffer_percent" json:"assessment_buffer_percent"` // Added to the base rate, in percentage points
	BaseRatePercent         float64 `yaml:"base_rate_percent" json:"base_rate_percent"`
	TermYears               int     `yaml:"term_years" json:"term_years"`
	RentalIncomeHaircut     float64 `yaml:"rental_income_haircut" json:"rental_income_haircut"`
	MaxDebtToIncome         float64 `yaml:"max_debt_to_income" json:"max_debt_to_income"`
}

// ProjectionConfig holds simulation-wide settings
type ProjectionConfig struct {
	StartYear          int     `yaml:"start_year" json:"start_year"` // 0 = current calendar year
	SafeWithdrawalRate float64 `yaml:"safe_withdrawal_rate" json:"safe_withdrawal_rate"`
	PropertyGrowthMin  float64 `yaml:"property_growth_min" json:"property_growth_min"`
	PropertyGrowthMax  float64 `yaml:"property_growth_max" json:"property_growth_max"`
	MaxYears           int     `yaml:"max_years" json:"max_years"`
}

// Drawdown policies
const (
	DrawdownFixedPercentage = "fixed-percentage"
	DrawdownExpenses        = "expenses"
	DrawdownGuardrails      = "guardrails"
	DrawdownVPW             = "vpw"
)

// Interest-only expiry policies
const (
	InterestOnlyRevert    = "revert"
	InterestOnlyRefinance = "refinance"
)

// DrawdownConfig controls how retirement withdrawals are sized
type DrawdownConfig struct {
	Policy    string  `yaml:"policy" json:"policy"`
	FixedRate float64 `yaml:"fixed_rate" json:"fixed_rate"`

	// Guardrails (Guyton-Klinger)
	GuardrailsUpperLimit float64 `yaml:"guardrails_upper_limit" json:"guardrails_upper_limit"` // e.g. 1.20 = 120% of initial rate
	GuardrailsLowerLimit float64 `yaml:"guardrails_lower_limit" json:"guardrails_lower_limit"` // e.g. 0.80 = 80% of initial rate
	GuardrailsAdjustment float64 `yaml:"guardrails_adjustment" json:"guardrails_adjustment"`

	// VPW
	VPWFloor   float64 `yaml:"vpw_floor" json:"vpw_floor"`
	VPWCeiling float64 `yaml:"vpw_ceiling" json:"vpw_ceiling"` // Multiple of floor, 0 = no ceiling

	InterestOnlyExpiry          string `yaml:"interest_only_expiry" json:"interest_only_expiry"`
	InterestOnlyRevertTermYears int    `yaml:"interest_only_revert_term_years" json:"interest_only_revert_term_years"`
}

// SensitivityConfig holds the return grid used by sensitivity analysis
type SensitivityConfig struct {
	SuperReturnMin float64 `yaml:"super_return_min" json:"super_return_min"`
	SuperReturnMax float64 `yaml:"super_return_max" json:"super_return_max"`
	ETFReturnMin   float64 `yaml:"etf_return_min" json:"etf_return_min"`
	ETFReturnMax   float64 `yaml:"etf_return_max" json:"etf_return_max"`
	StepSize       float64 `yaml:"step_size" json:"step_size"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Address string `yaml:"address" json:"address"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// Config holds the complete configuration
type Config struct {
	Tax         TaxConfig         `yaml:"tax" json:"tax"`
	Super       SuperConfig       `yaml:"super" json:"super"`
	Lending     LendingConfig     `yaml:"lending" json:"lending"`
	Projection  ProjectionConfig  `yaml:"projection" json:"projection"`
	Drawdown    DrawdownConfig    `yaml:"drawdown" json:"drawdown"`
	Sensitivity SensitivityConfig `yaml:"sensitivity" json:"sensitivity"`
	Server      ServerConfig      `yaml:"server" json:"server"`
}

// GetBrackets returns the configured brackets, falling back to 2024-25 resident rates
func (tc *TaxConfig) GetBrackets() []TaxBand {
	if len(tc.Brackets) == 0 {
		return DefaultTaxConfig().Brackets
	}
	return tc.Brackets
}

// GetTaxFreeThreshold returns the upper bound of the zero-rate bracket
func (tc *TaxConfig) GetTaxFreeThreshold() float64 {
	for _, band := range tc.GetBrackets() {
		if band.Rate == 0 && band.Lower == 0 {
			return band.Upper
		}
	}
	return 0
}

// GetStudentLoanBands returns the repayment bands sorted as configured
func (tc *TaxConfig) GetStudentLoanBands() []StudentLoanBand {
	if len(tc.StudentLoanBands) == 0 {
		return DefaultTaxConfig().StudentLoanBands
	}
	return tc.StudentLoanBands
}

// DefaultTaxConfig returns the Australian resident schedule for 2024-25
func DefaultTaxConfig() TaxConfig {
	return TaxConfig{
		Year: "2024-25",
		Brackets: []TaxBand{
			{Name: "Tax-free threshold", Lower: 0, Upper: 18200, Rate: 0},
			{Name: "16% bracket", Lower: 18200, Upper: 45000, Rate: 0.16},
			{Name: "30% bracket", Lower: 45000, Upper: 135000, Rate: 0.30},
			{Name: "37% bracket", Lower: 135000, Upper: 190000, Rate: 0.37},
			{Name: "Top bracket", Lower: 190000, Upper: 0, Rate: 0.45},
		},
		Medicare:        MedicareConfig{Rate: 0.02, LowIncomeThreshold: 27222, ShadeInRate: 0.10},
		LowIncomeOffset: OffsetConfig{Max: 700, PhaseOutStart: 37500, Cutoff: 66667},
		StudentLoanBands: []StudentLoanBand{
			{54435, 0.01}, {62851, 0.02}, {66621, 0.025}, {70619, 0.03},
			{74856, 0.035}, {79347, 0.04}, {84108, 0.045}, {89155, 0.05},
			{94504, 0.055}, {100175, 0.06}, {106186, 0.065}, {112557, 0.07},
			{119310, 0.075}, {126468, 0.08}, {134057, 0.085}, {142101, 0.09},
			{150627, 0.095}, {159664, 0.10},
		},
	}
}

// GetConcessionalCap returns the annual concessional contributions cap
func (sc *SuperConfig) GetConcessionalCap() float64 {
	if sc.ConcessionalCap <= 0 {
		return 30000
	}
	return sc.ConcessionalCap
}

// GetContributionsTaxRate returns the tax charged inside the fund on concessional contributions
func (sc *SuperConfig) GetContributionsTaxRate() float64 {
	if sc.ContributionsTaxRate <= 0 {
		return 0.15
	}
	return sc.ContributionsTaxRate
}

// GetPreservationAge returns the age from which super can be drawn
func (sc *SuperConfig) GetPreservationAge() int {
	if sc.PreservationAge <= 0 {
		return 60
	}
	return sc.PreservationAge
}

func (lc *LendingConfig) GetMaxDebtServiceRatio() float64 {
	if lc.MaxDebtServiceRatio <= 0 {
		return 0.35
	}
	return lc.MaxDebtServiceRatio
}

func (lc *LendingConfig) GetAssessmentBufferPercent() float64 {
	if lc.AssessmentBufferPercent <= 0 {
		return 3.0
	}
	return lc.AssessmentBufferPercent
}

func (lc *LendingConfig) GetBaseRatePercent() float64 {
	if lc.BaseRatePercent <= 0 {
		return 6.25
	}
	return lc.BaseRatePercent
}

func (lc *LendingConfig) GetTermYears() int {
	if lc.TermYears <= 0 {
		return 30
	}
	return lc.TermYears
}

func (lc *LendingConfig) GetRentalIncomeHaircut() float64 {
	if lc.RentalIncomeHaircut <= 0 {
		return 0.80
	}
	return lc.RentalIncomeHaircut
}

func (lc *LendingConfig) GetMaxDebtToIncome() float64 {
	if lc.MaxDebtToIncome <= 0 {
		return 6
	}
	return lc.MaxDebtToIncome
}

// GetStartYear returns the first projected calendar year, defaulting to the year of now
func (pc *ProjectionConfig) GetStartYear(now time.Time) int {
	if pc.StartYear <= 0 {
		return now.Year()
	}
	return pc.StartYear
}

func (pc *ProjectionConfig) GetSafeWithdrawalRate() float64 {
	if pc.SafeWithdrawalRate <= 0 {
		return 0.04
	}
	return pc.SafeWithdrawalRate
}

// GetPropertyGrowthBounds returns the range default property growth is clamped to
func (pc *ProjectionConfig) GetPropertyGrowthBounds() (lo, hi float64) {
	lo, hi = pc.PropertyGrowthMin, pc.PropertyGrowthMax
	if lo <= 0 {
		lo = 0.02
	}
	if hi <= 0 || hi < lo {
		hi = 0.08
	}
	return lo, hi
}

// GetMaxYears returns the longest year span a projection may cover
func (pc *ProjectionConfig) GetMaxYears() int {
	if pc.MaxYears <= 0 {
		return 120
	}
	return pc.MaxYears
}

func (dc *DrawdownConfig) GetPolicy() string {
	switch dc.Policy {
	case DrawdownExpenses, DrawdownGuardrails, DrawdownVPW:
		return dc.Policy
	}
	return DrawdownFixedPercentage
}

func (dc *DrawdownConfig) GetFixedRate() float64 {
	if dc.FixedRate <= 0 {
		return 0.04
	}
	return dc.FixedRate
}

func (dc *DrawdownConfig) GetInterestOnlyExpiry() string {
	if dc.InterestOnlyExpiry == InterestOnlyRefinance {
		return InterestOnlyRefinance
	}
	return InterestOnlyRevert
}

func (dc *DrawdownConfig) GetInterestOnlyRevertTermYears() int {
	if dc.InterestOnlyRevertTermYears <= 0 {
		return 25
	}
	return dc.InterestOnlyRevertTermYears
}

// GetStepSize returns the sensitivity grid step
func (sc *SensitivityConfig) GetStepSize() float64 {
	if sc.StepSize <= 0 {
		return 0.01
	}
	return sc.StepSize
}

// GetAddress returns the listen address, honouring the PORT environment variable
func (sc *ServerConfig) GetAddress() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	if sc.Address == "" {
		return ":8080"
	}
	return sc.Address
}

// GetDataDir returns the scenario store directory, honouring DATA_DIR
func (sc *ServerConfig) GetDataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	if sc.DataDir == "" {
		return "data"
	}
	return sc.DataDir
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(preprocessPercentages(string(data))), &config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}

	return &config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	header := []byte(`# Retirement Planner configuration
# Percentages are decimals (0.05 = 5%) except base_rate_percent and
# assessment_buffer_percent, which are percentage points.

`)
	return os.WriteFile(filename, append(header, data...), 0644)
}

// LoadDefaultConfig loads the configuration compiled into the binary
func LoadDefaultConfig() (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(preprocessPercentages(defaultConfigYAML)), &config); err != nil {
		return nil, fmt.Errorf("parse embedded config: %w", err)
	}
	return &config, nil
}

// LoadConfigOrDefault loads filename if given, otherwise the embedded defaults
func LoadConfigOrDefault(filename string) (*Config, error) {
	if filename == "" {
		return LoadDefaultConfig()
	}
	return LoadConfig(filename)
}

// percentPattern matches a whole value like "5%"; text such as "16% bracket" is left alone
var percentPattern = regexp.MustCompile(`(?m)(:\s*)(\d+\.?\d*)%(\s*(?:[,}#]|$))`)

// preprocessPercentages converts percentage values like "5%" to decimal "0.05"
func preprocessPercentages(content string) string {
	return percentPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := percentPattern.FindStringSubmatch(match)
		if len(parts) >= 4 {
			num, err := strconv.ParseFloat(parts[2], 64)
			if err == nil {
				return parts[1] + strconv.FormatFloat(num/100.0, 'f', -1, 64) + parts[3]
			}
		}
		return match
	})
}
