package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SnapshotBuilder asks for a financial snapshot one question at a time.
// Blank answers keep the shown default; so does end of input.
type SnapshotBuilder struct {
	reader *bufio.Reader
	out    io.Writer
	eof    bool
}

// NewSnapshotBuilder creates a builder reading answers from in
func NewSnapshotBuilder(in io.Reader, out io.Writer) *SnapshotBuilder {
	return &SnapshotBuilder{reader: bufio.NewReader(in), out: out}
}

func (b *SnapshotBuilder) readLine() string {
	if b.eof {
		return ""
	}
	input, err := b.reader.ReadString('\n')
	if err != nil {
		b.eof = true
	}
	return strings.TrimSpace(input)
}

// parseMoney accepts "100k", "1.5m", "$250,000" or "250000"
func parseMoney(input string) (float64, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	input = strings.TrimPrefix(input, "$")
	input = strings.ReplaceAll(input, ",", "")
	multiplier := 1.0
	if strings.HasSuffix(input, "k") {
		multiplier = 1000
		input = strings.TrimSuffix(input, "k")
	} else if strings.HasSuffix(input, "m") {
		multiplier = 1000000
		input = strings.TrimSuffix(input, "m")
	}
	val, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, err
	}
	return val * multiplier, nil
}

// parsePercentOrDecimal converts "5%" or "0.05" to 0.05
func parsePercentOrDecimal(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if numStr, ok := strings.CutSuffix(input, "%"); ok {
		num, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
		if err != nil {
			return 0, err
		}
		return num / 100.0, nil
	}
	return strconv.ParseFloat(input, 64)
}

func (b *SnapshotBuilder) promptInt(prompt string, defaultVal, min, max int) int {
	for {
		fmt.Fprintf(b.out, "%s [%d]: ", prompt, defaultVal)
		input := b.readLine()
		if input == "" {
			return defaultVal
		}
		val, err := strconv.Atoi(input)
		if err != nil || val < min || val > max {
			fmt.Fprintf(b.out, "  ✗ Enter a whole number between %d and %d\n", min, max)
			continue
		}
		return val
	}
}

func (b *SnapshotBuilder) promptMoney(prompt string, defaultVal float64) float64 {
	for {
		fmt.Fprintf(b.out, "%s [%s]: ", prompt, FormatMoney(defaultVal))
		input := b.readLine()
		if input == "" {
			return defaultVal
		}
		val, err := parseMoney(input)
		if err != nil {
			fmt.Fprintf(b.out, "  ✗ Invalid amount. Enter as '100k', '1.5m', or '100000'\n")
			continue
		}
		if val < 0 {
			fmt.Fprintf(b.out, "  ✗ Amount cannot be negative\n")
			continue
		}
		return val
	}
}

func (b *SnapshotBuilder) promptPercent(prompt string, defaultVal float64) float64 {
	for {
		fmt.Fprintf(b.out, "%s [%s]: ", prompt, FormatPercent(defaultVal))
		input := b.readLine()
		if input == "" {
			return defaultVal
		}
		val, err := parsePercentOrDecimal(input)
		if err != nil {
			fmt.Fprintf(b.out, "  ✗ Invalid percentage. Enter as '5%%' or '0.05'\n")
			continue
		}
		if val < 0 || val > 1 {
			fmt.Fprintf(b.out, "  ✗ Rate must be between 0%% and 100%%\n")
			continue
		}
		return val
	}
}

func (b *SnapshotBuilder) promptYesNo(prompt string, defaultVal bool) bool {
	def := "y/N"
	if defaultVal {
		def = "Y/n"
	}
	for {
		fmt.Fprintf(b.out, "%s [%s]: ", prompt, def)
		switch strings.ToLower(b.readLine()) {
		case "":
			return defaultVal
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Fprintf(b.out, "  ✗ Answer y or n\n")
	}
}

func (b *SnapshotBuilder) promptOption(prompt string, options []string, defaultVal string) string {
	for {
		fmt.Fprintf(b.out, "%s (%s) [%s]: ", prompt, strings.Join(options, ", "), defaultVal)
		input := b.readLine()
		if input == "" {
			return defaultVal
		}
		for _, o := range options {
			if strings.EqualFold(o, input) {
				return o
			}
		}
		fmt.Fprintf(b.out, "  ✗ Choose one of %s\n", strings.Join(options, ", "))
	}
}

// BuildSnapshot walks through the questions and returns a validated snapshot
func (b *SnapshotBuilder) BuildSnapshot(maxYears int) (FinancialSnapshot, error) {
	s := FinancialSnapshot{Version: SnapshotVersion, Assumptions: DefaultAssumptions()}

	printBanner(b.out, "NEW FINANCIAL SNAPSHOT")

	printSection(b.out, "About you")
	s.Person.CurrentAge = b.promptInt("Current age", 30, 16, 100)
	s.Person.RetirementAge = b.promptInt("Retirement age", max(65, s.Person.CurrentAge+1), s.Person.CurrentAge+1, 100)
	s.Person.LifeExpectancyAge = b.promptInt("Plan to age", max(90, s.Person.RetirementAge), s.Person.RetirementAge, 120)
	fmt.Fprintln(b.out)

	printSection(b.out, "Income and spending")
	s.IncomeExpense.AnnualSalary = b.promptMoney("Annual salary before tax", 90000)
	s.IncomeExpense.WageGrowthRate = b.promptPercent("Wage growth", 0.03)
	s.IncomeExpense.MonthlyExpenses = b.promptMoney("Monthly living expenses (excluding rent)", 3500)
	s.IncomeExpense.HasStudentLoan = b.promptYesNo("Student loan (HELP)?", false)
	s.IncomeExpense.IsRenting = b.promptYesNo("Renting?", false)
	if s.IncomeExpense.IsRenting {
		s.IncomeExpense.MonthlyRent = b.promptMoney("Monthly rent", 2200)
	}
	fmt.Fprintln(b.out)

	printSection(b.out, "Super")
	s.Superannuation.CurrentBalance = b.promptMoney("Super balance", 50000)
	s.Superannuation.GuaranteeRate = b.promptPercent("Employer contribution rate", 0.12)
	s.Superannuation.MonthlySalarySacrifice = b.promptMoney("Monthly salary sacrifice", 0)
	s.Superannuation.InvestmentOption = InvestmentOption(b.promptOption("Investment option",
		[]string{string(Conservative), string(Balanced), string(Growth), string(HighGrowth)}, string(Balanced)))
	fmt.Fprintln(b.out)

	printSection(b.out, "Investments and cash")
	s.Portfolio.CurrentValue = b.promptMoney("ETF portfolio value", 0)
	s.Portfolio.MonthlyContribution = b.promptMoney("Monthly ETF investment", 500)
	s.Portfolio.AllocationPreset = AllocationPreset(b.promptOption("Allocation",
		[]string{string(SingleFund), string(TwoFund)}, string(SingleFund)))
	s.Buffer.CurrentBalance = b.promptMoney("Emergency cash", 10000)
	s.Buffer.TargetMonths = float64(b.promptInt("Emergency buffer target (months)", 3, 0, 24))
	fmt.Fprintln(b.out)

	printSection(b.out, "Assumptions")
	s.Assumptions.InflationRate = b.promptPercent("Inflation", s.Assumptions.InflationRate)
	s.Assumptions.CashReturnRate = b.promptPercent("Cash return", 0.04)
	fmt.Fprintln(b.out)

	if err := ValidateSnapshot(&s, maxYears); err != nil {
		return s, err
	}
	return s, nil
}
