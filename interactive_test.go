package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"100000", 100000, false},
		{"100k", 100000, false},
		{"1.5m", 1500000, false},
		{"$250,000", 250000, false},
		{" 2.5K ", 2500, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMoney(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestParsePercentOrDecimal(t *testing.T) {
	v, err := parsePercentOrDecimal("5%")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, v, 1e-12)

	v, err = parsePercentOrDecimal("0.115")
	require.NoError(t, err)
	assert.Equal(t, 0.115, v)

	_, err = parsePercentOrDecimal("five%")
	assert.Error(t, err)
}

func TestBuildSnapshot_Defaults(t *testing.T) {
	var out bytes.Buffer
	b := NewSnapshotBuilder(strings.NewReader(""), &out)

	snap, err := b.BuildSnapshot(120)
	require.NoError(t, err)

	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, Person{CurrentAge: 30, RetirementAge: 65, LifeExpectancyAge: 90}, snap.Person)
	assert.Equal(t, 90000.0, snap.IncomeExpense.AnnualSalary)
	assert.False(t, snap.IncomeExpense.IsRenting)
	assert.Equal(t, Balanced, snap.Superannuation.InvestmentOption)
	assert.Equal(t, 0.12, snap.Superannuation.GuaranteeRate)
	assert.Equal(t, SingleFund, snap.Portfolio.AllocationPreset)
	assert.Equal(t, DefaultAssumptions().SuperReturnByOption, snap.Assumptions.SuperReturnByOption)
	assert.Contains(t, out.String(), "Current age [30]: ")
}

func TestBuildSnapshot_Answers(t *testing.T) {
	answers := []string{
		"abc", "45", // age, retried after a bad answer
		"",     // retirement age keeps 65
		"92",   // plan to age
		"120k", // salary
		"3.5%", // wage growth
		"$4,000",
		"y",   // student loan
		"yes", // renting
		"2.5k",
		"1.2m",  // super
		"0.115", // employer rate
		"",      // salary sacrifice
		"growth",
		"50k", "1k", "TwoFund",
		"20k", "6",
		"3%", "",
	}
	var out bytes.Buffer
	b := NewSnapshotBuilder(strings.NewReader(strings.Join(answers, "\n")+"\n"), &out)

	snap, err := b.BuildSnapshot(120)
	require.NoError(t, err)

	assert.Equal(t, Person{CurrentAge: 45, RetirementAge: 65, LifeExpectancyAge: 92}, snap.Person)
	assert.Equal(t, 120000.0, snap.IncomeExpense.AnnualSalary)
	assert.InDelta(t, 0.035, snap.IncomeExpense.WageGrowthRate, 1e-12)
	assert.Equal(t, 4000.0, snap.IncomeExpense.MonthlyExpenses)
	assert.True(t, snap.IncomeExpense.HasStudentLoan)
	assert.True(t, snap.IncomeExpense.IsRenting)
	assert.Equal(t, 2500.0, snap.IncomeExpense.MonthlyRent)
	assert.InDelta(t, 1200000, snap.Superannuation.CurrentBalance, 1e-6)
	assert.Equal(t, 0.115, snap.Superannuation.GuaranteeRate)
	assert.Zero(t, snap.Superannuation.MonthlySalarySacrifice)
	assert.Equal(t, Growth, snap.Superannuation.InvestmentOption)
	assert.Equal(t, 50000.0, snap.Portfolio.CurrentValue)
	assert.Equal(t, TwoFund, snap.Portfolio.AllocationPreset)
	assert.Equal(t, 6.0, snap.Buffer.TargetMonths)
	assert.InDelta(t, 0.03, snap.Assumptions.InflationRate, 1e-12)
	assert.Equal(t, 0.04, snap.Assumptions.CashReturnRate)

	assert.Contains(t, out.String(), "✗ Enter a whole number between 16 and 100")
}
