package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessPercentages(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rate: 15%", "rate: 0.15"},
		{"rate: 2.5%", "rate: 0.025"},
		{"rate:   0%", "rate:   0"},
		{"rate: 0.15", "rate: 0.15"},
		{"name: 30% bracket", "name: 30% bracket"},
		{"fixed_rate: 4%   # comment", "fixed_rate: 0.04   # comment"},
		{"a: 1%\nb: 2%", "a: 0.01\nb: 0.02"},
		{"- { threshold: 54435, rate: 1% }", "- { threshold: 54435, rate: 0.01 }"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, preprocessPercentages(tt.in))
		})
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultTaxConfig().Brackets, cfg.Tax.GetBrackets())
	assert.Equal(t, 18200.0, cfg.Tax.GetTaxFreeThreshold())
	assert.Equal(t, 0.02, cfg.Tax.Medicare.Rate)
	assert.Len(t, cfg.Tax.GetStudentLoanBands(), 18)

	assert.Equal(t, 0.15, cfg.Super.GetContributionsTaxRate())
	assert.Equal(t, 0.35, cfg.Lending.GetMaxDebtServiceRatio())
	assert.Equal(t, 6.25, cfg.Lending.GetBaseRatePercent())
	assert.Equal(t, DrawdownFixedPercentage, cfg.Drawdown.GetPolicy())
	assert.Equal(t, 0.04, cfg.Drawdown.GetFixedRate())
	assert.Equal(t, InterestOnlyRevert, cfg.Drawdown.GetInterestOnlyExpiry())
	assert.Equal(t, 0.10, cfg.Sensitivity.SuperReturnMax)
}

func TestConfigGetterDefaults(t *testing.T) {
	var cfg Config
	now := time.Date(2031, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 30000.0, cfg.Super.GetConcessionalCap())
	assert.Equal(t, 60, cfg.Super.GetPreservationAge())
	assert.Equal(t, 3.0, cfg.Lending.GetAssessmentBufferPercent())
	assert.Equal(t, 30, cfg.Lending.GetTermYears())
	assert.Equal(t, 0.80, cfg.Lending.GetRentalIncomeHaircut())
	assert.Equal(t, 6.0, cfg.Lending.GetMaxDebtToIncome())
	assert.Equal(t, 2031, cfg.Projection.GetStartYear(now))
	assert.Equal(t, 120, cfg.Projection.GetMaxYears())
	assert.Equal(t, 0.04, cfg.Projection.GetSafeWithdrawalRate())
	assert.Equal(t, 25, cfg.Drawdown.GetInterestOnlyRevertTermYears())
	assert.Equal(t, 0.01, cfg.Sensitivity.GetStepSize())

	lo, hi := cfg.Projection.GetPropertyGrowthBounds()
	assert.Equal(t, 0.02, lo)
	assert.Equal(t, 0.08, hi)

	cfg.Projection.StartYear = 2030
	assert.Equal(t, 2030, cfg.Projection.GetStartYear(now))

	cfg.Drawdown.Policy = "unknown"
	assert.Equal(t, DrawdownFixedPercentage, cfg.Drawdown.GetPolicy())
	cfg.Drawdown.Policy = DrawdownGuardrails
	assert.Equal(t, DrawdownGuardrails, cfg.Drawdown.GetPolicy())
}

func TestServerConfigEnvironment(t *testing.T) {
	sc := ServerConfig{Address: ":9000", DataDir: "store"}

	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	assert.Equal(t, ":9000", sc.GetAddress())
	assert.Equal(t, "store", sc.GetDataDir())

	t.Setenv("PORT", "7070")
	t.Setenv("DATA_DIR", "/tmp/scenarios")
	assert.Equal(t, ":7070", sc.GetAddress())
	assert.Equal(t, "/tmp/scenarios", sc.GetDataDir())
}

func TestSaveAndLoadConfig(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)
	cfg.Drawdown.Policy = DrawdownVPW
	cfg.Lending.BaseRatePercent = 5.5

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfigOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tax: [unclosed"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
