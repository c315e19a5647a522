package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"
)

// SensitivityCell is the outcome for one super/ETF return pair
type SensitivityCell struct {
	SuperReturn       float64 `json:"superReturn"`
	ETFReturn         float64 `json:"etfReturn"`
	AssetsAtRetire    float64 `json:"assetsAtRetirement"`
	AssetsAtEnd       float64 `json:"assetsAtLifeExpectancy"`
	CanRetire         bool    `json:"canRetire"`
	RetirementIncome  float64 `json:"retirementIncome"`
	FirstShortfallAge *int    `json:"firstShortfallAge"`
}

// SensitivityAnalysis holds the grid, indexed [superIdx][etfIdx]
type SensitivityAnalysis struct {
	SuperReturns []float64           `json:"superReturns"`
	ETFReturns   []float64           `json:"etfReturns"`
	Cells        [][]SensitivityCell `json:"cells"`
	DurationMs   int64               `json:"durationMs"`
}

// buildReturnRates generates rates from min to max inclusive with the given step
func buildReturnRates(min, max, step float64) []float64 {
	var rates []float64
	for i := 0; ; i++ {
		r := min + float64(i)*step
		if r > max+0.0001 { // epsilon for float comparison
			break
		}
		rates = append(rates, roundRate(r))
	}
	return rates
}

// roundRate strips float noise from a generated rate (0.07000000000000001 -> 0.07)
func roundRate(r float64) float64 {
	return float64(int64(r*1e6+0.5)) / 1e6
}

func sensitivityRanges(sc *SensitivityConfig) (superRates, etfRates []float64) {
	superMin, superMax := sc.SuperReturnMin, sc.SuperReturnMax
	etfMin, etfMax := sc.ETFReturnMin, sc.ETFReturnMax
	if superMin == 0 && superMax == 0 {
		superMin, superMax = 0.04, 0.10
	}
	if etfMin == 0 && etfMax == 0 {
		etfMin, etfMax = 0.04, 0.10
	}
	step := sc.GetStepSize()
	return buildReturnRates(superMin, superMax, step), buildReturnRates(etfMin, etfMax, step)
}

// withReturns returns a copy of snap that earns superRate in super and etfRate in the ETF
func withReturns(snap FinancialSnapshot, superRate, etfRate float64) FinancialSnapshot {
	c := snap.Clone()
	if c.Assumptions.SuperReturnByOption == nil {
		c.Assumptions.SuperReturnByOption = map[InvestmentOption]float64{}
	}
	if c.Assumptions.ETFReturnByPreset == nil {
		c.Assumptions.ETFReturnByPreset = map[AllocationPreset]float64{}
	}
	c.Assumptions.SuperReturnByOption[c.Superannuation.InvestmentOption] = superRate
	c.Assumptions.ETFReturnByPreset[c.Portfolio.AllocationPreset] = etfRate
	c.Portfolio.ExpectedReturnOverride = nil
	return c
}

// RunSensitivityAnalysis simulates snap over the configured return grid. Cells run in
// parallel; the grid order depends only on the configured ranges.
func (e *Engine) RunSensitivityAnalysis(ctx context.Context, snap FinancialSnapshot) (*SensitivityAnalysis, error) {
	if err := ValidateSnapshot(&snap, e.cfg.Projection.GetMaxYears()); err != nil {
		return nil, err
	}
	started := e.clock.Now()
	startYear := e.cfg.Projection.GetStartYear(started)
	superRates, etfRates := sensitivityRanges(&e.cfg.Sensitivity)

	cells := make([][]SensitivityCell, len(superRates))
	for i := range cells {
		cells[i] = make([]SensitivityCell, len(etfRates))
	}

	type job struct{ si, ei int }
	jobs := make(chan job)
	errs := make([]error, len(superRates)*len(etfRates))

	var wg sync.WaitGroup
	workers := min(runtime.NumCPU(), len(errs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				s := withReturns(snap, superRates[j.si], etfRates[j.ei])
				result, err := Simulate(ctx, e.cfg, startYear, s)
				if err != nil {
					errs[j.si*len(etfRates)+j.ei] = fmt.Errorf("super %s, etf %s: %w",
						FormatPercent(superRates[j.si]), FormatPercent(etfRates[j.ei]), err)
					continue
				}
				m := Summarize(e.cfg, &s, result)
				cells[j.si][j.ei] = SensitivityCell{
					SuperReturn:       superRates[j.si],
					ETFReturn:         etfRates[j.ei],
					AssetsAtRetire:    m.FinalAssets,
					AssetsAtEnd:       m.AssetsAtLifeExpectancy,
					CanRetire:         m.CanRetire,
					RetirementIncome:  m.FinalAnnualIncome,
					FirstShortfallAge: m.FirstShortfallAge,
				}
			}
		}()
	}

feed:
	for si := range superRates {
		for ei := range etfRates {
			select {
			case jobs <- job{si, ei}:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	analysis := &SensitivityAnalysis{
		SuperReturns: superRates,
		ETFReturns:   etfRates,
		Cells:        cells,
		DurationMs:   e.clock.Now().Sub(started).Milliseconds(),
	}
	log.Printf("sensitivity: %d x %d grid in %s", len(superRates), len(etfRates),
		time.Duration(analysis.DurationMs)*time.Millisecond)
	return analysis, nil
}
