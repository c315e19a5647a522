package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// CurrentPosition holds the point-in-time figures shown alongside a projection
type CurrentPosition struct {
	Tax                  TaxBreakdown             `json:"tax"`
	Bracket              *MarginalBracket         `json:"bracket"`
	Contributions        ContributionSplit        `json:"contributions"`
	StudentLoanRepayment float64                  `json:"studentLoanRepayment"`
	PropertyMetrics      []PropertyMetrics        `json:"propertyMetrics"`
	BorrowingCapacity    *BorrowingCapacityResult `json:"borrowingCapacity"`
}

// Projection is the outcome of one engine run
type Projection struct {
	RunID           string            `json:"runId"`
	Generation      uint64            `json:"generation,omitempty"`
	StartedAt       time.Time         `json:"startedAt"`
	CompletedAt     time.Time         `json:"completedAt"`
	DurationMs      int64             `json:"durationMs"`
	Current         CurrentPosition   `json:"current"`
	Result          *SimulationResult `json:"result"`
	Metrics         Metrics           `json:"metrics"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// Engine runs projections. It holds only read-only settings, so one Engine may
// serve any number of concurrent runs.
type Engine struct {
	cfg   *Config
	clock Clock
}

// NewEngine creates an engine. A nil clock uses the system time.
func NewEngine(cfg *Config, clock Clock) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	return &Engine{cfg: cfg, clock: clock}
}

// Config returns the engine settings
func (e *Engine) Config() *Config {
	return e.cfg
}

// CurrentPosition computes this year's tax, contribution and property figures
func (e *Engine) CurrentPosition(s *FinancialSnapshot) CurrentPosition {
	salary := s.IncomeExpense.AnnualSalary
	split := SplitContributions(&e.cfg.Super, salary, s.Superannuation.GuaranteeRate, s.Superannuation.MonthlySalarySacrifice*12)

	pos := CurrentPosition{
		Tax:               ComputeTaxBreakdown(&e.cfg.Tax, salary, split.Deductible),
		Bracket:           GetMarginalBracket(&e.cfg.Tax, salary-split.Deductible),
		Contributions:     split,
		PropertyMetrics:   ComputeAllPropertyMetrics(s.Properties),
		BorrowingCapacity: ComputeBorrowingCapacity(e.cfg, HouseholdFromSnapshot(s), s.Properties),
	}
	if s.IncomeExpense.HasStudentLoan {
		pos.StudentLoanRepayment = ComputeStudentLoanRepayment(&e.cfg.Tax, salary)
	}
	return pos
}

// Project validates the snapshot, simulates it and summarizes the result
func (e *Engine) Project(ctx context.Context, snap FinancialSnapshot) (*Projection, error) {
	started := e.clock.Now()
	startYear := e.cfg.Projection.GetStartYear(started)

	result, err := Simulate(ctx, e.cfg, startYear, snap)
	if err != nil {
		return nil, err
	}

	metrics := Summarize(e.cfg, &snap, result)
	p := &Projection{
		RunID:           uuid.NewString(),
		StartedAt:       started,
		Current:         e.CurrentPosition(&snap),
		Result:          result,
		Metrics:         metrics,
		Recommendations: Recommend(e.cfg, &snap, result, metrics),
	}
	p.CompletedAt = e.clock.Now()
	p.DurationMs = p.CompletedAt.Sub(started).Milliseconds()

	log.Printf("projection %s: %d years, can retire %t, assets at retirement %s (%dms)",
		p.RunID, result.Len(), metrics.CanRetire, FormatMoney(metrics.FinalAssets), p.DurationMs)
	return p, nil
}
