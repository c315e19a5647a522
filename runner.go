package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrRunFailed wraps a panic recovered from a projection run
var ErrRunFailed = errors.New("projection run failed")

// Outcome is the result of one submitted run
type Outcome struct {
	Generation uint64      `json:"generation"`
	Projection *Projection `json:"projection,omitempty"`
	Err        error       `json:"-"`
	Superseded bool        `json:"superseded"`
}

// Ticket identifies a submitted run
type Ticket struct {
	Generation uint64
	done       <-chan Outcome
}

// Wait blocks until the run finishes or ctx is done
func (t Ticket) Wait(ctx context.Context) (Outcome, error) {
	select {
	case out := <-t.done:
		return out, nil
	case <-ctx.Done():
		return Outcome{Generation: t.Generation}, ctx.Err()
	}
}

// Runner keeps one logical run slot. Each Submit starts a new generation and cancels
// the previous run; a result is stored only if its generation is still the newest.
type Runner struct {
	project func(context.Context, FinancialSnapshot) (*Projection, error)

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	latest     *Outcome
}

// NewRunner creates a runner for engine
func NewRunner(engine *Engine) *Runner {
	return &Runner{project: engine.Project}
}

// Submit starts a projection of a private copy of snap and returns immediately
func (r *Runner) Submit(ctx context.Context, snap FinancialSnapshot) Ticket {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	if r.cancel != nil {
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	snap = snap.Clone()
	done := make(chan Outcome, 1)
	go func() {
		defer cancel()
		p, err := r.safeProject(runCtx, snap)
		done <- r.complete(gen, p, err)
	}()
	return Ticket{Generation: gen, done: done}
}

// Run submits snap and waits for its outcome
func (r *Runner) Run(ctx context.Context, snap FinancialSnapshot) (Outcome, error) {
	return r.Submit(ctx, snap).Wait(ctx)
}

func (r *Runner) safeProject(ctx context.Context, snap FinancialSnapshot) (p *Projection, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("%w: %v", ErrRunFailed, rec)
		}
	}()
	return r.project(ctx, snap)
}

func (r *Runner) complete(gen uint64, p *Projection, err error) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Outcome{Generation: gen, Projection: p, Err: err}
	if gen != r.generation {
		out.Superseded = true
		log.Printf("run %d superseded by %d, result discarded", gen, r.generation)
		return out
	}
	if p != nil {
		p.Generation = gen
	}
	r.latest = &out
	return out
}

// Latest returns the newest stored outcome
func (r *Runner) Latest() (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return Outcome{}, false
	}
	return *r.latest, true
}

// Generation returns the newest generation submitted
func (r *Runner) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Cancel stops any run in flight
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

const (
	defaultMaxSessions = 1024
	defaultSessionIdle = 30 * time.Minute
)

type poolEntry struct {
	runner   *Runner
	lastUsed time.Time
}

// RunnerPool hands out one Runner per session. Sessions idle longer than IdleTimeout
// are dropped, and once MaxSessions is reached the least recently used one makes room.
type RunnerPool struct {
	engine      *Engine
	clock       Clock
	MaxSessions int
	IdleTimeout time.Duration

	mu      sync.Mutex
	runners map[string]*poolEntry
}

func NewRunnerPool(engine *Engine) *RunnerPool {
	return &RunnerPool{
		engine:      engine,
		clock:       engine.clock,
		MaxSessions: defaultMaxSessions,
		IdleTimeout: defaultSessionIdle,
		runners:     make(map[string]*poolEntry),
	}
}

// Get returns the runner for session, creating it on first use
func (p *RunnerPool) Get(session string) *Runner {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if e, ok := p.runners[session]; ok {
		e.lastUsed = now
		return e.runner
	}

	p.evictIdle(now)
	if p.MaxSessions > 0 && len(p.runners) >= p.MaxSessions {
		p.evictOldest()
	}
	e := &poolEntry{runner: NewRunner(p.engine), lastUsed: now}
	p.runners[session] = e
	return e.runner
}

// Len reports how many sessions hold a runner
func (p *RunnerPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.runners)
}

// Forget cancels and drops a session's runner
func (p *RunnerPool) Forget(session string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drop(session)
}

func (p *RunnerPool) evictIdle(now time.Time) {
	if p.IdleTimeout <= 0 {
		return
	}
	for id, e := range p.runners {
		if now.Sub(e.lastUsed) > p.IdleTimeout {
			p.drop(id)
		}
	}
}

func (p *RunnerPool) evictOldest() {
	var (
		oldest string
		at     time.Time
		found  bool
	)
	for id, e := range p.runners {
		if !found || e.lastUsed.Before(at) || (e.lastUsed.Equal(at) && id < oldest) {
			oldest, at, found = id, e.lastUsed, true
		}
	}
	if found {
		log.Printf("runner pool full (%d sessions), dropping %s", len(p.runners), oldest)
		p.drop(oldest)
	}
}

// drop must be called with p.mu held
func (p *RunnerPool) drop(session string) {
	if e, ok := p.runners[session]; ok {
		e.runner.Cancel()
		delete(p.runners, session)
	}
}
