package main

import "sync"

// memoryScenarioRepo keeps scenarios in process memory
type memoryScenarioRepo struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
}

func NewMemoryScenarioRepo() *memoryScenarioRepo {
	return &memoryScenarioRepo{scenarios: make(map[string]Scenario)}
}

func (r *memoryScenarioRepo) Create(sc Scenario) (Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc.PlannerState = sc.PlannerState.Clone()
	r.scenarios[sc.ID] = sc
	return sc, nil
}

func (r *memoryScenarioRepo) GetByID(id string) (Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.scenarios[id]
	if !ok {
		return Scenario{}, ErrScenarioNotFound
	}
	sc.PlannerState = sc.PlannerState.Clone()
	return sc, nil
}

func (r *memoryScenarioRepo) List() ([]Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, 0, len(r.scenarios))
	for _, sc := range r.scenarios {
		sc.PlannerState = sc.PlannerState.Clone()
		out = append(out, sc)
	}
	return out, nil
}

func (r *memoryScenarioRepo) Update(sc Scenario) (Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenarios[sc.ID]; !ok {
		return Scenario{}, ErrScenarioNotFound
	}
	sc.PlannerState = sc.PlannerState.Clone()
	r.scenarios[sc.ID] = sc
	return sc, nil
}

func (r *memoryScenarioRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenarios[id]; !ok {
		return ErrScenarioNotFound
	}
	delete(r.scenarios, id)
	return nil
}
