package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scenario is a named, saved planner state
type Scenario struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastModified time.Time         `json:"lastModified"`
	PlannerState FinancialSnapshot `json:"plannerState"`
	Version      int               `json:"version"`
}

// ScenarioRepository stores scenarios by id. Implementations must be safe for concurrent use.
type ScenarioRepository interface {
	Create(sc Scenario) (Scenario, error)
	GetByID(id string) (Scenario, error)
	List() ([]Scenario, error)
	Update(sc Scenario) (Scenario, error)
	Delete(id string) error
}

// ScenarioService validates and stamps scenarios before they reach a repository
type ScenarioService struct {
	repo     ScenarioRepository
	clock    Clock
	maxYears int
}

func NewScenarioService(repo ScenarioRepository, clock Clock, maxYears int) *ScenarioService {
	if clock == nil {
		clock = RealClock{}
	}
	return &ScenarioService{repo: repo, clock: clock, maxYears: maxYears}
}

func (s *ScenarioService) check(name string, snap *FinancialSnapshot) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidScenarioName
	}
	return ValidateSnapshot(snap, s.maxYears)
}

// Save stores snap as a new scenario
func (s *ScenarioService) Save(name, description string, snap FinancialSnapshot) (Scenario, error) {
	if err := s.check(name, &snap); err != nil {
		return Scenario{}, err
	}
	now := s.clock.Now().UTC()
	return s.repo.Create(Scenario{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Description:  description,
		CreatedAt:    now,
		LastModified: now,
		PlannerState: snap.Clone(),
		Version:      snap.Version,
	})
}

// Get returns the scenario with id
func (s *ScenarioService) Get(id string) (Scenario, error) {
	return s.repo.GetByID(id)
}

// List returns all scenarios, most recently modified first
func (s *ScenarioService) List() ([]Scenario, error) {
	list, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].LastModified.Equal(list[j].LastModified) {
			return list[i].ID < list[j].ID
		}
		return list[i].LastModified.After(list[j].LastModified)
	})
	return list, nil
}

// Update replaces the name, description and planner state of an existing scenario
func (s *ScenarioService) Update(id, name, description string, snap FinancialSnapshot) (Scenario, error) {
	if err := s.check(name, &snap); err != nil {
		return Scenario{}, err
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return Scenario{}, err
	}
	existing.Name = strings.TrimSpace(name)
	existing.Description = description
	existing.PlannerState = snap.Clone()
	existing.Version = snap.Version
	existing.LastModified = s.clock.Now().UTC()
	return s.repo.Update(existing)
}

// Delete removes the scenario with id
func (s *ScenarioService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("delete scenario %s: %w", id, err)
	}
	return nil
}
