package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// scenariosFile is the file a fileScenarioRepo keeps under its directory
const scenariosFile = "scenarios.json"

/*
fileScenarioRepo keeps an in-memory index and rewrites scenarios.json atomically
after every mutation. The file is an export envelope, so it can be imported elsewhere as is.
*/
type fileScenarioRepo struct {
	path string

	mu        sync.RWMutex
	scenarios map[string]Scenario
}

func NewFileScenarioRepo(dir string) (*fileScenarioRepo, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	r := &fileScenarioRepo{
		path:      filepath.Join(dir, scenariosFile),
		scenarios: map[string]Scenario{},
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileScenarioRepo) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	var env ScenarioEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("parse %s: %w", r.path, err)
	}
	if env.Version != EnvelopeVersion {
		return fmt.Errorf("%s: %w: store version %d", r.path, ErrUnsupportedVersion, env.Version)
	}
	for _, sc := range env.Scenarios {
		r.scenarios[sc.ID] = sc
	}
	return nil
}

func (r *fileScenarioRepo) saveLocked() error {
	env := ScenarioEnvelope{
		ExportedAt: time.Now().UTC(),
		Version:    EnvelopeVersion,
		Scenarios:  make([]Scenario, 0, len(r.scenarios)),
	}
	for _, sc := range r.scenarios {
		env.Scenarios = append(env.Scenarios, sc)
	}
	sort.Slice(env.Scenarios, func(i, j int) bool { return env.Scenarios[i].ID < env.Scenarios[j].ID })
	data, err := EncodeEnvelope(env)
	if err != nil {
		return err
	}
	return atomicWriteFile(r.path, data)
}

func atomicWriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func (r *fileScenarioRepo) Create(sc Scenario) (Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc.PlannerState = sc.PlannerState.Clone()
	r.scenarios[sc.ID] = sc
	if err := r.saveLocked(); err != nil {
		delete(r.scenarios, sc.ID)
		return Scenario{}, err
	}
	return sc, nil
}

func (r *fileScenarioRepo) GetByID(id string) (Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.scenarios[id]
	if !ok {
		return Scenario{}, ErrScenarioNotFound
	}
	sc.PlannerState = sc.PlannerState.Clone()
	return sc, nil
}

func (r *fileScenarioRepo) List() ([]Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, 0, len(r.scenarios))
	for _, sc := range r.scenarios {
		sc.PlannerState = sc.PlannerState.Clone()
		out = append(out, sc)
	}
	return out, nil
}

func (r *fileScenarioRepo) Update(sc Scenario) (Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.scenarios[sc.ID]
	if !ok {
		return Scenario{}, ErrScenarioNotFound
	}
	sc.PlannerState = sc.PlannerState.Clone()
	r.scenarios[sc.ID] = sc
	if err := r.saveLocked(); err != nil {
		r.scenarios[sc.ID] = prev
		return Scenario{}, err
	}
	return sc, nil
}

func (r *fileScenarioRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.scenarios[id]
	if !ok {
		return ErrScenarioNotFound
	}
	delete(r.scenarios, id)
	if err := r.saveLocked(); err != nil {
		r.scenarios[id] = prev
		return err
	}
	return nil
}
