package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock returns now until the test moves it
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type repoFactory struct {
	name string
	new  func(t *testing.T) ScenarioRepository
}

var repoFactories = []repoFactory{
	{"memory", func(t *testing.T) ScenarioRepository { return NewMemoryScenarioRepo() }},
	{"file", func(t *testing.T) ScenarioRepository {
		repo, err := NewFileScenarioRepo(t.TempDir())
		require.NoError(t, err)
		return repo
	}},
}

func TestScenarioService_SaveAndGet(t *testing.T) {
	for _, f := range repoFactories {
		t.Run(f.name, func(t *testing.T) {
			svc := NewScenarioService(f.new(t), FixedClock{T: testNow}, 120)
			snap := referenceSnapshot()

			sc, err := svc.Save("  Baseline  ", "Current plan", snap)
			require.NoError(t, err)
			assert.NotEmpty(t, sc.ID)
			assert.Equal(t, "Baseline", sc.Name)
			assert.Equal(t, testNow, sc.CreatedAt)
			assert.Equal(t, testNow, sc.LastModified)
			assert.Equal(t, SnapshotVersion, sc.Version)

			// The stored state is a copy
			snap.Assumptions.SuperReturnByOption[Balanced] = 0.5
			got, err := svc.Get(sc.ID)
			require.NoError(t, err)
			assert.Equal(t, 0.08, got.PlannerState.Assumptions.SuperReturnByOption[Balanced])
			assert.Equal(t, "Current plan", got.Description)

			got.PlannerState.Assumptions.SuperReturnByOption[Balanced] = 0.9
			again, err := svc.Get(sc.ID)
			require.NoError(t, err)
			assert.Equal(t, 0.08, again.PlannerState.Assumptions.SuperReturnByOption[Balanced])
		})
	}
}

func TestScenarioService_Rejects(t *testing.T) {
	svc := NewScenarioService(NewMemoryScenarioRepo(), FixedClock{T: testNow}, 120)

	_, err := svc.Save(" ", "", referenceSnapshot())
	assert.ErrorIs(t, err, ErrInvalidScenarioName)

	invalid := referenceSnapshot()
	invalid.Superannuation.CurrentBalance = -1
	_, err = svc.Save("Bad", "", invalid)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	_, err = svc.Update("missing", "Name", "", referenceSnapshot())
	assert.ErrorIs(t, err, ErrScenarioNotFound)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, ErrScenarioNotFound)

	err = svc.Delete("missing")
	assert.ErrorIs(t, err, ErrScenarioNotFound)

	list, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestScenarioService_UpdateAndList(t *testing.T) {
	for _, f := range repoFactories {
		t.Run(f.name, func(t *testing.T) {
			clock := &manualClock{now: testNow}
			svc := NewScenarioService(f.new(t), clock, 120)

			first, err := svc.Save("First", "", referenceSnapshot())
			require.NoError(t, err)
			clock.advance(time.Minute)
			second, err := svc.Save("Second", "", referenceSnapshot())
			require.NoError(t, err)

			list, err := svc.List()
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, second.ID, list[0].ID)
			assert.Equal(t, first.ID, list[1].ID)

			clock.advance(time.Minute)
			changed := referenceSnapshot()
			changed.IncomeExpense.AnnualSalary = 90000
			updated, err := svc.Update(first.ID, "First revised", "now with a raise", changed)
			require.NoError(t, err)
			assert.Equal(t, testNow, updated.CreatedAt)
			assert.Equal(t, testNow.Add(2*time.Minute), updated.LastModified)
			assert.Equal(t, 90000.0, updated.PlannerState.IncomeExpense.AnnualSalary)

			list, err = svc.List()
			require.NoError(t, err)
			assert.Equal(t, first.ID, list[0].ID)
			assert.Equal(t, "First revised", list[0].Name)

			require.NoError(t, svc.Delete(second.ID))
			list, err = svc.List()
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestScenarioService_ListTieBreaksByID(t *testing.T) {
	repo := NewMemoryScenarioRepo()
	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.Create(Scenario{ID: id, Name: id, LastModified: testNow, PlannerState: referenceSnapshot()})
		require.NoError(t, err)
	}
	svc := NewScenarioService(repo, FixedClock{T: testNow}, 120)

	list, err := svc.List()
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, sc := range list {
		ids[i] = sc.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestFileScenarioRepo_Persists(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileScenarioRepo(dir)
	require.NoError(t, err)
	svc := NewScenarioService(repo, FixedClock{T: testNow}, 120)

	keep, err := svc.Save("Keep", "", referenceSnapshot())
	require.NoError(t, err)
	drop, err := svc.Save("Drop", "", drawdownSnapshot())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(drop.ID))

	assert.FileExists(t, filepath.Join(dir, scenariosFile))

	reopened, err := NewFileScenarioRepo(dir)
	require.NoError(t, err)
	list, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	assert.Equal(t, keep.PlannerState, list[0].PlannerState)
	assert.True(t, keep.CreatedAt.Equal(list[0].CreatedAt))

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileScenarioRepo_StoresImportableEnvelope(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileScenarioRepo(dir)
	require.NoError(t, err)
	saved, err := NewScenarioService(repo, FixedClock{T: testNow}, 120).Save("Keep", "", referenceSnapshot())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, scenariosFile))
	require.NoError(t, err)

	env, err := DecodeEnvelope(data, 120)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeVersion, env.Version)
	require.Len(t, env.Scenarios, 1)
	assert.Equal(t, saved.ID, env.Scenarios[0].ID)
	assert.Equal(t, saved.PlannerState, env.Scenarios[0].PlannerState)

	// The store file imports into another installation unchanged
	result, err := newScenarioService().ImportEnvelope(data)
	require.NoError(t, err)
	assert.Zero(t, result.ReassignedIDs)
}

func TestFileScenarioRepo_RejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, scenariosFile), []byte(`{"version":9,"scenarios":[]}`), 0644))

	_, err := NewFileScenarioRepo(dir)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestFileScenarioRepo_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, scenariosFile), []byte("{not json"), 0644))

	_, err := NewFileScenarioRepo(dir)
	assert.Error(t, err)
}

func TestFileScenarioRepo_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, scenariosFile), nil, 0644))

	repo, err := NewFileScenarioRepo(dir)
	require.NoError(t, err)
	list, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
