package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EnvelopeVersion is the export format version written by ExportEnvelope
const EnvelopeVersion = 1

var ErrInvalidEnvelope = errors.New("invalid scenario export")

// ScenarioEnvelope is the JSON document used to move scenarios between installations
type ScenarioEnvelope struct {
	ExportedAt time.Time  `json:"exportedAt"`
	Version    int        `json:"version"`
	Scenarios  []Scenario `json:"scenarios"`
}

// rawEnvelope holds planner states undecoded until they have been sanitized
type rawEnvelope struct {
	ExportedAt time.Time     `json:"exportedAt"`
	Version    int           `json:"version"`
	Scenarios  []rawScenario `json:"scenarios"`
}

type rawScenario struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
	PlannerState any       `json:"plannerState"`
	Version      int       `json:"version"`
}

// ImportResult reports what an import stored
type ImportResult struct {
	Scenarios     []Scenario `json:"scenarios"`
	ReassignedIDs int        `json:"reassignedIds"` // Scenarios given a fresh id because theirs was taken or missing
}

// ExportEnvelope wraps the given scenarios, or every stored scenario when ids is empty
func (s *ScenarioService) ExportEnvelope(ids ...string) (ScenarioEnvelope, error) {
	env := ScenarioEnvelope{
		ExportedAt: s.clock.Now().UTC(),
		Version:    EnvelopeVersion,
	}
	if len(ids) == 0 {
		list, err := s.List()
		if err != nil {
			return env, err
		}
		env.Scenarios = list
		return env, nil
	}
	for _, id := range ids {
		sc, err := s.repo.GetByID(id)
		if err != nil {
			return env, fmt.Errorf("export %s: %w", id, err)
		}
		env.Scenarios = append(env.Scenarios, sc)
	}
	return env, nil
}

// EncodeEnvelope renders env as indented JSON
func EncodeEnvelope(env ScenarioEnvelope) ([]byte, error) {
	if env.Scenarios == nil {
		env.Scenarios = []Scenario{}
	}
	return json.MarshalIndent(env, "", "  ")
}

// DecodeEnvelope parses an export. Each planner state is sanitized, strictly decoded and
// validated; any bad scenario fails the whole document so nothing is half imported.
func DecodeEnvelope(data []byte, maxYears int) (ScenarioEnvelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return ScenarioEnvelope{}, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if raw.Version != EnvelopeVersion {
		return ScenarioEnvelope{}, fmt.Errorf("%w: export version %d", ErrUnsupportedVersion, raw.Version)
	}

	env := ScenarioEnvelope{
		ExportedAt: raw.ExportedAt,
		Version:    raw.Version,
		Scenarios:  make([]Scenario, 0, len(raw.Scenarios)),
	}
	var errs []error
	for i, rs := range raw.Scenarios {
		sc, err := decodeRawScenario(rs, maxYears)
		if err != nil {
			errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, rs.Name, err))
			continue
		}
		env.Scenarios = append(env.Scenarios, sc)
	}
	if len(errs) > 0 {
		return ScenarioEnvelope{}, fmt.Errorf("%w: %w", ErrInvalidEnvelope, errors.Join(errs...))
	}
	return env, nil
}

func decodeRawScenario(rs rawScenario, maxYears int) (Scenario, error) {
	if strings.TrimSpace(rs.Name) == "" {
		return Scenario{}, ErrInvalidScenarioName
	}
	if rs.Version != 0 && rs.Version != SnapshotVersion {
		return Scenario{}, fmt.Errorf("%w: scenario version %d", ErrUnsupportedVersion, rs.Version)
	}
	if rs.PlannerState == nil {
		return Scenario{}, fmt.Errorf("%w: missing plannerState", ErrInvalidSnapshot)
	}

	clean, err := json.Marshal(Sanitize(rs.PlannerState, DefaultSanitizeDepth))
	if err != nil {
		return Scenario{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	snap, err := DecodeSnapshot(clean)
	if err != nil {
		return Scenario{}, err
	}
	if err := ValidateSnapshot(&snap, maxYears); err != nil {
		return Scenario{}, err
	}

	return Scenario{
		ID:           rs.ID,
		Name:         strings.TrimSpace(rs.Name),
		Description:  rs.Description,
		CreatedAt:    rs.CreatedAt,
		LastModified: rs.LastModified,
		PlannerState: snap,
		Version:      snap.Version,
	}, nil
}

// ImportEnvelope decodes data and stores every scenario in it. Ids that are missing, already
// stored or repeated within the document are replaced with fresh ones.
func (s *ScenarioService) ImportEnvelope(data []byte) (ImportResult, error) {
	env, err := DecodeEnvelope(data, s.maxYears)
	if err != nil {
		return ImportResult{}, err
	}

	now := s.clock.Now().UTC()
	result := ImportResult{Scenarios: make([]Scenario, 0, len(env.Scenarios))}
	used := make(map[string]bool, len(env.Scenarios))
	for _, sc := range env.Scenarios {
		if sc.ID == "" || used[sc.ID] || s.exists(sc.ID) {
			sc.ID = uuid.NewString()
			result.ReassignedIDs++
		}
		used[sc.ID] = true
		if sc.CreatedAt.IsZero() {
			sc.CreatedAt = now
		}
		if sc.LastModified.IsZero() {
			sc.LastModified = now
		}

		stored, err := s.repo.Create(sc)
		if err != nil {
			s.rollback(result.Scenarios)
			return ImportResult{}, fmt.Errorf("import %s: %w", sc.Name, err)
		}
		result.Scenarios = append(result.Scenarios, stored)
	}

	log.Printf("imported %d scenarios (%d new ids)", len(result.Scenarios), result.ReassignedIDs)
	return result, nil
}

// rollback removes scenarios stored earlier in a failed import
func (s *ScenarioService) rollback(stored []Scenario) {
	for _, sc := range stored {
		if err := s.repo.Delete(sc.ID); err != nil {
			log.Printf("import rollback: delete %s: %v", sc.ID, err)
		}
	}
}

func (s *ScenarioService) exists(id string) bool {
	_, err := s.repo.GetByID(id)
	return err == nil
}
