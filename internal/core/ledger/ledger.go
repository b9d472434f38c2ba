// Package ledger persists execution progress so an apply run is idempotent
// and resumable across process restarts.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/colonyops/backdate/internal/core/plan"
)

// Filename is the ledger document name, created beside the target repository.
const Filename = ".backdate_state.json"

// ErrPlanDrift is returned when the persisted ledger refers to a different
// manifest than the one about to be applied.
var ErrPlanDrift = errors.New("manifest differs from the saved execution state")

// State is the persisted ledger record for one manifest.
type State struct {
	ManifestHash     string `json:"manifestHash"`
	LastAppliedIndex int    `json:"lastAppliedIndex"`
	TotalCommits     int    `json:"totalCommits"`
	IsComplete       bool   `json:"isComplete"`

	// LastCommitID is the repository head recorded at the latest
	// checkpoint, used to detect external history divergence on resume.
	LastCommitID string `json:"lastCommitId,omitempty"`

	Manifest plan.Manifest `json:"manifestSnapshot"`
}

// Store reads and writes the ledger record at a fixed path.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore creates a ledger store at the given path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

// Hash computes the canonical content hash of a manifest: SHA-256 over the
// JSON serialization of the action sequence. Action order is preserved (it
// is the application order); field serialization follows the struct
// declaration, which encoding/json emits deterministically.
func Hash(m plan.Manifest) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("serialize manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Load reads the persisted record. A missing file returns (nil, nil). A
// record that fails to parse is logged and treated as absent rather than
// fatal, so a corrupted ledger never permanently blocks execution.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("ledger file corrupted, ignoring")
		return nil, nil
	}

	return &st, nil
}

// SavedManifest returns the manifest snapshot from an incomplete persisted
// record, allowing an interrupted run to resume without regenerating (and
// silently diverging from) the original plan. Returns nil when there is no
// resumable state.
func (s *Store) SavedManifest() (plan.Manifest, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	if st == nil || st.IsComplete || len(st.Manifest) == 0 {
		return nil, nil
	}
	return st.Manifest, nil
}

// InitOrResume determines the next action index to apply for the manifest.
//
// With no existing record it persists a fresh one (index -1, incomplete) and
// returns 0. An existing record whose hash differs from the manifest fails
// with ErrPlanDrift. A completed record returns len(m) without mutation.
// Otherwise the resume point is the index after the last applied action.
func (s *Store) InitOrResume(m plan.Manifest) (int, error) {
	hash, err := Hash(m)
	if err != nil {
		return 0, err
	}

	st, err := s.Load()
	if err != nil {
		return 0, err
	}

	if st == nil {
		fresh := State{
			ManifestHash:     hash,
			LastAppliedIndex: -1,
			TotalCommits:     len(m),
			IsComplete:       false,
			Manifest:         m,
		}
		if err := s.save(fresh); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if st.ManifestHash != hash {
		return 0, fmt.Errorf("%w (remove %s to force a fresh run)", ErrPlanDrift, s.path)
	}

	if st.IsComplete {
		return len(m), nil
	}

	return st.LastAppliedIndex + 1, nil
}

// Advance checkpoints a successfully applied action. It must be called only
// after the external mutation for index has succeeded. The index must be
// monotonically increasing; a regression indicates a bug in the caller.
func (s *Store) Advance(index int, headID string, complete bool) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("advance ledger: no state initialized at %s", s.path)
	}
	if index <= st.LastAppliedIndex {
		return fmt.Errorf("advance ledger: index %d not after last applied %d", index, st.LastAppliedIndex)
	}

	st.LastAppliedIndex = index
	st.LastCommitID = headID
	st.IsComplete = complete
	return s.save(*st)
}

// Clear removes the ledger record, forcing the next run to start fresh.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove ledger: %w", err)
	}
	return nil
}

// save writes the record to disk wholesale via a temp file and rename.
func (s *Store) save(st State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize ledger: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	return os.Rename(tmp, s.path)
}
