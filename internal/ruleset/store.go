package ruleset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"call-audit-go/internal/logger"
)

// Store persists the ruleset collection as a JSON file.
type Store struct {
	path string
	log  *logger.Logger
}

// NewStore opens a store at path, bootstrapping it with the default ruleset
// when the file does not exist yet.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, log: logger.New()}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ruleset dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.SaveAll([]Ruleset{Default()}); err != nil {
			return nil, fmt.Errorf("bootstrap default ruleset: %w", err)
		}
	}
	return s, nil
}

// LoadAll reads every ruleset. A missing or corrupt file is recreated with
// the default ruleset; the configuration error is logged at warning level
// and never surfaced to the caller.
func (s *Store) LoadAll() []Ruleset {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.selfHeal(err)
		return []Ruleset{Default()}
	}
	var sets []Ruleset
	if err := json.Unmarshal(data, &sets); err != nil {
		s.selfHeal(err)
		return []Ruleset{Default()}
	}
	valid := sets[:0]
	for _, rs := range sets {
		if err := rs.Validate(); err != nil {
			s.log.WithError(err).Warn("dropping invalid ruleset")
			continue
		}
		valid = append(valid, rs)
	}
	if len(valid) == 0 {
		s.selfHeal(fmt.Errorf("no valid rulesets in %s", s.path))
		return []Ruleset{Default()}
	}
	return valid
}

func (s *Store) selfHeal(cause error) {
	s.log.WithError(cause).WithField("path", s.path).Warn("ruleset store unreadable, substituting default")
	if err := s.SaveAll([]Ruleset{Default()}); err != nil {
		s.log.WithError(err).Warn("could not rewrite ruleset store")
	}
}

// SaveAll writes the full collection back to disk.
func (s *Store) SaveAll(sets []Ruleset) error {
	data, err := json.MarshalIndent(sets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rulesets: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write rulesets: %w", err)
	}
	return nil
}

// ActiveFor resolves the active ruleset: a per-user active ruleset wins
// when userID is set, otherwise the first globally active one. When nothing
// is active the default is synthesized and treated as active without being
// written back.
func (s *Store) ActiveFor(userID string) Ruleset {
	sets := s.LoadAll()
	if userID != "" {
		for _, rs := range sets {
			if rs.Active && rs.UserID == userID {
				return rs
			}
		}
	}
	for _, rs := range sets {
		if rs.Active {
			return rs
		}
	}
	s.log.WithField("path", s.path).Warn("no active ruleset, using built-in default")
	return Default()
}

// Upsert inserts or replaces a ruleset by ID, bumping the version when an
// existing entry is replaced.
func (s *Store) Upsert(rs Ruleset) (Ruleset, error) {
	if err := rs.Validate(); err != nil {
		return Ruleset{}, err
	}
	sets := s.LoadAll()
	replaced := false
	for i, existing := range sets {
		if existing.ID == rs.ID {
			rs.Version = existing.Version + 1
			sets[i] = rs
			replaced = true
			break
		}
	}
	if !replaced {
		if rs.Version == 0 {
			rs.Version = 1
		}
		sets = append(sets, rs)
	}
	if err := s.SaveAll(sets); err != nil {
		return Ruleset{}, err
	}
	return rs, nil
}

// Activate marks the ruleset active and deactivates its scope siblings, so
// exactly one ruleset stays active per scope.
func (s *Store) Activate(id string) (Ruleset, error) {
	sets := s.LoadAll()
	var target *Ruleset
	for i := range sets {
		if sets[i].ID == id {
			target = &sets[i]
			break
		}
	}
	if target == nil {
		return Ruleset{}, fmt.Errorf("ruleset %q not found", id)
	}
	for i := range sets {
		if sets[i].UserID == target.UserID {
			sets[i].Active = sets[i].ID == id
		}
	}
	if err := s.SaveAll(sets); err != nil {
		return Ruleset{}, err
	}
	return *target, nil
}
