package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/subtrack/internal/codec"
	"github.com/theirongolddev/subtrack/internal/model"
)

// Snapshot returns the current state as an export document.
func (s *Store) Snapshot() codec.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return codec.Snapshot{
		Version:       codec.SnapshotVersion,
		Subscriptions: slices.Clone(s.subs),
		Currency:      s.prefs.Currency,
		ExportDate:    s.clock.Now().UTC(),
	}
}

// ExportSnapshot encodes the current state as a JSON snapshot.
func (s *Store) ExportSnapshot() ([]byte, error) {
	return codec.EncodeJSON(s.Snapshot())
}

// ImportSnapshot replaces the whole collection with the JSON snapshot in
// data. Nothing changes unless every record is valid. It returns the number
// of imported subscriptions.
func (s *Store) ImportSnapshot(data []byte) (int, error) {
	snap, err := codec.DecodeJSON(data)
	if err != nil {
		return 0, decodeError(err)
	}
	return s.Replace(snap)
}

// ImportYAML is ImportSnapshot for a YAML snapshot.
func (s *Store) ImportYAML(data []byte) (int, error) {
	snap, err := codec.DecodeYAML(data)
	if err != nil {
		return 0, decodeError(err)
	}
	return s.Replace(snap)
}

// decodeError maps codec failures onto the store taxonomy: a document that
// is not a snapshot is ErrParse, a record of the wrong shape inside one is
// a ValidationError for that record.
func decodeError(err error) error {
	var recErr *codec.RecordError
	if errors.As(err, &recErr) {
		return &ValidationError{
			Index:  recErr.Index,
			Fields: []FieldError{{Field: "record", Message: "is malformed: " + recErr.Err.Error()}},
		}
	}
	return fmt.Errorf("%w: %v", ErrParse, err)
}

// Replace installs snap as the new state after validating every record.
func (s *Store) Replace(snap codec.Snapshot) (int, error) {
	cur := strings.ToUpper(strings.TrimSpace(snap.Currency))
	if cur == "" {
		cur = model.DefaultPreferences().Currency
	}

	subs := make([]model.Subscription, 0, len(snap.Subscriptions))
	seen := make(map[string]bool, len(snap.Subscriptions))
	for i, sub := range snap.Subscriptions {
		sub.Name = strings.TrimSpace(sub.Name)
		sub.Currency = strings.ToUpper(strings.TrimSpace(sub.Currency))
		if sub.Currency == "" {
			sub.Currency = cur
		}
		if err := s.check(sub); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Index = i
				return 0, verr
			}
			return 0, err
		}
		if seen[sub.ID] {
			return 0, &ValidationError{Index: i, Fields: []FieldError{{Field: "id", Message: "is duplicated"}}}
		}
		seen[sub.ID] = true
		subs = append(subs, sub)
	}

	s.mu.Lock()
	s.subs = subs
	s.prefs.Currency = cur
	snapshot := s.commitLocked()
	s.persistPrefsLocked()
	s.mu.Unlock()

	s.log.Infow("snapshot imported", "subscriptions", len(subs), "currency", cur)
	s.notify(snapshot)
	return len(subs), nil
}

func (s *Store) persistPrefsLocked() {
	data, err := json.Marshal(s.prefs)
	if err != nil {
		s.log.Errorw("encoding preferences failed", "error", err)
		return
	}
	s.persist.enqueue(KeyPreferences, string(data))
}
