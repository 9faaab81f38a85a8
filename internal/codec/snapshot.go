// Package codec converts subscription collections to and from export formats.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/subtrack/internal/model"
)

// SnapshotVersion is written into every JSON snapshot.
const SnapshotVersion = 1

// ErrMalformed is returned when input is not a snapshot document at all.
var ErrMalformed = errors.New("malformed snapshot")

// Snapshot is the versioned export document.
type Snapshot struct {
	Version       int                  `json:"version" yaml:"version"`
	Subscriptions []model.Subscription `json:"subscriptions" yaml:"subscriptions"`
	Currency      string               `json:"currency" yaml:"currency"`
	ExportDate    time.Time            `json:"exportDate" yaml:"export_date"`
}

// RecordError reports a record that could not be decoded.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("subscription #%d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// EncodeJSON renders s as indented JSON.
func EncodeJSON(s Snapshot) ([]byte, error) {
	if s.Subscriptions == nil {
		s.Subscriptions = []model.Subscription{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeJSON parses a snapshot. It fails with ErrMalformed unless data is a
// JSON object with a "subscriptions" array, and with *RecordError when one
// of the records has the wrong shape. The legacy "expired" status is read
// as active.
func DecodeJSON(data []byte) (Snapshot, error) {
	var raw struct {
		Version       int             `json:"version"`
		Subscriptions json.RawMessage `json:"subscriptions"`
		Currency      string          `json:"currency"`
		ExportDate    *time.Time      `json:"exportDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	trimmed := bytes.TrimSpace(raw.Subscriptions)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Snapshot{}, fmt.Errorf("%w: missing subscriptions array", ErrMalformed)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	snap := Snapshot{
		Version:       raw.Version,
		Currency:      raw.Currency,
		Subscriptions: make([]model.Subscription, 0, len(items)),
	}
	if raw.ExportDate != nil {
		snap.ExportDate = *raw.ExportDate
	}
	for i, item := range items {
		var sub model.Subscription
		if err := json.Unmarshal(item, &sub); err != nil {
			return Snapshot{}, &RecordError{Index: i, Err: err}
		}
		if sub.Status != "" {
			st, err := model.ParseStatus(string(sub.Status))
			if err != nil {
				return Snapshot{}, &RecordError{Index: i, Err: err}
			}
			sub.Status = st
		}
		snap.Subscriptions = append(snap.Subscriptions, sub)
	}
	return snap, nil
}
