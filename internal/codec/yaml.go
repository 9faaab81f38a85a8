package codec

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/subtrack/internal/model"
)

// EncodeYAML renders s as a YAML document.
func EncodeYAML(s Snapshot) ([]byte, error) {
	if s.Subscriptions == nil {
		s.Subscriptions = []model.Subscription{}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return data, nil
}

// DecodeYAML parses a YAML snapshot written by EncodeYAML. Like DecodeJSON
// it fails with ErrMalformed unless the document has a subscriptions list,
// and with *RecordError for a record of the wrong shape.
func DecodeYAML(data []byte) (Snapshot, error) {
	var raw struct {
		Version       int       `yaml:"version"`
		Subscriptions yaml.Node `yaml:"subscriptions"`
		Currency      string    `yaml:"currency"`
		ExportDate    time.Time `yaml:"export_date"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Subscriptions.Kind != yaml.SequenceNode {
		return Snapshot{}, fmt.Errorf("%w: missing subscriptions list", ErrMalformed)
	}

	snap := Snapshot{
		Version:       raw.Version,
		Currency:      raw.Currency,
		ExportDate:    raw.ExportDate,
		Subscriptions: make([]model.Subscription, 0, len(raw.Subscriptions.Content)),
	}
	for i, item := range raw.Subscriptions.Content {
		var sub model.Subscription
		if err := item.Decode(&sub); err != nil {
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
