// Package backup schedules and writes periodic snapshot backups.
package backup

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/theirongolddev/subtrack/internal/clock"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/store"
)

// KeySettings is the KV key holding model.BackupSettings.
const KeySettings = "backup_settings"

// State is the scheduler's view of the backup schedule.
type State string

// Scheduler states.
const (
	StateUpToDate State = "up-to-date"
	StateDue      State = "due"
)

// Status is a point-in-time report of the schedule.
type Status struct {
	State     State
	Frequency model.BackupFrequency
	Last      *time.Time
	Next      *time.Time
}

// Scheduler tracks when the last backup happened and whether one is due.
type Scheduler struct {
	mu       sync.Mutex
	kv       store.KV
	clock    clock.Clock
	settings model.BackupSettings
}

// NewScheduler loads settings from kv. The default frequency applies only
// when nothing has been saved.
func NewScheduler(kv store.KV, clk clock.Clock, def model.BackupFrequency) (*Scheduler, error) {
	if clk == nil {
		clk = clock.System{}
	}
	if !def.Valid() {
		def = model.BackupMonthly
	}
	s := &Scheduler{kv: kv, clock: clk, settings: model.BackupSettings{Frequency: def}}

	raw, ok, err := kv.Get(KeySettings)
	if err != nil {
		return nil, fmt.Errorf("reading backup settings: %w", err)
	}
	if ok {
		var loaded model.BackupSettings
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			return nil, fmt.Errorf("parsing backup settings: %w", err)
		}
		if loaded.Frequency.Valid() {
			s.settings.Frequency = loaded.Frequency
		}
		s.settings.LastBackupDate = loaded.LastBackupDate
	}
	return s, nil
}

// Settings returns a copy of the current settings.
func (s *Scheduler) Settings() model.BackupSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	if out.LastBackupDate != nil {
		t := *out.LastBackupDate
		out.LastBackupDate = &t
	}
	return out
}

// ShouldAutoBackup reports whether a backup is due now: never backed up,
// or at least one full interval has elapsed.
func (s *Scheduler) ShouldAutoBackup() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueLocked(s.clock.Now())
}

func (s *Scheduler) dueLocked(now time.Time) bool {
	last := s.settings.LastBackupDate
	if last == nil {
		return true
	}
	return now.Sub(*last) >= s.settings.Frequency.Interval()
}

// State returns the current schedule state with last and next backup times.
func (s *Scheduler) State() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: StateUpToDate, Frequency: s.settings.Frequency}
	if s.dueLocked(s.clock.Now()) {
		st.State = StateDue
	}
	if last := s.settings.LastBackupDate; last != nil {
		l := *last
		n := l.Add(s.settings.Frequency.Interval())
		st.Last, st.Next = &l, &n
	}
	return st
}

// RecordBackup sets the last backup time to now and persists it.
func (s *Scheduler) RecordBackup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now().UTC()
	s.settings.LastBackupDate = &now
	return s.saveLocked()
}

// SetFrequency changes the interval. It does not move the last backup time.
func (s *Scheduler) SetFrequency(f model.BackupFrequency) error {
	if !f.Valid() {
		return fmt.Errorf("unknown backup frequency %q", f)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Frequency = f
	return s.saveLocked()
}

func (s *Scheduler) saveLocked() error {
	data, err := json.Marshal(s.settings)
	if err != nil {
		return err
	}
	if err := s.kv.Set(KeySettings, string(data)); err != nil {
		return fmt.Errorf("saving backup settings: %w", err)
	}
	return nil
}
