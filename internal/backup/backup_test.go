package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/clock"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/store"
)

var start = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func TestNeverBackedUpIsDue(t *testing.T) {
	s, err := NewScheduler(store.NewMemory(), clock.NewFixed(start), model.BackupWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if !s.ShouldAutoBackup() {
		t.Fatal("fresh scheduler should be due")
	}
	if st := s.State(); st.State != StateDue || st.Last != nil {
		t.Fatalf("state = %+v", st)
	}
}

func TestWeeklyFrequency(t *testing.T) {
	clk := clock.NewFixed(start)
	s, err := NewScheduler(store.NewMemory(), clk, model.BackupWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordBackup(); err != nil {
		t.Fatal(err)
	}

	clk.Set(start.Add(6 * 24 * time.Hour))
	if s.ShouldAutoBackup() {
		t.Fatal("6 days after a weekly backup should not be due")
	}
	clk.Set(start.Add(7 * 24 * time.Hour))
	if !s.ShouldAutoBackup() {
		t.Fatal("exactly 7 days should be due")
	}
	clk.Set(start.Add(8 * 24 * time.Hour))
	if !s.ShouldAutoBackup() {
		t.Fatal("8 days after a weekly backup should be due")
	}
}

func TestRecordBackupTwiceResetsFromLatest(t *testing.T) {
	clk := clock.NewFixed(start)
	s, _ := NewScheduler(store.NewMemory(), clk, model.BackupWeekly)

	_ = s.RecordBackup()
	clk.Advance(3 * 24 * time.Hour)
	_ = s.RecordBackup()

	last := s.Settings().LastBackupDate
	if last == nil || !last.Equal(clk.Now()) {
		t.Fatalf("last = %v, want %v", last, clk.Now())
	}
	clk.Advance(6 * 24 * time.Hour)
	if s.ShouldAutoBackup() {
		t.Fatal("interval should count from the latest backup")
	}
}

func TestSetFrequencyAppliesOnNextEvaluation(t *testing.T) {
	clk := clock.NewFixed(start)
	kv := store.NewMemory()
	s, _ := NewScheduler(kv, clk, model.BackupMonthly)
	_ = s.RecordBackup()
	clk.Advance(10 * 24 * time.Hour)
	if s.ShouldAutoBackup() {
		t.Fatal("monthly not due after 10 days")
	}
	if err := s.SetFrequency(model.BackupWeekly); err != nil {
		t.Fatal(err)
	}
	if !s.ShouldAutoBackup() {
		t.Fatal("weekly should be due after 10 days")
	}
	if err := s.SetFrequency("daily"); err == nil {
		t.Fatal("expected error for unknown frequency")
	}

	reloaded, err := NewScheduler(kv, clk, model.BackupYearly)
	if err != nil {
		t.Fatal(err)
	}
	got := reloaded.Settings()
	if got.Frequency != model.BackupWeekly || got.LastBackupDate == nil || !got.LastBackupDate.Equal(start) {
		t.Fatalf("reloaded settings = %+v", got)
	}
}

type fakeSource struct {
	data []byte
	err  error
}

func (f fakeSource) ExportSnapshot() ([]byte, error) { return f.data, f.err }

func TestRunnerRunIfDue(t *testing.T) {
	clk := clock.NewFixed(start)
	s, _ := NewScheduler(store.NewMemory(), clk, model.BackupWeekly)
	dir := filepath.Join(t.TempDir(), "backups")
	r := NewRunner(s, fakeSource{data: []byte(`{"version":1,"subscriptions":[]}`)}, dir, 2, nil)

	path, err := r.RunIfDue(context.Background())
	if err != nil {
		t.Fatalf("RunIfDue: %v", err)
	}
	if path == "" {
		t.Fatal("first run should write a backup")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != `{"version":1,"subscriptions":[]}` {
		t.Fatalf("backup contents = %q, %v", data, err)
	}
	if filepath.Base(path) != "subscriptions-backup-20260301T090000Z.json" {
		t.Fatalf("backup name = %s", filepath.Base(path))
	}

	path, err = r.RunIfDue(context.Background())
	if err != nil || path != "" {
		t.Fatalf("second RunIfDue = %q, %v; want no-op", path, err)
	}

	for i := 0; i < 3; i++ {
		clk.Advance(8 * 24 * time.Hour)
		if _, err := r.RunIfDue(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	files, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("kept %d files, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "subscriptions-backup-20260325T090000Z.json" {
		t.Fatalf("newest = %s", files[0])
	}
}

func TestRunnerSourceError(t *testing.T) {
	clk := clock.NewFixed(start)
	s, _ := NewScheduler(store.NewMemory(), clk, model.BackupWeekly)
	boom := errors.New("boom")
	r := NewRunner(s, fakeSource{err: boom}, t.TempDir(), 0, nil)
	if _, err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !s.ShouldAutoBackup() {
		t.Fatal("failed backup must not be recorded")
	}
}
