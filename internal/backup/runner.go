package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

const (
	filePrefix = "subscriptions-backup-"
	fileSuffix = ".json"
	stampFmt   = "20060102T150405Z"
)

// Snapshotter produces the backup payload.
type Snapshotter interface {
	ExportSnapshot() ([]byte, error)
}

// Runner writes snapshot files when the scheduler says a backup is due.
type Runner struct {
	sched *Scheduler
	src   Snapshotter
	dir   string
	keep  int
	log   *zap.SugaredLogger
}

// NewRunner writes into dir and keeps the newest keep files (0 keeps all).
func NewRunner(sched *Scheduler, src Snapshotter, dir string, keep int, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{sched: sched, src: src, dir: dir, keep: keep, log: log}
}

// Dir returns the backup directory.
func (r *Runner) Dir() string { return r.dir }

// RunIfDue backs up only when the schedule is due. It returns the written
// path, or "" when nothing was due.
func (r *Runner) RunIfDue(ctx context.Context) (string, error) {
	if !r.sched.ShouldAutoBackup() {
		return "", nil
	}
	return r.Run(ctx)
}

// Run writes a backup now and records it.
func (r *Runner) Run(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := r.src.ExportSnapshot()
	if err != nil {
		return "", fmt.Errorf("building snapshot: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	name := filePrefix + r.sched.clock.Now().UTC().Format(stampFmt) + fileSuffix
	path := filepath.Join(r.dir, name)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	if err := r.sched.RecordBackup(); err != nil {
		return path, err
	}
	r.log.Infow("backup written", "path", path, "bytes", len(data))

	if err := r.prune(); err != nil {
		r.log.Warnw("pruning old backups failed", "dir", r.dir, "error", err)
	}
	return path, nil
}

// List returns backup files in the directory, newest first.
func (r *Runner) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	// Timestamps sort lexically.
	slices.Sort(names)
	slices.Reverse(names)
	for i, n := range names {
		names[i] = filepath.Join(r.dir, n)
	}
	return names, nil
}

func (r *Runner) prune() error {
	if r.keep <= 0 {
		return nil
	}
	files, err := r.List()
	if err != nil || len(files) <= r.keep {
		return err
	}
	for _, f := range files[r.keep:] {
		if err := os.Remove(f); err != nil {
			return err
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
