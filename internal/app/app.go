// Package app assembles the subtrack services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/theirongolddev/subtrack/internal/backup"
	"github.com/theirongolddev/subtrack/internal/clock"
	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/metrics"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/notify"
	"github.com/theirongolddev/subtrack/internal/reminder"
	"github.com/theirongolddev/subtrack/internal/store"
	"github.com/theirongolddev/subtrack/internal/tracker"
)

// App is the set of wired services a command or the daemon works with.
type App struct {
	Config    config.Config
	Log       *zap.SugaredLogger
	Clock     clock.Clock
	KV        store.KV
	Store     *tracker.Store
	Engine    *reminder.Engine
	Scheduler *backup.Scheduler
	Backups   *backup.Runner
	Metrics   *metrics.Collector

	redis *redis.Client

	// Mutation-triggered scans run on one worker; requests coalesce.
	checkMu     sync.Mutex
	checkClosed bool
	checkReq    chan struct{}
	checkDone   chan struct{}
	checks      sync.WaitGroup
}

// changeCheckTimeout bounds one mutation-triggered reminder scan.
const changeCheckTimeout = 30 * time.Second

// Deps overrides pieces that are normally built from config. Tests pass a
// memory KV and a fixed clock.
type Deps struct {
	KV       store.KV
	Clock    clock.Clock
	Logger   *zap.SugaredLogger
	Notifier reminder.Notifier
	NewID    func() string
}

// Open builds an App from cfg.
func Open(cfg config.Config, deps Deps) (*App, error) {
	a := &App{Config: cfg, Log: deps.Logger, Clock: deps.Clock, KV: deps.KV}
	if a.Log == nil {
		a.Log = zap.NewNop().Sugar()
	}
	if a.Clock == nil {
		a.Clock = clock.System{}
	}

	if a.KV == nil {
		if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		kv, err := store.Open(cfg.DBPath())
		if err != nil {
			return nil, err
		}
		a.KV = kv
	}

	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	prefs := model.DefaultPreferences()
	if cfg.General.Currency != "" {
		prefs.Currency = strings.ToUpper(cfg.General.Currency)
	}
	if cfg.General.DefaultReminderDays > 0 {
		prefs.ReminderDaysDefault = cfg.General.DefaultReminderDays
	}

	st, err := tracker.Open(a.KV, tracker.Options{
		Clock:    a.Clock,
		Logger:   a.Log.Named("tracker"),
		NewID:    deps.NewID,
		Defaults: prefs,
	})
	if err != nil {
		return nil, err
	}
	a.Store = st

	a.Metrics = metrics.New()

	ledger, err := a.ledger()
	if err != nil {
		return nil, err
	}
	notifier := deps.Notifier
	if notifier == nil {
		if notifier, err = a.notifier(); err != nil {
			return nil, err
		}
	}
	a.Engine = reminder.NewEngine(ledger, notifier, a.Log.Named("reminder"), a.Metrics)

	freq, err := model.ParseBackupFrequency(cfg.Backup.Frequency)
	if err != nil {
		freq = model.BackupMonthly
	}
	if a.Scheduler, err = backup.NewScheduler(a.KV, a.Clock, freq); err != nil {
		return nil, err
	}
	a.Backups = backup.NewRunner(a.Scheduler, a.Store, cfg.BackupDir(), cfg.Backup.Keep, a.Log.Named("backup"))

	a.Metrics.ObserveCollection(a.Store.List(), a.Store.Today())
	if cfg.Reminders.CheckOnChange {
		a.checkReq = make(chan struct{}, 1)
		a.checkDone = make(chan struct{})
		go a.checkWorker()
	}
	a.Store.OnChange(a.onChange)

	ok = true
	return a, nil
}

func (a *App) ledger() (reminder.Ledger, error) {
	switch strings.ToLower(a.Config.Ledger.Backend) {
	case "", "sqlite":
		return reminder.NewKVLedger(a.KV), nil
	case "redis":
		return reminder.NewRedisLedger(a.redisClient()), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q (want sqlite or redis)", a.Config.Ledger.Backend)
	}
}

func (a *App) notifier() (reminder.Notifier, error) {
	var out notify.Multi
	for _, ch := range a.Config.Reminders.Channels {
		switch strings.ToLower(strings.TrimSpace(ch)) {
		case config.ChannelLog:
			out = append(out, notify.NewLog(a.Log.Named("notify")))
		case config.ChannelEmail:
			e := a.Config.Email
			email, err := notify.NewEmail(notify.EmailConfig{
				Host:     e.SMTPHost,
				Port:     e.SMTPPort,
				Username: e.Username,
				Password: e.Password,
				From:     e.From,
				To:       e.To,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, email)
		case config.ChannelRedis:
			out = append(out, notify.NewRedisPublisher(a.redisClient(), ""))
		default:
			return nil, fmt.Errorf("unknown reminder channel %q", ch)
		}
	}
	if len(out) == 0 {
		out = append(out, notify.NewLog(a.Log.Named("notify")))
	}
	return out, nil
}

func (a *App) redisClient() *redis.Client {
	if a.redis == nil {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.Config.Ledger.RedisAddr,
			Password: a.Config.Ledger.RedisPassword,
			DB:       a.Config.Ledger.RedisDB,
		})
	}
	return a.redis
}

// onChange refreshes gauges and, when enabled, queues a reminder scan.
// It never blocks the mutating caller.
func (a *App) onChange(subs []model.Subscription) {
	a.Metrics.ObserveCollection(subs, clock.Today(a.Clock))
	if a.checkReq == nil {
		return
	}
	a.checkMu.Lock()
	defer a.checkMu.Unlock()
	if a.checkClosed {
		return
	}
	a.checks.Add(1)
	select {
	case a.checkReq <- struct{}{}:
	default:
		// A queued scan reads the store when it starts, so it covers this change.
		a.checks.Done()
	}
}

func (a *App) checkWorker() {
	defer close(a.checkDone)
	for range a.checkReq {
		ctx, cancel := context.WithTimeout(context.Background(), changeCheckTimeout)
		a.Engine.Check(ctx, a.Store.List(), a.Clock.Now())
		cancel()
		a.checks.Done()
	}
}

// WaitChecks blocks until queued mutation-triggered scans have finished.
func (a *App) WaitChecks() { a.checks.Wait() }

func (a *App) stopChecks() {
	if a.checkReq == nil {
		return
	}
	a.checkMu.Lock()
	if a.checkClosed {
		a.checkMu.Unlock()
		return
	}
	a.checkClosed = true
	close(a.checkReq)
	a.checkMu.Unlock()
	<-a.checkDone
}

// CheckReminders runs one reminder scan over the current collection.
func (a *App) CheckReminders(ctx context.Context) reminder.Result {
	return a.Engine.Check(ctx, a.Store.List(), a.Clock.Now())
}

// AutoBackup writes a backup when auto backups are on and one is due.
func (a *App) AutoBackup(ctx context.Context) (string, error) {
	if !a.Config.Backup.Auto {
		return "", nil
	}
	path, err := a.Backups.RunIfDue(ctx)
	switch {
	case err != nil:
		a.Metrics.BackupResult("failed")
	case path == "":
		a.Metrics.BackupResult("skipped")
	default:
		a.Metrics.BackupResult("written")
	}
	return path, err
}

// Close finishes queued reminder scans, flushes pending writes and
// releases the store and redis client.
func (a *App) Close() error {
	a.stopChecks()
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
