// Package daemon provides the long-running reminder and backup service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/subtrack/internal/app"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// Lookahead is the upcoming-renewals window reported in status.
	Lookahead int
}

// Snapshot is a compact collection state for status/event payloads.
type Snapshot struct {
	At          time.Time `json:"at"`
	Total       int       `json:"total"`
	Active      int       `json:"active"`
	Paused      int       `json:"paused"`
	Cancelled   int       `json:"cancelled"`
	Expired     int       `json:"expired"`
	MonthlyCost float64   `json:"monthly_cost"`
	YearlyCost  float64   `json:"yearly_cost"`
	Currency    string    `json:"currency"`
	DueThisWeek int       `json:"due_this_week"`
	NextRenewal string    `json:"next_renewal,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Total       int     `json:"total"`
	Active      int     `json:"active"`
	Expired     int     `json:"expired"`
	MonthlyCost float64 `json:"monthly_cost"`
}

func (d Delta) isZero() bool {
	return d.Total == 0 &&
		d.Active == 0 &&
		d.Expired == 0 &&
		math.Abs(d.MonthlyCost) < 0.005
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDelta    = "collection_delta"
	EventReminder = "reminder"
	EventBackup   = "backup"
)

// Event is emitted when the collection changes, a reminder fires or a
// backup is written.
type Event struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
	Delta     *Delta    `json:"delta,omitempty"`
	Reminder  *Fired    `json:"reminder,omitempty"`
	Backup    string    `json:"backup,omitempty"`
}

// Fired describes one delivered reminder.
type Fired struct {
	SubscriptionID string `json:"subscription_id"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	DaysUntil      int    `json:"days_until"`
	Title          string `json:"title"`
}

// Upcoming is one entry of the status renewal list.
type Upcoming struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	RenewalDate string  `json:"renewal_date"`
	DaysUntil   int     `json:"days_until"`
	Cost        float64 `json:"cost"`
	Currency    string  `json:"currency"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time  `json:"started_at"`
	LastPollAt      time.Time  `json:"last_poll_at"`
	PollIntervalSec int        `json:"poll_interval_sec"`
	PollCount       int64      `json:"poll_count"`
	RemindersSent   int64      `json:"reminders_sent"`
	BackupState     string     `json:"backup_state"`
	LastBackupAt    *time.Time `json:"last_backup_at,omitempty"`
	NextBackupAt    *time.Time `json:"next_backup_at,omitempty"`
	Summary         Snapshot   `json:"summary"`
	Upcoming        []Upcoming `json:"upcoming"`
	LastError       string     `json:"last_error,omitempty"`
	EventCount      int        `json:"event_count"`
	SubscriberCount int        `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	app *app.App
	log *zap.SugaredLogger

	mu            sync.RWMutex
	startedAt     time.Time
	lastPollAt    time.Time
	pollCount     int64
	remindersSent int64
	lastError     string
	hasSnapshot   bool
	snapshot      Snapshot
	nextSeq       int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service over a.
func New(cfg Config, a *app.App) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = time.Hour
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Lookahead < 1 {
		cfg.Lookahead = 30
	}

	return &Service{
		cfg:       cfg,
		app:       a,
		log:       a.Log.Named("daemon"),
		startedAt: a.Clock.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", s.app.Metrics.Handler())
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Infow("daemon listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval)

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce picks up edits made by other processes, fires due reminders,
// runs a due backup and publishes what changed.
func (s *Service) pollOnce(ctx context.Context) {
	now := s.app.Clock.Now()
	if err := s.app.Store.Reload(); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warnw("daemon poll error", "error", err)
		return
	}
	if err := s.app.Store.LastPersistError(); err != nil {
		s.app.Metrics.PersistFailed()
	}

	subs := s.app.Store.List()
	res := s.app.Engine.Check(ctx, subs, now)
	backupPath, backupErr := s.app.AutoBackup(ctx)
	s.app.Metrics.ObserveCollection(subs, model.DateOf(now))

	snap := snapshotFromSummary(tracker.Summarize(subs, model.DateOf(now)), s.app.Store.Preferences().Currency, now)

	var pending []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.remindersSent += int64(len(res.Fired))
	s.lastError = ""
	if backupErr != nil {
		s.lastError = backupErr.Error()
	}

	if !prevExists {
		pending = append(pending, Event{Type: EventSnapshot, Snapshot: &snap})
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		pending = append(pending, Event{Type: EventDelta, Snapshot: &snap, Delta: &delta})
	}
	s.mu.Unlock()

	for _, r := range res.Fired {
		pending = append(pending, Event{Type: EventReminder, Reminder: &Fired{
			SubscriptionID: r.Subscription.ID,
			Name:           r.Subscription.Name,
			Kind:           string(r.Kind),
			DaysUntil:      r.DaysUntil,
			Title:          r.Title,
		}})
	}
	if backupPath != "" {
		pending = append(pending, Event{Type: EventBackup, Backup: backupPath})
	}
	if backupErr != nil {
		s.log.Warnw("automatic backup failed", "error", backupErr)
	}

	for _, ev := range pending {
		ev.Timestamp = now
		s.publishEvent(ev)
	}
}

func snapshotFromSummary(sum tracker.Summary, currency string, at time.Time) Snapshot {
	snap := Snapshot{
		At:          at,
		Total:       sum.Total,
		Active:      sum.Active,
		Paused:      sum.Paused,
		Cancelled:   sum.Cancelled,
		Expired:     sum.Expired,
		MonthlyCost: sum.MonthlyCost,
		YearlyCost:  sum.YearlyCost,
		Currency:    currency,
		DueThisWeek: sum.DueThisWeek,
	}
	if sum.NextRenewal != nil {
		snap.NextRenewal = sum.NextRenewal.RenewalDate.String()
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Total:       curr.Total - prev.Total,
		Active:      curr.Active - prev.Active,
		Expired:     curr.Expired - prev.Expired,
		MonthlyCost: curr.MonthlyCost - prev.MonthlyCost,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextSeq++
	ev.Seq = s.nextSeq
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	now := s.app.Clock.Now()
	var upcoming []Upcoming
	today := model.DateOf(now)
	for _, sub := range s.app.Store.UpcomingRenewals(s.cfg.Lookahead) {
		upcoming = append(upcoming, Upcoming{
			ID:          sub.ID,
			Name:        sub.Name,
			RenewalDate: sub.RenewalDate.String(),
			DaysUntil:   sub.DaysUntilRenewal(today),
			Cost:        sub.Cost,
			Currency:    sub.Currency,
		})
	}
	backup := s.app.Scheduler.State()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		RemindersSent:   s.remindersSent,
		BackupState:     string(backup.State),
		LastBackupAt:    backup.Last,
		NextBackupAt:    backup.Next,
		Summary:         s.snapshot,
		Upcoming:        upcoming,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	snap := s.snapshotStatus().Summary
	writeSSE(w, Event{
		ID:        uuid.NewString(),
		Type:      EventSnapshot,
		Timestamp: s.app.Clock.Now(),
		Snapshot:  &snap,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %s\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
