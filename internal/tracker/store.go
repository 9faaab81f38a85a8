// Package tracker owns the subscription collection: CRUD, validation,
// projections, aggregates, snapshots and user preferences.
package tracker

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/subtrack/internal/clock"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/store"
)

// KV keys owned by the tracker.
const (
	KeySubscriptions = "subscriptions"
	KeyPreferences   = "preferences"
)

// ChangeFunc receives a copy of the collection after a mutation.
type ChangeFunc func(subs []model.Subscription)

// Options configures a Store. Zero values pick sensible defaults.
type Options struct {
	Clock  clock.Clock
	Logger *zap.SugaredLogger
	NewID  func() string
	// Defaults seed preferences that were never saved.
	Defaults model.Preferences
	// WriteBuffer is the persister queue length.
	WriteBuffer int
}

// Store is the in-memory subscription collection backed by a KV sink.
type Store struct {
	mu    sync.RWMutex
	subs  []model.Subscription
	prefs model.Preferences

	hooksMu sync.Mutex
	hooks   []ChangeFunc

	kv       store.KV
	clock    clock.Clock
	log      *zap.SugaredLogger
	newID    func() string
	validate *validator.Validate
	persist  *persister
}

// Open loads the collection and preferences from kv.
func Open(kv store.KV, opts Options) (*Store, error) {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Defaults == (model.Preferences{}) {
		opts.Defaults = model.DefaultPreferences()
	}
	if opts.WriteBuffer <= 0 {
		opts.WriteBuffer = 64
	}

	s := &Store{
		kv:       kv,
		clock:    opts.Clock,
		log:      opts.Logger,
		newID:    opts.NewID,
		validate: newValidator(),
		prefs:    opts.Defaults,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.persist = newPersister(kv, opts.Logger, opts.WriteBuffer)
	return s, nil
}

func (s *Store) load() error {
	subs, err := readSubscriptions(s.kv)
	if err != nil {
		return err
	}
	prefs, err := readPreferences(s.kv, s.prefs)
	if err != nil {
		return err
	}
	s.subs = subs
	s.prefs = prefs
	return nil
}

func readSubscriptions(kv store.KV) ([]model.Subscription, error) {
	raw, ok, err := kv.Get(KeySubscriptions)
	if err != nil {
		return nil, fmt.Errorf("%w: reading subscriptions: %v", ErrPersistence, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var subs []model.Subscription
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return nil, fmt.Errorf("%w: stored subscriptions: %v", ErrParse, err)
	}
	return subs, nil
}

func readPreferences(kv store.KV, defaults model.Preferences) (model.Preferences, error) {
	raw, ok, err := kv.Get(KeyPreferences)
	if err != nil {
		return defaults, fmt.Errorf("%w: reading preferences: %v", ErrPersistence, err)
	}
	if !ok {
		return defaults, nil
	}
	prefs := defaults
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return defaults, fmt.Errorf("%w: stored preferences: %v", ErrParse, err)
	}
	return prefs, nil
}

// Reload replaces in-memory state with what the sink holds. Pending
// writes are flushed first.
func (s *Store) Reload() error {
	s.persist.flush()
	subs, err := readSubscriptions(s.kv)
	if err != nil {
		return err
	}
	s.mu.Lock()
	prefs, err := readPreferences(s.kv, s.prefs)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.subs = subs
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

// Flush waits until queued writes reach the sink.
func (s *Store) Flush() { s.persist.flush() }

// Close flushes and stops the writer. The KV sink is not closed.
func (s *Store) Close() error {
	s.persist.close()
	return s.persist.err()
}

// LastPersistError returns the most recent write failure, wrapping
// ErrPersistence, or nil if the last write succeeded.
func (s *Store) LastPersistError() error { return s.persist.err() }

// OnChange registers fn to run after every successful mutation.
func (s *Store) OnChange(fn ChangeFunc) {
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

// Today is the clock's current calendar day.
func (s *Store) Today() model.Date { return clock.Today(s.clock) }

// Clock returns the store's clock.
func (s *Store) Clock() clock.Clock { return s.clock }

// List returns a copy of every subscription in insertion order.
func (s *Store) List() []model.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subs)
}

// Len returns the number of stored subscriptions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Get returns the subscription with the given id.
func (s *Store) Get(id string) (model.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.subs[i], true
	}
	return model.Subscription{}, false
}

// Find resolves an id or an unambiguous id prefix.
func (s *Store) Find(ref string) (model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(ref); i >= 0 {
		return s.subs[i], nil
	}
	var match []model.Subscription
	for _, sub := range s.subs {
		if ref != "" && strings.HasPrefix(sub.ID, ref) {
			match = append(match, sub)
		}
	}
	switch len(match) {
	case 0:
		return model.Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return match[0], nil
	default:
		return model.Subscription{}, fmt.Errorf("id prefix %q matches %d subscriptions", ref, len(match))
	}
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.subs, func(sub model.Subscription) bool { return sub.ID == id })
}

// Draft holds the caller-supplied fields of a new subscription.
type Draft struct {
	Name               string
	Provider           string
	Cost               float64
	Currency           string
	BillingCycle       model.BillingCycle
	RenewalDate        model.Date
	Category           model.Category
	Status             model.Status
	ReminderDaysBefore int
	Notes              string
}

// Add validates d, assigns an id and creation time, and appends it.
// Empty optional fields fall back to preferences and defaults.
func (s *Store) Add(d Draft) (model.Subscription, error) {
	s.mu.Lock()
	sub := model.Subscription{
		ID:                 s.newID(),
		Name:               strings.TrimSpace(d.Name),
		Provider:           strings.TrimSpace(d.Provider),
		Cost:               d.Cost,
		Currency:           strings.ToUpper(strings.TrimSpace(d.Currency)),
		BillingCycle:       d.BillingCycle,
		RenewalDate:        d.RenewalDate,
		Category:           d.Category,
		Status:             d.Status,
		ReminderDaysBefore: d.ReminderDaysBefore,
		CreatedAt:          s.clock.Now().UTC(),
		Notes:              strings.TrimSpace(d.Notes),
	}
	if sub.Currency == "" {
		sub.Currency = s.prefs.Currency
	}
	if sub.BillingCycle == "" {
		sub.BillingCycle = model.CycleMonthly
	}
	if sub.Category == "" {
		sub.Category = model.CategoryOther
	}
	if sub.Status == "" {
		sub.Status = model.StatusActive
	}
	if sub.ReminderDaysBefore == 0 {
		sub.ReminderDaysBefore = s.prefs.ReminderDaysDefault
	}
	if err := s.check(sub); err != nil {
		s.mu.Unlock()
		return model.Subscription{}, err
	}
	s.subs = append(s.subs, sub)
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.log.Debugw("subscription added", "id", sub.ID, "name", sub.Name)
	s.notify(snapshot)
	return sub, nil
}

// Patch lists fields to change; nil fields are left alone.
type Patch struct {
	Name               *string
	Provider           *string
	Cost               *float64
	Currency           *string
	BillingCycle       *model.BillingCycle
	RenewalDate        *model.Date
	Category           *model.Category
	Status             *model.Status
	ReminderDaysBefore *int
	Notes              *string
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

func (p Patch) apply(sub model.Subscription) model.Subscription {
	if p.Name != nil {
		sub.Name = strings.TrimSpace(*p.Name)
	}
	if p.Provider != nil {
		sub.Provider = strings.TrimSpace(*p.Provider)
	}
	if p.Cost != nil {
		sub.Cost = *p.Cost
	}
	if p.Currency != nil {
		sub.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.BillingCycle != nil {
		sub.BillingCycle = *p.BillingCycle
	}
	if p.RenewalDate != nil {
		sub.RenewalDate = *p.RenewalDate
	}
	if p.Category != nil {
		sub.Category = *p.Category
	}
	if p.Status != nil {
		sub.Status = *p.Status
	}
	if p.ReminderDaysBefore != nil {
		sub.ReminderDaysBefore = *p.ReminderDaysBefore
	}
	if p.Notes != nil {
		sub.Notes = strings.TrimSpace(*p.Notes)
	}
	return sub
}

// Update merges p into the subscription with the given id. The id and
// creation time never change.
func (s *Store) Update(id string, p Patch) (model.Subscription, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	merged := p.apply(s.subs[i])
	merged.ID = s.subs[i].ID
	merged.CreatedAt = s.subs[i].CreatedAt
	if err := s.check(merged); err != nil {
		s.mu.Unlock()
		return model.Subscription{}, err
	}
	s.subs[i] = merged
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.log.Debugw("subscription updated", "id", id)
	s.notify(snapshot)
	return merged, nil
}

// Delete removes the subscription and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.subs = slices.Delete(s.subs, i, i+1)
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.log.Debugw("subscription deleted", "id", id)
	s.notify(snapshot)
	return true
}

// commitLocked queues the collection for persistence and returns a copy
// for change hooks. Caller holds s.mu.
func (s *Store) commitLocked() []model.Subscription {
	subs := s.subs
	if subs == nil {
		subs = []model.Subscription{}
	}
	data, err := json.Marshal(subs)
	if err != nil {
		s.log.Errorw("encoding subscriptions failed", "error", err)
	} else {
		s.persist.enqueue(KeySubscriptions, string(data))
	}
	return slices.Clone(s.subs)
}

func (s *Store) notify(snapshot []model.Subscription) {
	s.hooksMu.Lock()
	hooks := slices.Clone(s.hooks)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(slices.Clone(snapshot))
	}
}

// UpcomingRenewals returns active, non-expired subscriptions renewing
// within windowDays of today, earliest first.
func (s *Store) UpcomingRenewals(windowDays int) []model.Subscription {
	return UpcomingRenewals(s.List(), s.Today(), windowDays)
}
