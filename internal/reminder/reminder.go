// Package reminder decides which subscriptions need a renewal reminder and
// fires each one at most once per renewal date.
package reminder

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/subtrack/internal/model"
)

// Notifier delivers one notification.
type Notifier interface {
	Notify(ctx context.Context, title, body, tag string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, title, body, tag string) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, title, body, tag string) error {
	return f(ctx, title, body, tag)
}

// Kind classifies a reminder.
type Kind string

// Reminder kinds.
const (
	KindDueToday  Kind = "due-today"
	KindRenewSoon Kind = "renew-soon"
)

// Reminder is one notification the engine wants to send.
type Reminder struct {
	Subscription model.Subscription
	Kind         Kind
	DaysUntil    int
	Title        string
	Body         string
	Tag          string
}

// Key identifies a reminder in the ledger.
func (r Reminder) Key() Key {
	return Key{ID: r.Subscription.ID, Renewal: r.Subscription.RenewalDate}
}

// Classify returns the reminder for sub on today, if one is due.
// Only active subscriptions qualify; past renewal dates never fire.
func Classify(sub model.Subscription, today model.Date) (Reminder, bool) {
	if sub.Status != model.StatusActive {
		return Reminder{}, false
	}
	days := sub.DaysUntilRenewal(today)
	r := Reminder{Subscription: sub, DaysUntil: days, Tag: "reminder-" + sub.ID}
	date := sub.RenewalDate.String()
	switch {
	case days == 0:
		r.Kind = KindDueToday
		r.Title = fmt.Sprintf("%s subscription expires today", sub.Name)
		r.Body = fmt.Sprintf("Your %s subscription expires today (%s). Please renew it.", sub.Name, date)
	case days > 0 && days <= sub.ReminderDaysBefore:
		r.Kind = KindRenewSoon
		r.Title = fmt.Sprintf("Renew %s", sub.Name)
		r.Body = fmt.Sprintf("Your %s subscription renews in %s on %s.", sub.Name, plural(days, "day"), date)
	default:
		return Reminder{}, false
	}
	return r, true
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Due lists reminders due on the calendar day of now without touching the
// ledger.
func Due(subs []model.Subscription, now time.Time) []Reminder {
	today := model.DateOf(now)
	var out []Reminder
	for _, s := range subs {
		if r, ok := Classify(s, today); ok {
			out = append(out, r)
		}
	}
	return out
}

// Upcoming is one active subscription renewing inside a look-ahead window.
type Upcoming struct {
	Subscription  model.Subscription
	DaysUntil     int
	NeedsReminder bool
}

// ListUpcoming returns active subscriptions renewing within windowDays of
// now, soonest first. NeedsReminder is set inside the reminder lead time.
func ListUpcoming(subs []model.Subscription, now time.Time, windowDays int) []Upcoming {
	today := model.DateOf(now)
	var out []Upcoming
	for _, s := range subs {
		if s.Status != model.StatusActive {
			continue
		}
		days := s.DaysUntilRenewal(today)
		if days < 0 || days > windowDays {
			continue
		}
		out = append(out, Upcoming{
			Subscription:  s,
			DaysUntil:     days,
			NeedsReminder: days <= s.ReminderDaysBefore,
		})
	}
	slices.SortStableFunc(out, func(a, b Upcoming) int { return a.DaysUntil - b.DaysUntil })
	return out
}

// Sent reports whether r was already delivered for its renewal date.
func (e *Engine) Sent(ctx context.Context, r Reminder) (bool, error) {
	return e.ledger.Seen(ctx, r.Key())
}

// Recorder observes engine outcomes, typically for metrics.
type Recorder interface {
	ReminderFired(kind string)
	ReminderDuplicate()
	NotifyFailed()
}

// Result summarizes one Check.
type Result struct {
	Fired        []Reminder
	Duplicates   int
	Failed       int
	LedgerErrors int
	Pruned       int
}

// Engine fires reminders through a Notifier, deduplicating with a Ledger.
type Engine struct {
	mu       sync.Mutex
	ledger   Ledger
	notifier Notifier
	log      *zap.SugaredLogger
	rec      Recorder
}

// NewEngine returns an engine. log and rec may be nil.
func NewEngine(ledger Ledger, notifier Notifier, log *zap.SugaredLogger, rec Recorder) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{ledger: ledger, notifier: notifier, log: log, rec: rec}
}

// Check fires every due reminder that the ledger has not seen yet, then
// prunes ledger entries for dates before today. Scans never overlap.
// Notifier failures are logged and counted, and the ledger entry is
// removed again so the next scan retries.
func (e *Engine) Check(ctx context.Context, subs []model.Subscription, now time.Time) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res Result
	for _, r := range Due(subs, now) {
		fresh, err := e.ledger.Mark(ctx, r.Key())
		if err != nil {
			res.LedgerErrors++
			e.log.Warnw("reminder ledger unavailable, skipping", "id", r.Subscription.ID, "error", err)
			continue
		}
		if !fresh {
			res.Duplicates++
			if e.rec != nil {
				e.rec.ReminderDuplicate()
			}
			continue
		}
		if err := e.notifier.Notify(ctx, r.Title, r.Body, r.Tag); err != nil {
			res.Failed++
			if e.rec != nil {
				e.rec.NotifyFailed()
			}
			e.log.Warnw("reminder notification failed", "id", r.Subscription.ID, "tag", r.Tag, "error", err)
			if err := e.ledger.Unmark(ctx, r.Key()); err != nil {
				e.log.Warnw("releasing reminder ledger entry failed", "id", r.Subscription.ID, "error", err)
			}
			continue
		}
		res.Fired = append(res.Fired, r)
		if e.rec != nil {
			e.rec.ReminderFired(string(r.Kind))
		}
		e.log.Infow("reminder sent", "id", r.Subscription.ID, "name", r.Subscription.Name, "days", r.DaysUntil)
	}

	pruned, err := e.ledger.Prune(ctx, model.DateOf(now))
	if err != nil {
		e.log.Warnw("pruning reminder ledger failed", "error", err)
	}
	res.Pruned = pruned
	return res
}
