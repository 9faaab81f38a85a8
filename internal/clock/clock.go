// Package clock abstracts the wall clock so date-sensitive logic can be tested.
package clock

import (
	"sync"
	"time"

	"github.com/theirongolddev/subtrack/internal/model"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Today returns the local calendar day of c.Now().
func Today(c Clock) model.Date {
	return model.DateOf(c.Now())
}

// Fixed is a settable clock for tests and dry runs.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// At returns a clock frozen at noon UTC of the given date.
func At(d model.Date) *Fixed {
	return NewFixed(d.Time().Add(12 * time.Hour))
}

// Now returns the frozen time.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
