package tracker

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"

	"github.com/theirongolddev/subtrack/internal/model"
)

// Preferences returns the current preferences.
func (s *Store) Preferences() model.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SetCurrency changes the display currency. Stored amounts are untouched.
func (s *Store) SetCurrency(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, err := currency.ParseISO(code); err != nil || len(code) != 3 {
		return fieldError("currency", "must be an ISO 4217 currency code")
	}
	s.mu.Lock()
	s.prefs.Currency = code
	s.persistPrefsLocked()
	s.mu.Unlock()
	return nil
}

// SetReminderDaysDefault changes the lead time applied to new subscriptions.
func (s *Store) SetReminderDaysDefault(days int) error {
	if days < MinReminderDays || days > MaxReminderDays {
		return fieldError("reminderDaysDefault",
			fmt.Sprintf("must be between %d and %d", MinReminderDays, MaxReminderDays))
	}
	s.mu.Lock()
	s.prefs.ReminderDaysDefault = days
	s.persistPrefsLocked()
	s.mu.Unlock()
	return nil
}

// SetSort changes the default listing order.
func (s *Store) SetSort(field model.SortField, dir model.SortDirection) error {
	if !field.Valid() {
		return fieldError("sortBy", "must be one of yearlyTotal, renewalDate, name, status")
	}
	if !dir.Valid() {
		return fieldError("sortDirection", "must be asc or desc")
	}
	s.mu.Lock()
	s.prefs.SortBy = field
	s.prefs.SortDirection = dir
	s.persistPrefsLocked()
	s.mu.Unlock()
	return nil
}

// SortedList returns the collection in the preferred order.
func (s *Store) SortedList() []model.Subscription {
	prefs := s.Preferences()
	return Sorted(s.List(), prefs.SortBy, prefs.SortDirection)
}
