package model

import (
	"fmt"
	"strings"
)

// SortField selects the ordering key for subscription listings.
type SortField string

// Sort fields.
const (
	SortYearlyTotal SortField = "yearlyTotal"
	SortRenewalDate SortField = "renewalDate"
	SortName        SortField = "name"
	SortStatus      SortField = "status"
)

// SortFields lists every sort field.
var SortFields = []SortField{SortYearlyTotal, SortRenewalDate, SortName, SortStatus}

// Valid reports whether f is a known field.
func (f SortField) Valid() bool {
	switch f {
	case SortYearlyTotal, SortRenewalDate, SortName, SortStatus:
		return true
	}
	return false
}

// ParseSortField accepts both camelCase and kebab-case names.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "yearlytotal", "yearly", "cost":
		return SortYearlyTotal, nil
	case "renewaldate", "renewal", "date":
		return SortRenewalDate, nil
	case "name":
		return SortName, nil
	case "status":
		return SortStatus, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// SortDirection is ascending or descending.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is asc or desc.
func (d SortDirection) Valid() bool { return d == SortAsc || d == SortDesc }

// Preferences holds per-user display and default settings.
type Preferences struct {
	Currency            string        `json:"currency"`
	ReminderDaysDefault int           `json:"reminderDaysDefault"`
	SortBy              SortField     `json:"sortBy"`
	SortDirection       SortDirection `json:"sortDirection"`
}

// DefaultPreferences returns the settings used before anything is saved.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency:            "USD",
		ReminderDaysDefault: 7,
		SortBy:              SortRenewalDate,
		SortDirection:       SortAsc,
	}
}
