// Package model defines domain types for subtrack subscriptions and settings.
package model

import (
	"fmt"
	"strings"
	"time"
)

// BillingCycle is the recurrence period of a subscription charge.
type BillingCycle string

// Billing cycles.
const (
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleBiAnnual  BillingCycle = "bi-annual"
	CycleYearly    BillingCycle = "yearly"
)

// BillingCycles lists every cycle in display order.
var BillingCycles = []BillingCycle{CycleMonthly, CycleQuarterly, CycleBiAnnual, CycleYearly}

// Valid reports whether c is a known cycle.
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleMonthly, CycleQuarterly, CycleBiAnnual, CycleYearly:
		return true
	}
	return false
}

// Months returns the cycle length in months.
func (c BillingCycle) Months() int {
	switch c {
	case CycleMonthly:
		return 1
	case CycleQuarterly:
		return 3
	case CycleBiAnnual:
		return 6
	case CycleYearly:
		return 12
	}
	return 0
}

// MonthlyMultiplier converts a per-cycle cost to a monthly-equivalent cost.
func (c BillingCycle) MonthlyMultiplier() float64 {
	if m := c.Months(); m > 0 {
		return 1 / float64(m)
	}
	return 0
}

// YearlyMultiplier converts a per-cycle cost to a yearly total.
func (c BillingCycle) YearlyMultiplier() float64 {
	switch c {
	case CycleMonthly:
		return 12
	case CycleQuarterly:
		return 4
	case CycleBiAnnual:
		return 2
	case CycleYearly:
		return 1
	}
	return 0
}

// ParseBillingCycle accepts the canonical names plus a few common spellings.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return CycleMonthly, nil
	case "quarterly", "quarter":
		return CycleQuarterly, nil
	case "bi-annual", "biannual", "semi-annual", "half-yearly":
		return CycleBiAnnual, nil
	case "yearly", "annual", "year":
		return CycleYearly, nil
	}
	return "", fmt.Errorf("unknown billing cycle %q", s)
}

// Category is the closed set of subscription categories.
type Category string

// Categories.
const (
	CategoryStreaming    Category = "streaming"
	CategoryMusic        Category = "music"
	CategoryProductivity Category = "productivity"
	CategoryGaming       Category = "gaming"
	CategoryEducation    Category = "education"
	CategoryOther        Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryStreaming, CategoryMusic, CategoryProductivity,
	CategoryGaming, CategoryEducation, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryStreaming, CategoryMusic, CategoryProductivity,
		CategoryGaming, CategoryEducation, CategoryOther:
		return true
	}
	return false
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Status is the stored lifecycle state of a subscription.
type Status string

// Statuses. Expired is never stored; see Subscription.DisplayStatus.
const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"

	displayExpired = "expired"
)

// Statuses lists every stored status in severity order.
var Statuses = []Status{StatusActive, StatusPaused, StatusCancelled}

// Valid reports whether s is a stored status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

// Rank orders statuses active < paused < cancelled.
func (s Status) Rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusPaused:
		return 1
	case StatusCancelled:
		return 2
	}
	return 3
}

// ParseStatus parses a status name. The legacy "expired" value maps to
// active because expiry is derived from the renewal date.
func ParseStatus(s string) (Status, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case displayExpired:
		return StatusActive, nil
	case "canceled":
		return StatusCancelled, nil
	default:
		st := Status(v)
		if !st.Valid() {
			return "", fmt.Errorf("unknown status %q", s)
		}
		return st, nil
	}
}

// Subscription is one tracked recurring charge.
type Subscription struct {
	ID                 string       `json:"id" yaml:"id"`
	Name               string       `json:"name" yaml:"name"`
	Provider           string       `json:"provider" yaml:"provider,omitempty"`
	Cost               float64      `json:"cost" yaml:"cost"`
	Currency           string       `json:"currency" yaml:"currency"`
	BillingCycle       BillingCycle `json:"billingCycle" yaml:"billing_cycle"`
	RenewalDate        Date         `json:"renewalDate" yaml:"renewal_date"`
	Category           Category     `json:"category" yaml:"category"`
	Status             Status       `json:"status" yaml:"status"`
	ReminderDaysBefore int          `json:"reminderDaysBefore" yaml:"reminder_days_before"`
	CreatedAt          time.Time    `json:"createdAt" yaml:"created_at"`
	Notes              string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// MonthlyCost returns the monthly-equivalent cost.
func (s Subscription) MonthlyCost() float64 {
	return s.Cost * s.BillingCycle.MonthlyMultiplier()
}

// YearlyCost returns the yearly total.
func (s Subscription) YearlyCost() float64 {
	return s.Cost * s.BillingCycle.YearlyMultiplier()
}

// DaysUntilRenewal returns the signed day count from today to the renewal date.
func (s Subscription) DaysUntilRenewal(today Date) int {
	return DaysBetween(today, s.RenewalDate)
}

// IsExpired reports whether an active subscription's renewal date has passed.
func (s Subscription) IsExpired(today Date) bool {
	return s.Status == StatusActive && s.RenewalDate.Before(today)
}

// Counts reports whether s contributes to cost totals: active and not past due.
func (s Subscription) Counts(today Date) bool {
	return s.Status == StatusActive && !s.IsExpired(today)
}

// DisplayStatus returns "expired" for past-due active subscriptions and the
// stored status otherwise.
func (s Subscription) DisplayStatus(today Date) string {
	if s.IsExpired(today) {
		return displayExpired
	}
	return string(s.Status)
}
