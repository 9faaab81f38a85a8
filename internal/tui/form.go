package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"
)

// SubscriptionValues is the string-typed state bound to the add/edit form.
type SubscriptionValues struct {
	Name         string
	Provider     string
	Cost         string
	Currency     string
	BillingCycle string
	RenewalDate  string
	Category     string
	Status       string
	ReminderDays string
	Notes        string
}

// ValuesFrom fills form values from an existing subscription.
func ValuesFrom(s model.Subscription) *SubscriptionValues {
	return &SubscriptionValues{
		Name:         s.Name,
		Provider:     s.Provider,
		Cost:         strconv.FormatFloat(s.Cost, 'f', -1, 64),
		Currency:     s.Currency,
		BillingCycle: string(s.BillingCycle),
		RenewalDate:  s.RenewalDate.String(),
		Category:     string(s.Category),
		Status:       string(s.Status),
		ReminderDays: strconv.Itoa(s.ReminderDaysBefore),
		Notes:        s.Notes,
	}
}

// NewValues returns defaults for a fresh subscription.
func NewValues(prefs model.Preferences, today model.Date) *SubscriptionValues {
	return &SubscriptionValues{
		Currency:     prefs.Currency,
		BillingCycle: string(model.CycleMonthly),
		RenewalDate:  today.AddMonths(1).String(),
		Category:     string(model.CategoryOther),
		Status:       string(model.StatusActive),
		ReminderDays: strconv.Itoa(prefs.ReminderDaysDefault),
	}
}

// Draft converts the values into a tracker draft.
func (v *SubscriptionValues) Draft() (tracker.Draft, error) {
	cost, err := parseCost(v.Cost)
	if err != nil {
		return tracker.Draft{}, err
	}
	renewal, err := model.ParseDate(strings.TrimSpace(v.RenewalDate))
	if err != nil {
		return tracker.Draft{}, fmt.Errorf("renewal date: %w", err)
	}
	days, err := parseDays(v.ReminderDays)
	if err != nil {
		return tracker.Draft{}, err
	}
	return tracker.Draft{
		Name:               v.Name,
		Provider:           v.Provider,
		Cost:               cost,
		Currency:           v.Currency,
		BillingCycle:       model.BillingCycle(v.BillingCycle),
		RenewalDate:        renewal,
		Category:           model.Category(v.Category),
		Status:             model.Status(v.Status),
		ReminderDaysBefore: days,
		Notes:              v.Notes,
	}, nil
}

// Patch converts the values into a full-replacement patch.
func (v *SubscriptionValues) Patch() (tracker.Patch, error) {
	d, err := v.Draft()
	if err != nil {
		return tracker.Patch{}, err
	}
	return tracker.Patch{
		Name:               &d.Name,
		Provider:           &d.Provider,
		Cost:               &d.Cost,
		Currency:           &d.Currency,
		BillingCycle:       &d.BillingCycle,
		RenewalDate:        &d.RenewalDate,
		Category:           &d.Category,
		Status:             &d.Status,
		ReminderDaysBefore: &d.ReminderDaysBefore,
		Notes:              &d.Notes,
	}, nil
}

func parseCost(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	cost, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("cost must be a number")
	}
	if cost <= 0 || cost > tracker.MaxCost {
		return 0, fmt.Errorf("cost must be greater than 0 and at most %d", tracker.MaxCost)
	}
	return cost, nil
}

func parseDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < tracker.MinReminderDays || n > tracker.MaxReminderDays {
		return 0, fmt.Errorf("reminder days must be %d-%d", tracker.MinReminderDays, tracker.MaxReminderDays)
	}
	return n, nil
}

func validateName(s string) error {
	n := len([]rune(strings.TrimSpace(s)))
	if n < tracker.MinNameLen || n > tracker.MaxNameLen {
		return fmt.Errorf("name must be %d-%d characters", tracker.MinNameLen, tracker.MaxNameLen)
	}
	return nil
}

func validateDate(s string) error {
	_, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func options[T ~string](vals []T) []huh.Option[string] {
	out := make([]huh.Option[string], len(vals))
	for i, v := range vals {
		out[i] = huh.NewOption(string(v), string(v))
	}
	return out
}

// NewSubscriptionForm builds the add/edit form bound to v.
func NewSubscriptionForm(title string, v *SubscriptionValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title(title),
			huh.NewInput().Title("Name").Value(&v.Name).Validate(validateName),
			huh.NewInput().Title("Provider").Placeholder("optional").Value(&v.Provider),
			huh.NewInput().Title("Cost").Placeholder("9.99").Value(&v.Cost).
				Validate(func(s string) error { _, err := parseCost(s); return err }),
			huh.NewInput().Title("Currency").Placeholder("USD").Value(&v.Currency).CharLimit(3),
			huh.NewSelect[string]().Title("Billing cycle").
				Options(options(model.BillingCycles)...).Value(&v.BillingCycle),
		),
		huh.NewGroup(
			huh.NewInput().Title("Next renewal").Placeholder("YYYY-MM-DD").
				Value(&v.RenewalDate).Validate(validateDate),
			huh.NewSelect[string]().Title("Category").
				Options(options(model.Categories)...).Value(&v.Category),
			huh.NewSelect[string]().Title("Status").
				Options(options(model.Statuses)...).Value(&v.Status),
			huh.NewInput().Title("Remind days before").Value(&v.ReminderDays).
				Validate(func(s string) error { _, err := parseDays(s); return err }),
			huh.NewText().Title("Notes").Value(&v.Notes).CharLimit(tracker.MaxNotesLen),
		),
	).WithShowHelp(true)
}
