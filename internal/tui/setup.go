package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/subtrack/internal/app"
	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tui/theme"
)

// SetupValues holds the first-run wizard answers.
type SetupValues struct {
	Currency     string
	ReminderDays string
	Frequency    string
	Theme        string
	Channels     []string
}

// SetupValuesFrom seeds the wizard from the current configuration.
func SetupValuesFrom(cfg config.Config, freq model.BackupFrequency) *SetupValues {
	return &SetupValues{
		Currency:     cfg.General.Currency,
		ReminderDays: strconv.Itoa(cfg.General.DefaultReminderDays),
		Frequency:    string(freq),
		Theme:        cfg.Appearance.Theme,
		Channels:     append([]string(nil), cfg.Reminders.Channels...),
	}
}

// NewSetupForm builds the first-run wizard bound to v.
func NewSetupForm(v *SetupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}
	channels := []huh.Option[string]{
		huh.NewOption("Log", config.ChannelLog),
		huh.NewOption("Email (SMTP)", config.ChannelEmail),
		huh.NewOption("Redis pub/sub", config.ChannelRedis),
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to subtrack").
				Description("Track recurring subscriptions, see what they cost,\nand get reminded before they renew.\n\nA few questions and you're set."),
			huh.NewInput().Title("Display currency").Placeholder("USD").
				Value(&v.Currency).CharLimit(3).
				Validate(func(s string) error {
					if len(strings.TrimSpace(s)) != 3 {
						return fmt.Errorf("use a three-letter ISO code")
					}
					return nil
				}),
			huh.NewInput().Title("Default reminder lead time (days)").
				Value(&v.ReminderDays).
				Validate(func(s string) error { _, err := parseDays(s); return err }),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Automatic backups").
				Options(options(model.BackupFrequencies)...).Value(&v.Frequency),
			huh.NewMultiSelect[string]().Title("Reminder channels").
				Options(channels...).Value(&v.Channels),
			huh.NewSelect[string]().Title("Color theme").
				Options(themes...).Value(&v.Theme),
		),
	).WithShowHelp(true)
}

// Apply writes the answers to the store, the backup schedule and the
// config file.
func (v *SetupValues) Apply(svc *app.App) error {
	currency := strings.ToUpper(strings.TrimSpace(v.Currency))
	days, err := parseDays(v.ReminderDays)
	if err != nil {
		return err
	}
	freq, err := model.ParseBackupFrequency(v.Frequency)
	if err != nil {
		return err
	}

	if err := svc.Store.SetCurrency(currency); err != nil {
		return err
	}
	if err := svc.Store.SetReminderDaysDefault(days); err != nil {
		return err
	}
	if err := svc.Scheduler.SetFrequency(freq); err != nil {
		return err
	}

	cfg := svc.Config
	cfg.General.Currency = currency
	cfg.General.DefaultReminderDays = days
	cfg.Backup.Frequency = string(freq)
	cfg.Appearance.Theme = v.Theme
	if len(v.Channels) > 0 {
		cfg.Reminders.Channels = v.Channels
	}
	theme.SetActive(v.Theme)
	svc.Config = cfg
	return config.Save(cfg)
}
