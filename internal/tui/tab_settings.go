package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldCurrency = iota
	settingsFieldReminderDays
	settingsFieldBackupFrequency
	settingsFieldCheckInterval
	settingsFieldTheme
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsState() settingsState {
	return settingsState{input: newSettingsInput()}
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40
	return ti
}

// updateSettingsKey handles navigation on the Settings tab.
func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
		return a, nil, true
	case "enter":
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	case "b":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		path, err := a.svc.Backups.Run(ctx)
		if err != nil {
			a.setFlash("Backup failed: "+err.Error(), true)
		} else {
			a.setFlash("Backup written to "+path, false)
		}
		return a, nil, true
	}
	return a, nil, false
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	prefs := a.svc.Store.Preferences()
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldCurrency:
		ti.Placeholder = "USD"
		ti.CharLimit = 3
		ti.SetValue(prefs.Currency)
	case settingsFieldReminderDays:
		ti.Placeholder = "1-30"
		ti.SetValue(strconv.Itoa(prefs.ReminderDaysDefault))
	case settingsFieldBackupFrequency:
		ti.Placeholder = "weekly, monthly, quarterly, yearly"
		ti.SetValue(string(a.svc.Scheduler.Settings().Frequency))
	case settingsFieldCheckInterval:
		ti.Placeholder = "seconds, minimum 60"
		ti.SetValue(strconv.Itoa(int(a.checkInterval.Seconds())))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(theme.Active.Name)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited value to the live services and persists
// it to the config file.
func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())
	cfg := a.svc.Config
	a.settings.saveErr = nil

	switch a.settings.cursor {
	case settingsFieldCurrency:
		code := strings.ToUpper(val)
		if err := a.svc.Store.SetCurrency(code); err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.General.Currency = code
	case settingsFieldReminderDays:
		days, err := parseDays(val)
		if err == nil {
			err = a.svc.Store.SetReminderDaysDefault(days)
		}
		if err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.General.DefaultReminderDays = days
	case settingsFieldBackupFrequency:
		f, err := model.ParseBackupFrequency(val)
		if err == nil {
			err = a.svc.Scheduler.SetFrequency(f)
		}
		if err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.Backup.Frequency = string(f)
	case settingsFieldCheckInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || sec < 60 {
			a.settings.saveErr = fmt.Errorf("interval must be at least 60 seconds")
			return
		}
		cfg.Reminders.IntervalSec = sec
		a.checkInterval = time.Duration(sec) * time.Second
	case settingsFieldTheme:
		found := false
		for _, t := range theme.All {
			if t.Name == val {
				found = true
				break
			}
		}
		if !found {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
		a.list = newSubscriptionTable()
	}

	a.svc.Config = cfg
	a.settings.saveErr = config.Save(cfg)
	a.recompute()
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	prefs := a.svc.Store.Preferences()
	st := a.svc.Scheduler.State()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceHover).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover)

	type field struct {
		label string
		value string
	}
	fields := []field{
		{"Currency", prefs.Currency},
		{"Reminder Days", strconv.Itoa(prefs.ReminderDaysDefault)},
		{"Backup Frequency", string(st.Frequency)},
		{"Check Interval", fmt.Sprintf("%ds", int(a.checkInterval.Seconds()))},
		{"Theme", t.Name},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := components.CardInnerWidth(cw) - used; pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceHover).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}
	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel  [b] backup now"))

	last := "never"
	if st.Last != nil {
		last = st.Last.Local().Format("2006-01-02 15:04")
	}
	next := "now"
	if st.Next != nil {
		next = st.Next.Local().Format("2006-01-02")
	}

	var info strings.Builder
	info.WriteString(labelStyle.Render("Database:        ") + valueStyle.Render(a.svc.Config.DBPath()) + "\n")
	info.WriteString(labelStyle.Render("Backups:         ") + valueStyle.Render(a.svc.Backups.Dir()) + "\n")
	info.WriteString(labelStyle.Render("Last backup:     ") + valueStyle.Render(last) + "\n")
	info.WriteString(labelStyle.Render("Next backup:     ") + valueStyle.Render(next+" ("+string(st.State)+")") + "\n")
	info.WriteString(labelStyle.Render("Channels:        ") + valueStyle.Render(strings.Join(a.svc.Config.Reminders.Channels, ", ")) + "\n")
	info.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Storage", info.String(), cw))
	return b.String()
}
