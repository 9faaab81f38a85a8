// Package tui provides the interactive Bubble Tea dashboard for subtrack.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/subtrack/internal/app"
	"github.com/theirongolddev/subtrack/internal/backup"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/reminder"
	"github.com/theirongolddev/subtrack/internal/tracker"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabSubscriptions
	tabUpcoming
	tabCategories
	tabSettings
)

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	flashTTL = 4 * time.Second
)

type formMode int

const (
	formNone formMode = iota
	formAdd
	formEdit
)

// tickMsg drives flash expiry and periodic reminder checks.
type tickMsg time.Time

// checkDoneMsg carries the result of a background reminder scan.
type checkDoneMsg struct {
	Result reminder.Result
	At     time.Time
}

// App is the root Bubble Tea model.
type App struct {
	svc *app.App

	// Data, recomputed after every mutation
	subs     []model.Subscription
	visible  []model.Subscription
	summary  tracker.Summary
	upcoming []reminder.Upcoming
	today    model.Date

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	list           table.Model
	categoryFilter model.Category

	// Add/edit form (huh)
	form     *huh.Form
	formMode formMode
	formVals *SubscriptionValues
	editID   string

	confirmDelete string

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	settings settingsState

	flash      string
	flashError bool
	flashAt    time.Time

	checkInterval time.Duration
	lastCheckAt   time.Time
	lastFired     int
	checking      bool
}

// NewApp creates the dashboard over svc. needSetup opens the first-run
// wizard before the dashboard.
func NewApp(svc *app.App, needSetup bool) App {
	theme.SetActive(svc.Config.Appearance.Theme)

	interval := time.Duration(svc.Config.Reminders.IntervalSec) * time.Second
	if interval < time.Minute {
		interval = time.Minute
	}

	a := App{
		svc:           svc,
		needSetup:     needSetup,
		checkInterval: interval,
		list:          newSubscriptionTable(),
		settings:      newSettingsState(),
	}
	a.recompute()
	if needSetup {
		a.setupVals = SetupValuesFrom(svc.Config, svc.Scheduler.Settings().Frequency)
		a.setupForm = NewSetupForm(a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		tickCmd(),
		checkCmd(a.svc),
	}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) recompute() {
	a.today = a.svc.Store.Today()
	a.subs = a.svc.Store.SortedList()
	a.summary = tracker.Summarize(a.subs, a.today)
	a.upcoming = reminder.ListUpcoming(a.subs, a.svc.Clock.Now(), a.lookahead())

	a.visible = a.subs
	if a.categoryFilter != "" {
		a.visible = tracker.FilterByCategory(a.subs, a.categoryFilter)
	}
	a.list.SetRows(subscriptionRows(a.visible, a.today))
	if c := a.list.Cursor(); c >= len(a.visible) {
		a.list.SetCursor(max(len(a.visible)-1, 0))
	}
}

func (a App) lookahead() int {
	if n := a.svc.Config.Reminders.LookaheadDays; n > 0 {
		return n
	}
	return 30
}

func (a *App) setFlash(msg string, isErr bool) {
	a.flash = msg
	a.flashError = isErr
	a.flashAt = a.svc.Clock.Now()
}

// selected returns the subscription under the list cursor.
func (a App) selected() (model.Subscription, bool) {
	c := a.list.Cursor()
	if c < 0 || c >= len(a.visible) {
		return model.Subscription{}, false
	}
	return a.visible[c], true
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetWidth(a.contentWidth() - 4)
		a.list.SetHeight(max(a.height-10, minContentHeight))
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 72))
		}
		return a, nil

	case tea.MouseMsg:
		if a.showHelp || a.form != nil || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabSubscriptions {
				a.list.MoveUp(1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabSubscriptions {
				a.list.MoveDown(1)
			}
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tickMsg:
		now := time.Time(msg)
		if a.flash != "" && now.Sub(a.flashAt) > flashTTL {
			a.flash = ""
		}
		cmds := []tea.Cmd{tickCmd()}
		if !a.checking && now.Sub(a.lastCheckAt) >= a.checkInterval {
			a.checking = true
			cmds = append(cmds, checkCmd(a.svc))
		}
		return a, tea.Batch(cmds...)

	case checkDoneMsg:
		a.checking = false
		a.lastCheckAt = msg.At
		a.lastFired += len(msg.Result.Fired)
		if n := len(msg.Result.Fired); n > 0 {
			a.setFlash(fmt.Sprintf("%d reminder(s) sent", n), false)
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}
		if a.confirmDelete != "" {
			return a.updateConfirmDelete(key)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if a.activeTab == tabSubscriptions {
			if m, cmd, handled := a.updateSubscriptionsKey(msg); handled {
				return m, cmd
			}
		}
		if a.activeTab == tabSettings {
			if m, cmd, handled := a.updateSettingsKey(key); handled {
				return m, cmd
			}
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "a":
			return a.openAddForm()
		case "r":
			if err := a.svc.Store.Reload(); err != nil {
				a.setFlash(err.Error(), true)
				return a, nil
			}
			a.recompute()
			a.checking = true
			return a, checkCmd(a.svc)
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		default:
			if len(msg.Runes) == 1 {
				if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
					a.activeTab = idx
				}
			}
		}
		return a, nil
	}

	// Forward unhandled messages (cursor blinks, etc.) to an open form.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.form != nil {
		return a.updateForm(msg)
	}
	if a.settings.editing {
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) openAddForm() (tea.Model, tea.Cmd) {
	a.formMode = formAdd
	a.editID = ""
	a.formVals = NewValues(a.svc.Store.Preferences(), a.today)
	a.form = NewSubscriptionForm("New subscription", a.formVals)
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 72))
	}
	return a, a.form.Init()
}

func (a App) openEditForm(sub model.Subscription) (tea.Model, tea.Cmd) {
	a.formMode = formEdit
	a.editID = sub.ID
	a.formVals = ValuesFrom(sub)
	a.form = NewSubscriptionForm("Edit "+sub.Name, a.formVals)
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 72))
	}
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.form = nil
		a.formMode = formNone
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		a.submitForm()
		a.form = nil
		a.formMode = formNone
		return a, nil
	case huh.StateAborted:
		a.form = nil
		a.formMode = formNone
		return a, nil
	}
	return a, cmd
}

func (a *App) submitForm() {
	switch a.formMode {
	case formAdd:
		d, err := a.formVals.Draft()
		if err != nil {
			a.setFlash(err.Error(), true)
			return
		}
		sub, err := a.svc.Store.Add(d)
		if err != nil {
			a.setFlash(err.Error(), true)
			return
		}
		a.setFlash("Added "+sub.Name, false)
	case formEdit:
		p, err := a.formVals.Patch()
		if err != nil {
			a.setFlash(err.Error(), true)
			return
		}
		sub, err := a.svc.Store.Update(a.editID, p)
		if err != nil {
			a.setFlash(err.Error(), true)
			return
		}
		a.setFlash("Saved "+sub.Name, false)
	}
	a.recompute()
}

func (a App) updateConfirmDelete(key string) (tea.Model, tea.Cmd) {
	id := a.confirmDelete
	a.confirmDelete = ""
	if key != "y" && key != "Y" {
		a.setFlash("Delete cancelled", false)
		return a, nil
	}
	if a.svc.Store.Delete(id) {
		a.setFlash("Deleted", false)
	}
	a.recompute()
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.setupVals.Apply(a.svc); err != nil {
			a.setFlash("Could not save config: "+err.Error(), true)
		} else {
			a.setFlash("Setup saved", false)
		}
		a.setupForm = nil
		a.needSetup = false
		a.recompute()
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  subtrack needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	section := func(name string, binds []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
		b.WriteString("\n")
	}
	section("Navigation", []struct{ key, desc string }{
		{"o s u c x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move in lists"},
	})
	section("Subscriptions", []struct{ key, desc string }{
		{"a", "Add subscription"},
		{"e Enter", "Edit selected"},
		{"d", "Delete selected"},
		{"f", "Cycle category filter"},
		{"S D", "Cycle sort / flip direction"},
	})
	section("General", []struct{ key, desc string }{
		{"r", "Reload and check reminders"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch {
	case a.form != nil:
		content = "\n" + a.form.View()
	default:
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabSubscriptions:
			content = a.renderSubscriptionsTab(cw)
		case tabUpcoming:
			content = a.renderUpcomingTab(cw)
		case tabCategories:
			content = a.renderCategoriesTab(cw)
		case tabSettings:
			content = a.renderSettingsTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() components.StatusInfo {
	info := components.StatusInfo{Flash: a.flash, FlashError: a.flashError}
	if a.confirmDelete != "" {
		info.Flash = "Delete selected subscription? y/N"
		info.FlashError = true
	}
	if !a.lastCheckAt.IsZero() {
		info.Reminders = fmt.Sprintf("%d reminder(s) sent · checked %s", a.lastFired, a.lastCheckAt.Local().Format("15:04"))
	}
	if st := a.svc.Scheduler.State(); st.State == backup.StateDue {
		info.Backup = "backup due"
	}
	return info
}

// ─── Helpers ────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// checkCmd runs a reminder scan off the UI goroutine.
func checkCmd(svc *app.App) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res := svc.CheckReminders(ctx)
		return checkDoneMsg{Result: res, At: svc.Clock.Now()}
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}
