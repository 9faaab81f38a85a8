package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func newSubscriptionTable() table.Model {
	cols := []table.Column{
		{Title: "Name", Width: 22},
		{Title: "Category", Width: 13},
		{Title: "Status", Width: 10},
		{Title: "Cost", Width: 16},
		{Title: "Monthly", Width: 12},
		{Title: "Renews", Width: 11},
		{Title: "Due", Width: 12},
	}
	tbl := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	t := theme.Active
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(t.TextMuted).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true)
	styles.Cell = styles.Cell.Foreground(t.TextPrimary)
	tbl.SetStyles(styles)
	return tbl
}

func subscriptionRows(subs []model.Subscription, today model.Date) []table.Row {
	rows := make([]table.Row, len(subs))
	for i, s := range subs {
		rows[i] = table.Row{
			truncStr(s.Name, 22),
			string(s.Category),
			s.DisplayStatus(today),
			cli.FormatMoney(s.Cost, s.Currency) + cli.FormatCycle(s.BillingCycle),
			cli.FormatMoney(s.MonthlyCost(), s.Currency),
			s.RenewalDate.String(),
			cli.FormatDays(s.DaysUntilRenewal(today)),
		}
	}
	return rows
}

// updateSubscriptionsKey handles keys specific to the Subscriptions tab.
// handled is false when the key should fall through to global bindings.
func (a App) updateSubscriptionsKey(msg tea.KeyMsg) (m tea.Model, cmd tea.Cmd, handled bool) {
	switch msg.String() {
	case "e", "enter":
		sub, ok := a.selected()
		if !ok {
			return a, nil, true
		}
		m, cmd = a.openEditForm(sub)
		return m, cmd, true

	case "d":
		if sub, ok := a.selected(); ok {
			a.confirmDelete = sub.ID
		}
		return a, nil, true

	case "f":
		a.categoryFilter = nextCategory(a.categoryFilter)
		a.list.SetCursor(0)
		a.recompute()
		return a, nil, true

	case "S":
		prefs := a.svc.Store.Preferences()
		if err := a.svc.Store.SetSort(nextSortField(prefs.SortBy), prefs.SortDirection); err != nil {
			a.setFlash(err.Error(), true)
		}
		a.recompute()
		return a, nil, true

	case "D":
		prefs := a.svc.Store.Preferences()
		dir := model.SortDesc
		if prefs.SortDirection == model.SortDesc {
			dir = model.SortAsc
		}
		if err := a.svc.Store.SetSort(prefs.SortBy, dir); err != nil {
			a.setFlash(err.Error(), true)
		}
		a.recompute()
		return a, nil, true

	case "up", "down", "j", "k", "pgup", "pgdown", "home", "end", "g", "G":
		a.list, cmd = a.list.Update(msg)
		return a, cmd, true
	}
	return a, nil, false
}

// nextCategory cycles "" (all) through every category and back.
func nextCategory(c model.Category) model.Category {
	if c == "" {
		return model.Categories[0]
	}
	i := slices.Index(model.Categories, c)
	if i < 0 || i == len(model.Categories)-1 {
		return ""
	}
	return model.Categories[i+1]
}

func nextSortField(f model.SortField) model.SortField {
	i := slices.Index(model.SortFields, f)
	return model.SortFields[(i+1)%len(model.SortFields)]
}

func (a App) renderSubscriptionsTab(cw int) string {
	t := theme.Active
	prefs := a.svc.Store.Preferences()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	filter := "all"
	if a.categoryFilter != "" {
		filter = string(a.categoryFilter)
	}
	arrow := "↑"
	if prefs.SortDirection == model.SortDesc {
		arrow = "↓"
	}
	title := fmt.Sprintf("Subscriptions [%d]  filter: %s  sort: %s %s",
		len(a.visible), filter, prefs.SortBy, arrow)

	var list string
	if len(a.visible) == 0 {
		list = dimStyle.Render("Nothing here. Press [a] to add a subscription or [f] to change the filter.")
	} else {
		list = a.list.View()
	}

	var b strings.Builder
	b.WriteString(components.ContentCard(title, list, cw))
	b.WriteString("\n")

	if sub, ok := a.selected(); ok {
		status := sub.DisplayStatus(a.today)
		var d strings.Builder
		row := func(label, value string) {
			d.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)))
			d.WriteString(valueStyle.Render(value))
			d.WriteString("\n")
		}
		row("Provider", orDash(sub.Provider))
		row("Cost", cli.FormatMoney(sub.Cost, sub.Currency)+" "+string(sub.BillingCycle))
		row("Yearly", cli.FormatMoney(sub.YearlyCost(), sub.Currency))
		d.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", "Status")))
		d.WriteString(components.Badge(status, t.StatusColor(status)))
		d.WriteString("\n")
		row("Renews", sub.RenewalDate.String()+" ("+cli.FormatDays(sub.DaysUntilRenewal(a.today))+")")
		row("Reminder", fmt.Sprintf("%d days before", sub.ReminderDaysBefore))
		row("ID", sub.ID)
		if sub.Notes != "" {
			row("Notes", truncStr(strings.ReplaceAll(sub.Notes, "\n", " "), components.CardInnerWidth(cw)-14))
		}
		d.WriteString(dimStyle.Render("[a] add  [e] edit  [d] delete  [f] filter  [S] sort  [D] direction"))
		b.WriteString(components.ContentCard(sub.Name, d.String(), cw))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
