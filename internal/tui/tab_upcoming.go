package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderUpcomingTab(cw int) string {
	t := theme.Active
	cur := a.svc.Store.Preferences().Currency

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render("  ")

	title := fmt.Sprintf("Renewing in the next %d days", a.lookahead())
	if len(a.upcoming) == 0 {
		return components.ContentCard(title, dimStyle.Render("Nothing scheduled."), cw)
	}

	inner := components.CardInnerWidth(cw)
	nameW := max(inner-12-14-12-10-8, 12)

	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-*s", nameW, "Name")))
	b.WriteString(space + headStyle.Render(fmt.Sprintf("%-12s", "Renews")))
	b.WriteString(space + headStyle.Render(fmt.Sprintf("%14s", "Cost")))
	b.WriteString(space + headStyle.Render("Due"))
	b.WriteString("\n")

	var total float64
	reminders := 0
	for _, u := range a.upcoming {
		s := u.Subscription
		total += s.Cost
		b.WriteString(valueStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(s.Name, nameW))))
		b.WriteString(space + valueStyle.Render(fmt.Sprintf("%-12s", s.RenewalDate.String())))
		b.WriteString(space + valueStyle.Render(fmt.Sprintf("%14s", cli.FormatMoney(s.Cost, s.Currency))))
		b.WriteString(space + dueBadge(u.DaysUntil, u.NeedsReminder))
		if u.NeedsReminder {
			reminders++
			b.WriteString(space + components.Badge("●", t.Orange))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d charge(s) totalling %s · %d inside their reminder window",
		len(a.upcoming), cli.FormatMoney(total, cur), reminders)))
	return components.ContentCard(title, b.String(), cw)
}
