package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// categoryShare is one category's slice of the monthly total.
type categoryShare struct {
	Category model.Category
	Monthly  float64
	Share    float64
	Count    int
}

// categoryShares returns categories with a non-zero monthly cost, largest
// first.
func categoryShares(subs []model.Subscription, today model.Date, byCat map[model.Category]float64, total float64) []categoryShare {
	counts := make(map[model.Category]int)
	for _, s := range subs {
		if s.Counts(today) {
			counts[s.Category]++
		}
	}
	var out []categoryShare
	for _, c := range model.Categories {
		m := byCat[c]
		if m <= 0 {
			continue
		}
		share := 0.0
		if total > 0 {
			share = m / total
		}
		out = append(out, categoryShare{Category: c, Monthly: m, Share: share, Count: counts[c]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Monthly > out[j].Monthly })
	return out
}

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	sum := a.summary
	cur := a.svc.Store.Preferences().Currency

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	next := "none"
	nextNote := ""
	if sum.NextRenewal != nil {
		next = truncStr(sum.NextRenewal.Name, 18)
		nextNote = cli.FormatDays(sum.NextRenewal.DaysUntilRenewal(a.today))
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Monthly", Value: cli.FormatMoney(sum.MonthlyCost, cur), Note: "active only"},
		{Label: "Yearly", Value: cli.FormatMoney(sum.YearlyCost, cur)},
		{Label: "Active", Value: fmt.Sprintf("%d / %d", sum.Active, sum.Total),
			Note: fmt.Sprintf("%d paused · %d expired", sum.Paused, sum.Expired)},
		{Label: "Next renewal", Value: next, Note: nextNote},
	}, cw))
	b.WriteString("\n")

	if sum.Total == 0 {
		body := labelStyle.Render("No subscriptions yet.") + "\n" +
			dimStyle.Render("Press [a] to add one, or run `subtrack import <file>`.")
		b.WriteString(components.ContentCard("Get started", body, cw))
		return b.String()
	}

	halves := components.LayoutRow(cw, 2)

	// Upcoming renewals (first five)
	var up strings.Builder
	if len(a.upcoming) == 0 {
		up.WriteString(dimStyle.Render(fmt.Sprintf("Nothing renews in the next %d days.", a.lookahead())))
	}
	nameW := max(components.CardInnerWidth(halves[0])-30, 10)
	for i, u := range a.upcoming {
		if i == 5 {
			up.WriteString("\n" + dimStyle.Render(fmt.Sprintf("+%d more on the Upcoming tab", len(a.upcoming)-5)))
			break
		}
		if i > 0 {
			up.WriteString("\n")
		}
		s := u.Subscription
		up.WriteString(valueStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(s.Name, nameW))))
		up.WriteString(space)
		up.WriteString(valueStyle.Render(fmt.Sprintf("%12s", cli.FormatMoney(s.Cost, s.Currency))))
		up.WriteString(space)
		up.WriteString(dueBadge(u.DaysUntil, u.NeedsReminder))
	}

	// Spend by category
	var cats strings.Builder
	shares := categoryShares(a.subs, a.today, sum.ByCategory, sum.MonthlyCost)
	if len(shares) == 0 {
		cats.WriteString(dimStyle.Render("No active spend."))
	}
	barW := max(components.CardInnerWidth(halves[1])-13-12-5, 4)
	for i, cs := range shares {
		if i > 0 {
			cats.WriteString("\n")
		}
		cats.WriteString(components.ShareBar(string(cs.Category), cli.FormatMoney(cs.Monthly, cur),
			cs.Share, t.CategoryColor(string(cs.Category)), 13, barW))
	}

	b.WriteString(components.CardRow([]string{
		components.ContentCard("Upcoming", up.String(), halves[0]),
		components.ContentCard("Monthly by category", cats.String(), halves[1]),
	}))
	return b.String()
}

// dueBadge colors a renewal offset: red today, orange inside the lead time.
func dueBadge(days int, soon bool) string {
	t := theme.Active
	label := cli.FormatDays(days)
	switch {
	case days == 0:
		return components.Badge(label, t.Red)
	case soon:
		return components.Badge(label, t.Orange)
	}
	return components.Badge(label, t.TextMuted)
}
