package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderCategoriesTab(cw int) string {
	t := theme.Active
	cur := a.svc.Store.Preferences().Currency
	sum := a.summary

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render("  ")

	shares := categoryShares(a.subs, a.today, sum.ByCategory, sum.MonthlyCost)
	if len(shares) == 0 {
		return components.ContentCard("Categories", dimStyle.Render("No active subscriptions."), cw)
	}

	var table strings.Builder
	table.WriteString(headStyle.Render(fmt.Sprintf("%-14s", "Category")))
	table.WriteString(space + headStyle.Render(fmt.Sprintf("%5s", "Subs")))
	table.WriteString(space + headStyle.Render(fmt.Sprintf("%14s", "Monthly")))
	table.WriteString(space + headStyle.Render(fmt.Sprintf("%14s", "Yearly")))
	table.WriteString(space + headStyle.Render(fmt.Sprintf("%7s", "Share")))
	table.WriteString("\n")
	for _, cs := range shares {
		color := lipgloss.NewStyle().Foreground(t.CategoryColor(string(cs.Category))).Background(t.Surface)
		table.WriteString(color.Render(fmt.Sprintf("%-14s", cs.Category)))
		table.WriteString(space + valueStyle.Render(fmt.Sprintf("%5d", cs.Count)))
		table.WriteString(space + valueStyle.Render(fmt.Sprintf("%14s", cli.FormatMoney(cs.Monthly, cur))))
		table.WriteString(space + valueStyle.Render(fmt.Sprintf("%14s", cli.FormatMoney(cs.Monthly*12, cur))))
		table.WriteString(space + valueStyle.Render(fmt.Sprintf("%7s", cli.FormatPercent(cs.Share))))
		table.WriteString("\n")
	}
	table.WriteString(headStyle.Render(fmt.Sprintf("%-14s", "Total")))
	table.WriteString(space + valueStyle.Render(fmt.Sprintf("%5d", sum.Active)))
	table.WriteString(space + valueStyle.Render(fmt.Sprintf("%14s", cli.FormatMoney(sum.MonthlyCost, cur))))
	table.WriteString(space + valueStyle.Render(fmt.Sprintf("%14s", cli.FormatMoney(sum.YearlyCost, cur))))

	var bars strings.Builder
	barW := max(components.CardInnerWidth(cw)-13-12-5, 4)
	for i, cs := range shares {
		if i > 0 {
			bars.WriteString("\n")
		}
		bars.WriteString(components.ShareBar(string(cs.Category), cli.FormatMoney(cs.Monthly, cur),
			cs.Share, t.CategoryColor(string(cs.Category)), 13, barW))
	}

	return components.ContentCard("Spend by category", table.String(), cw) + "\n" +
		components.ContentCard("Share of monthly spend", bars.String(), cw)
}
