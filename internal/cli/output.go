package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"
)

// Output formats accepted by list-like commands.
const (
	OutputTable    = "table"
	OutputCSV      = "csv"
	OutputMarkdown = "markdown"
	OutputHTML     = "html"
)

// OutputFormats lists every supported output format.
var OutputFormats = []string{OutputTable, OutputCSV, OutputMarkdown, OutputHTML}

// ParseOutput validates an output format name.
func ParseOutput(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", OutputTable:
		return OutputTable, nil
	case "md":
		return OutputMarkdown, nil
	case OutputCSV, OutputMarkdown, OutputHTML:
		return v, nil
	}
	return "", fmt.Errorf("unknown output format %q (want %s)", s, strings.Join(OutputFormats, ", "))
}

// SubscriptionHeaders are the columns of the subscription list.
var SubscriptionHeaders = []string{"ID", "Name", "Category", "Status", "Cost", "Monthly", "Yearly", "Renews", "Due"}

// SubscriptionRows renders subs as plain cells, one row per subscription.
func SubscriptionRows(subs []model.Subscription, today model.Date) [][]string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			ShortID(s.ID),
			s.Name,
			string(s.Category),
			s.DisplayStatus(today),
			FormatMoney(s.Cost, s.Currency) + FormatCycle(s.BillingCycle),
			FormatMoney(s.MonthlyCost(), s.Currency),
			FormatMoney(s.YearlyCost(), s.Currency),
			s.RenewalDate.String(),
			FormatDays(s.DaysUntilRenewal(today)),
		})
	}
	return rows
}

// TotalsRow is the footer for SubscriptionRows, counting active entries only.
func TotalsRow(subs []model.Subscription, today model.Date, currency string) []string {
	return []string{
		"", "Total (active)", "", "", "",
		FormatMoney(tracker.TotalMonthlyCost(subs, today), currency),
		FormatMoney(tracker.TotalYearlyCost(subs, today), currency),
		"", "",
	}
}

// ShortID abbreviates a uuid for display; Find accepts the prefix.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// WriteTable writes headers, rows and an optional footer to w in a
// go-pretty format. OutputTable renders the rounded box style.
func WriteTable(w io.Writer, format string, headers []string, rows [][]string, footer []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(toRow(headers))
	for _, r := range rows {
		t.AppendRow(toRow(r))
	}
	if footer != nil && format != OutputCSV {
		t.AppendFooter(toRow(footer))
	}

	switch format {
	case OutputCSV:
		t.RenderCSV()
	case OutputMarkdown:
		t.RenderMarkdown()
	case OutputHTML:
		t.RenderHTML()
	case OutputTable, "":
		t.SetStyle(table.StyleRounded)
		t.Style().Format.Header = text.FormatDefault
		t.Style().Format.Footer = text.FormatDefault
		var cfgs []table.ColumnConfig
		for i, h := range headers {
			if isNumericHeader(h) {
				cfgs = append(cfgs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
			}
		}
		t.SetColumnConfigs(cfgs)
		t.Render()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func isNumericHeader(h string) bool {
	switch h {
	case "Cost", "Monthly", "Yearly", "Days", "Count":
		return true
	}
	return false
}
