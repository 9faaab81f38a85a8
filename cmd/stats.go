package cmd

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"summary"},
	Short:   "Spending totals and counts",
	Args:    cobra.NoArgs,
	RunE:    runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	subs := a.Store.List()
	if len(subs) == 0 {
		fmt.Println("\n  No subscriptions tracked yet.")
		fmt.Println(cli.RenderNote("Add one with `subtrack add`, or open the dashboard with `subtrack tui`."))
		return nil
	}

	today := a.Store.Today()
	cur := a.Store.Preferences().Currency
	sum := tracker.Summarize(subs, today)

	next := "none"
	if sum.NextRenewal != nil {
		next = fmt.Sprintf("%s, %s (%s)", sum.NextRenewal.Name, sum.NextRenewal.RenewalDate,
			cli.FormatDays(sum.NextRenewal.DaysUntilRenewal(today)))
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SUBSCRIPTIONS  " + today.String()))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Tracked", cli.FormatNumber(int64(sum.Total))},
			{"Active", cli.FormatNumber(int64(sum.Active))},
			{"Paused", cli.FormatNumber(int64(sum.Paused))},
			{"Cancelled", cli.FormatNumber(int64(sum.Cancelled))},
			{"Expired", cli.FormatNumber(int64(sum.Expired))},
			{"---"},
			{"Monthly", cli.FormatMoney(sum.MonthlyCost, cur)},
			{"Yearly", cli.FormatMoney(sum.YearlyCost, cur)},
			{"---"},
			{"Due this week", cli.FormatNumber(int64(sum.DueThisWeek))},
			{"Next renewal", next},
		},
	}))

	type catRow struct {
		cat     model.Category
		monthly float64
	}
	var cats []catRow
	maxMonthly := 0.0
	for c, m := range sum.ByCategory {
		if m <= 0 {
			continue
		}
		cats = append(cats, catRow{c, m})
		if m > maxMonthly {
			maxMonthly = m
		}
	}
	if len(cats) > 0 {
		sort.Slice(cats, func(i, j int) bool { return cats[i].monthly > cats[j].monthly })
		fmt.Println(cli.RenderSection("Monthly by category"))
		for _, c := range cats {
			fmt.Println(cli.RenderHorizontalBar(string(c.cat), cli.FormatMoney(c.monthly, cur), c.monthly, maxMonthly, 30))
		}
	}
	fmt.Println()
	return nil
}
