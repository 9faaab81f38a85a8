package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	flagListOutput   string
	flagListCategory string
	flagListStatus   string
	flagListSort     string
	flagListDesc     bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List subscriptions",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&flagListOutput, "output", "o", cli.OutputTable, "Output format: "+strings.Join(cli.OutputFormats, ", "))
	listCmd.Flags().StringVarP(&flagListCategory, "category", "c", "", "Only this category")
	listCmd.Flags().StringVarP(&flagListStatus, "status", "s", "", "Only this status (active, paused, cancelled, expired)")
	listCmd.Flags().StringVar(&flagListSort, "sort", "", "Sort by yearlyTotal, renewalDate, name or status (default from prefs)")
	listCmd.Flags().BoolVar(&flagListDesc, "desc", false, "Sort descending")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseOutput(flagListOutput)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	today := a.Store.Today()
	prefs := a.Store.Preferences()

	subs := a.Store.List()
	if flagListCategory != "" {
		c, err := model.ParseCategory(flagListCategory)
		if err != nil {
			return err
		}
		subs = tracker.FilterByCategory(subs, c)
	}
	if flagListStatus != "" {
		subs = tracker.FilterStatus(subs, strings.ToLower(flagListStatus), today)
	}

	field, dir := prefs.SortBy, prefs.SortDirection
	if flagListSort != "" {
		if field, err = model.ParseSortField(flagListSort); err != nil {
			return err
		}
		dir = model.SortAsc
	}
	if cmd.Flags().Changed("desc") {
		dir = model.SortAsc
		if flagListDesc {
			dir = model.SortDesc
		}
	}
	subs = tracker.Sorted(subs, field, dir)

	if len(subs) == 0 {
		if format == cli.OutputTable {
			fmt.Println("\n  No subscriptions found.")
			fmt.Println(cli.RenderNote("Add one with `subtrack add`."))
		}
		return nil
	}

	var footer []string
	if format != cli.OutputCSV {
		footer = cli.TotalsRow(subs, today, prefs.Currency)
	}
	if format == cli.OutputTable {
		fmt.Println()
	}
	return cli.WriteTable(os.Stdout, format, cli.SubscriptionHeaders, cli.SubscriptionRows(subs, today), footer)
}
