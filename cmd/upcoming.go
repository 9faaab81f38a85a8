package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/reminder"

	"github.com/spf13/cobra"
)

var (
	flagUpcomingDays   int
	flagUpcomingOutput string
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Renewals in the next N days",
	Args:  cobra.NoArgs,
	RunE:  runUpcoming,
}

func init() {
	upcomingCmd.Flags().IntVarP(&flagUpcomingDays, "days", "n", 0, "Look-ahead window in days (default from config)")
	upcomingCmd.Flags().StringVarP(&flagUpcomingOutput, "output", "o", cli.OutputTable, "Output format: "+strings.Join(cli.OutputFormats, ", "))
	rootCmd.AddCommand(upcomingCmd)
}

func runUpcoming(_ *cobra.Command, _ []string) error {
	format, err := cli.ParseOutput(flagUpcomingOutput)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	days := flagUpcomingDays
	if days <= 0 {
		days = a.Config.Reminders.LookaheadDays
	}

	ups := reminder.ListUpcoming(a.Store.List(), a.Clock.Now(), days)
	if len(ups) == 0 {
		if format == cli.OutputTable {
			fmt.Printf("\n  Nothing renews in the next %d days.\n", days)
		}
		return nil
	}

	if format == cli.OutputTable {
		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("RENEWING  Next %dd", days)))
		fmt.Println()
		rows := make([][]string, 0, len(ups))
		for _, u := range ups {
			s := u.Subscription
			remind := ""
			if u.NeedsReminder {
				remind = "●"
			}
			rows = append(rows, []string{
				s.Name,
				s.RenewalDate.String(),
				cli.RenderDays(u.DaysUntil, s.ReminderDaysBefore),
				cli.FormatMoney(s.Cost, s.Currency),
				remind,
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers:  []string{"Name", "Renews", "Due", "Cost", "Remind"},
			Rows:     rows,
			LeftCols: 3,
		}))
		return nil
	}

	rows := make([][]string, 0, len(ups))
	for _, u := range ups {
		s := u.Subscription
		rows = append(rows, []string{
			cli.ShortID(s.ID),
			s.Name,
			s.RenewalDate.String(),
			strconv.Itoa(u.DaysUntil),
			cli.FormatMoney(s.Cost, s.Currency),
			strconv.FormatBool(u.NeedsReminder),
		})
	}
	return cli.WriteTable(os.Stdout, format, []string{"ID", "Name", "Renews", "Days", "Cost", "Remind"}, rows, nil)
}
