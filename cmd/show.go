package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/subtrack/internal/cli"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show one subscription in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	sub, err := a.Store.Find(args[0])
	if err != nil {
		return err
	}
	today := a.Store.Today()
	days := sub.DaysUntilRenewal(today)

	fmt.Println()
	fmt.Println(cli.RenderTitle(sub.Name))
	fmt.Println()
	fmt.Println(cli.RenderKV("ID", sub.ID))
	if sub.Provider != "" {
		fmt.Println(cli.RenderKV("Provider", sub.Provider))
	}
	fmt.Println(cli.RenderKV("Status", cli.RenderStatus(sub.DisplayStatus(today))))
	fmt.Println(cli.RenderKV("Category", string(sub.Category)))
	fmt.Println(cli.RenderKV("Cost", cli.FormatMoney(sub.Cost, sub.Currency)+" "+string(sub.BillingCycle)))
	fmt.Println(cli.RenderKV("Monthly", cli.FormatMoney(sub.MonthlyCost(), sub.Currency)))
	fmt.Println(cli.RenderKV("Yearly", cli.FormatMoney(sub.YearlyCost(), sub.Currency)))
	fmt.Println(cli.RenderKV("Renews", fmt.Sprintf("%s  %s", sub.RenewalDate, cli.RenderDays(days, sub.ReminderDaysBefore))))
	fmt.Println(cli.RenderKV("Reminder", strconv.Itoa(sub.ReminderDaysBefore)+" days before"))
	fmt.Println(cli.RenderKV("Added", sub.CreatedAt.Local().Format("2006-01-02")))
	if sub.Notes != "" {
		fmt.Println(cli.RenderSection("Notes"))
		fmt.Println("  " + sub.Notes)
	}
	fmt.Println()
	return nil
}
