package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/subtrack/internal/reminder"

	"github.com/spf13/cobra"
)

var flagRemindDryRun bool

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send due renewal reminders once",
	Long: "Scan subscriptions and send a reminder for every renewal inside its lead time.\n" +
		"Each renewal date is reminded once, however often this runs. Suitable for cron.",
	Args: cobra.NoArgs,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().BoolVar(&flagRemindDryRun, "dry-run", false, "List reminders that are due without sending")
	rootCmd.AddCommand(remindCmd)
}

func runRemind(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	if flagRemindDryRun {
		due := reminder.Due(a.Store.List(), a.Clock.Now())
		if len(due) == 0 {
			fmt.Println("  No reminders due.")
			return nil
		}
		for _, r := range due {
			state := "pending"
			if sent, err := a.Engine.Sent(context.Background(), r); err != nil {
				state = "unknown"
			} else if sent {
				state = "sent"
			}
			fmt.Printf("  %-10s %-8s %s\n", r.Kind, state, r.Title)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res := a.CheckReminders(ctx)
	for _, r := range res.Fired {
		info("  Sent: %s\n", r.Title)
	}
	info("  %d sent, %d already sent for this renewal, %d failed (retried next run)\n",
		len(res.Fired), res.Duplicates, res.Failed)
	if res.LedgerErrors > 0 {
		return fmt.Errorf("%d reminder(s) skipped: ledger unavailable", res.LedgerErrors)
	}
	return nil
}
