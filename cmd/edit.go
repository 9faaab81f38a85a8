package cmd

import (
	"errors"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/tracker"
	"github.com/theirongolddev/subtrack/internal/tui"

	"github.com/spf13/cobra"
)

var (
	editFlags           subFlags
	flagEditInteractive bool
)

var editCmd = &cobra.Command{
	Use:   "edit <id|name>",
	Short: "Change fields of a subscription",
	Long: "Change only the fields given as flags, or edit every field in a form with -i.\n" +
		"The subscription is matched by id, id prefix or exact name.",
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editFlags.register(editCmd.Flags())
	editCmd.Flags().BoolVarP(&flagEditInteractive, "interactive", "i", false, "Edit in a form")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	sub, err := a.Store.Find(args[0])
	if err != nil {
		return err
	}

	var p tracker.Patch
	if flagEditInteractive {
		vals := tui.ValuesFrom(sub)
		if err := tui.NewSubscriptionForm("Edit "+sub.Name, vals).Run(); err != nil {
			return err
		}
		if p, err = vals.Patch(); err != nil {
			return err
		}
	} else {
		d, err := editFlags.draft()
		if err != nil {
			return err
		}
		fs := cmd.Flags()
		if fs.Changed("name") {
			p.Name = &d.Name
		}
		if fs.Changed("provider") {
			p.Provider = &d.Provider
		}
		if fs.Changed("cost") {
			p.Cost = &d.Cost
		}
		if fs.Changed("currency") {
			p.Currency = &d.Currency
		}
		if fs.Changed("cycle") {
			p.BillingCycle = &d.BillingCycle
		}
		if fs.Changed("renews") {
			p.RenewalDate = &d.RenewalDate
		}
		if fs.Changed("category") {
			p.Category = &d.Category
		}
		if fs.Changed("status") {
			p.Status = &d.Status
		}
		if fs.Changed("remind") {
			p.ReminderDaysBefore = &d.ReminderDaysBefore
		}
		if fs.Changed("notes") {
			p.Notes = &d.Notes
		}
	}
	if p.Empty() {
		return errors.New("nothing to change; pass field flags or -i")
	}

	updated, err := a.Store.Update(sub.ID, p)
	if err != nil {
		return err
	}
	info("  Updated %s (%s)\n", updated.Name, cli.ShortID(updated.ID))
	return nil
}
