package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"
	"github.com/theirongolddev/subtrack/internal/tui"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// subFlags are the per-field flags shared by add and edit.
type subFlags struct {
	name     string
	provider string
	cost     float64
	currency string
	cycle    string
	renews   string
	category string
	status   string
	remind   int
	notes    string
}

func (f *subFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Subscription name")
	fs.StringVar(&f.provider, "provider", "", "Provider or vendor")
	fs.Float64Var(&f.cost, "cost", 0, "Cost per billing cycle")
	fs.StringVar(&f.currency, "currency", "", "ISO 4217 currency code (default from prefs)")
	fs.StringVar(&f.cycle, "cycle", "", "Billing cycle: monthly, quarterly, bi-annual, yearly")
	fs.StringVar(&f.renews, "renews", "", "Next renewal date (YYYY-MM-DD)")
	fs.StringVar(&f.category, "category", "", "Category: streaming, music, productivity, gaming, education, other")
	fs.StringVar(&f.status, "status", "", "Status: active, paused, cancelled")
	fs.IntVar(&f.remind, "remind", 0, "Days before renewal to remind (default from prefs)")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
}

// draft parses the flags into a tracker draft; empty flags stay zero so
// the store applies its defaults.
func (f *subFlags) draft() (tracker.Draft, error) {
	d := tracker.Draft{
		Name:               f.name,
		Provider:           f.provider,
		Cost:               f.cost,
		Currency:           f.currency,
		ReminderDaysBefore: f.remind,
		Notes:              f.notes,
	}
	var err error
	if f.cycle != "" {
		if d.BillingCycle, err = model.ParseBillingCycle(f.cycle); err != nil {
			return d, err
		}
	}
	if f.category != "" {
		if d.Category, err = model.ParseCategory(f.category); err != nil {
			return d, err
		}
	}
	if f.status != "" {
		if d.Status, err = model.ParseStatus(f.status); err != nil {
			return d, err
		}
	}
	if f.renews != "" {
		if d.RenewalDate, err = model.ParseDate(f.renews); err != nil {
			return d, fmt.Errorf("--renews: %w", err)
		}
	}
	return d, nil
}

var (
	addFlags           subFlags
	flagAddInteractive bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a subscription",
	Long: "Add a subscription from flags, or interactively when --name is omitted.\n\n" +
		"  subtrack add --name Netflix --cost 15.49 --renews 2026-04-01 --category streaming",
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addFlags.register(addCmd.Flags())
	addCmd.Flags().BoolVarP(&flagAddInteractive, "interactive", "i", false, "Fill in the subscription with a form")
	rootCmd.AddCommand(addCmd)
}

func runAdd(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	var d tracker.Draft
	if flagAddInteractive || strings.TrimSpace(addFlags.name) == "" {
		vals := tui.NewValues(a.Store.Preferences(), a.Store.Today())
		if err := tui.NewSubscriptionForm("New subscription", vals).Run(); err != nil {
			return err
		}
		if d, err = vals.Draft(); err != nil {
			return err
		}
	} else if d, err = addFlags.draft(); err != nil {
		return err
	}

	sub, err := a.Store.Add(d)
	if err != nil {
		return err
	}

	info("  Added %s (%s) %s%s, renews %s\n",
		sub.Name, cli.ShortID(sub.ID),
		cli.FormatMoney(sub.Cost, sub.Currency), cli.FormatCycle(sub.BillingCycle),
		sub.RenewalDate)
	return nil
}
