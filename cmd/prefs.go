package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagPrefsCurrency string
	flagPrefsRemind   int
	flagPrefsSort     string
	flagPrefsDir      string
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change stored preferences",
	Long: "Without flags, print the stored preferences. With flags, change them.\n\n" +
		"  subtrack prefs --currency EUR --reminder-days 5 --sort yearlyTotal --direction desc",
	Args: cobra.NoArgs,
	RunE: runPrefs,
}

func init() {
	prefsCmd.Flags().StringVar(&flagPrefsCurrency, "currency", "", "Display currency (ISO 4217)")
	prefsCmd.Flags().IntVar(&flagPrefsRemind, "reminder-days", 0, "Default reminder lead time for new subscriptions")
	prefsCmd.Flags().StringVar(&flagPrefsSort, "sort", "", "Default sort: yearlyTotal, renewalDate, name, status")
	prefsCmd.Flags().StringVar(&flagPrefsDir, "direction", "", "Default sort direction: asc or desc")
	rootCmd.AddCommand(prefsCmd)
}

func runPrefs(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	fs := cmd.Flags()
	changed := false
	if fs.Changed("currency") {
		if err := a.Store.SetCurrency(flagPrefsCurrency); err != nil {
			return err
		}
		changed = true
	}
	if fs.Changed("reminder-days") {
		if err := a.Store.SetReminderDaysDefault(flagPrefsRemind); err != nil {
			return err
		}
		changed = true
	}
	if fs.Changed("sort") || fs.Changed("direction") {
		p := a.Store.Preferences()
		field, dir := p.SortBy, p.SortDirection
		if fs.Changed("sort") {
			if field, err = model.ParseSortField(flagPrefsSort); err != nil {
				return err
			}
		}
		if fs.Changed("direction") {
			dir = model.SortDirection(flagPrefsDir)
			if !dir.Valid() {
				return fmt.Errorf("unknown sort direction %q (want asc or desc)", flagPrefsDir)
			}
		}
		if err := a.Store.SetSort(field, dir); err != nil {
			return err
		}
		changed = true
	}

	p := a.Store.Preferences()
	if changed {
		info("  Preferences saved.\n")
	}
	fmt.Println()
	fmt.Println(cli.RenderKV("Currency", p.Currency))
	fmt.Println(cli.RenderKV("Reminder days", strconv.Itoa(p.ReminderDaysDefault)))
	fmt.Println(cli.RenderKV("Sort", fmt.Sprintf("%s %s", p.SortBy, p.SortDirection)))
	fmt.Println()
	return nil
}
