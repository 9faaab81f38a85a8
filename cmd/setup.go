package cmd

import (
	"fmt"

	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/tui"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	vals := tui.SetupValuesFrom(a.Config, a.Scheduler.Settings().Frequency)
	if err := tui.NewSetupForm(vals).Run(); err != nil {
		return err
	}
	if err := vals.Apply(a); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if a.Config.HasChannel(config.ChannelEmail) && a.Config.Email.SMTPHost == "" {
		fmt.Println("  Email reminders need [email] smtp_host, from and to in the config file.")
	}
	fmt.Println("  Run `subtrack setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
