package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/subtrack/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Currency:          %s\n", cfg.General.Currency)
	fmt.Printf("    Reminder days:     %d\n", cfg.General.DefaultReminderDays)
	fmt.Printf("    Data directory:    %s\n", cfg.DataDir())
	fmt.Println()

	fmt.Println("  [Reminders]")
	fmt.Printf("    Channels:          %s\n", strings.Join(cfg.Reminders.Channels, ", "))
	fmt.Printf("    Interval:          %ds\n", cfg.Reminders.IntervalSec)
	fmt.Printf("    Check on change:   %v\n", cfg.Reminders.CheckOnChange)
	fmt.Printf("    Look-ahead:        %d days\n", cfg.Reminders.LookaheadDays)
	fmt.Println()

	fmt.Println("  [Ledger]")
	fmt.Printf("    Backend:           %s\n", cfg.Ledger.Backend)
	if cfg.Ledger.Backend == "redis" {
		fmt.Printf("    Redis:             %s db %d\n", cfg.Ledger.RedisAddr, cfg.Ledger.RedisDB)
		fmt.Printf("    Redis password:    %s\n", maskSecret(cfg.Ledger.RedisPassword))
	}
	fmt.Println()

	fmt.Println("  [Backup]")
	fmt.Printf("    Frequency:         %s\n", cfg.Backup.Frequency)
	fmt.Printf("    Automatic:         %v\n", cfg.Backup.Auto)
	fmt.Printf("    Keep:              %d\n", cfg.Backup.Keep)
	fmt.Printf("    Directory:         %s\n", cfg.BackupDir())
	fmt.Println()

	if cfg.HasChannel(config.ChannelEmail) {
		fmt.Println("  [Email]")
		fmt.Printf("    SMTP:              %s:%s\n", cfg.Email.SMTPHost, strconv.Itoa(cfg.Email.SMTPPort))
		fmt.Printf("    Username:          %s\n", cfg.Email.Username)
		fmt.Printf("    Password:          %s\n", maskSecret(cfg.Email.Password))
		fmt.Printf("    From:              %s\n", cfg.Email.From)
		fmt.Printf("    To:                %s\n", strings.Join(cfg.Email.To, ", "))
		fmt.Println()
	}

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:           %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer:     %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:             %s\n", cfg.Log.Level)
	fmt.Printf("    Format:            %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:             %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `subtrack setup` to reconfigure.")
	return nil
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "not set"
	case len(s) > 8:
		return s[:2] + "..." + s[len(s)-2:]
	}
	return "****"
}
