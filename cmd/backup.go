package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup schedule and snapshots",
	RunE:  runBackupStatus,
}

var backupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backup schedule",
	Args:  cobra.NoArgs,
	RunE:  runBackupStatus,
}

var flagBackupIfDue bool

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Write a backup snapshot now",
	Args:  cobra.NoArgs,
	RunE:  runBackupRun,
}

var backupFrequencyCmd = &cobra.Command{
	Use:       "frequency <weekly|monthly|quarterly|yearly>",
	Short:     "Set how often automatic backups run",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"weekly", "monthly", "quarterly", "yearly"},
	RunE:      runBackupFrequency,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup files, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

func init() {
	backupRunCmd.Flags().BoolVar(&flagBackupIfDue, "if-due", false, "Only write when the schedule says a backup is due")

	backupCmd.AddCommand(backupStatusCmd, backupRunCmd, backupFrequencyCmd, backupListCmd)
	rootCmd.AddCommand(backupCmd)
}

func runBackupStatus(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	st := a.Scheduler.State()
	last := "never"
	if st.Last != nil {
		last = st.Last.Local().Format(time.DateTime)
	}
	next := "now"
	if st.Next != nil {
		next = st.Next.Local().Format(time.DateOnly)
	}
	auto := "on"
	if !a.Config.Backup.Auto {
		auto = "off"
	}

	fmt.Println()
	fmt.Println(cli.RenderKV("State", string(st.State)))
	fmt.Println(cli.RenderKV("Frequency", string(st.Frequency)))
	fmt.Println(cli.RenderKV("Last backup", last))
	fmt.Println(cli.RenderKV("Next backup", next))
	fmt.Println(cli.RenderKV("Automatic", auto))
	fmt.Println(cli.RenderKV("Directory", a.Backups.Dir()))
	fmt.Println()
	return nil
}

func runBackupRun(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var path string
	if flagBackupIfDue {
		path, err = a.Backups.RunIfDue(ctx)
	} else {
		path, err = a.Backups.Run(ctx)
	}
	if err != nil {
		a.Metrics.BackupResult("failed")
		return err
	}
	if path == "" {
		a.Metrics.BackupResult("skipped")
		info("  Backup is up to date.\n")
		return nil
	}
	a.Metrics.BackupResult("written")
	info("  Wrote %s\n", path)
	return nil
}

func runBackupFrequency(_ *cobra.Command, args []string) error {
	f, err := model.ParseBackupFrequency(args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Scheduler.SetFrequency(f); err != nil {
		return err
	}
	info("  Backups now run %s.\n", f)
	return nil
}

func runBackupList(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	files, err := a.Backups.List()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("  No backups in %s\n", a.Backups.Dir())
		return nil
	}
	for _, f := range files {
		fmt.Println("  " + filepath.Base(f))
	}
	return nil
}
