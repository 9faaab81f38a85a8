// Package cmd implements the subtrack CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/subtrack/internal/app"
	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/logger"
	"github.com/theirongolddev/subtrack/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagQuiet    bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "subtrack",
	Short:         "Subscription tracker",
	Long:          "Track recurring subscriptions, what they cost, and when they renew.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if flagDataDir != "" {
			return os.Setenv("SUBTRACK_DATA_DIR", flagDataDir)
		}
		return nil
	},
	RunE: runStats,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(describeError(err)))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Data directory (default $XDG_DATA_HOME/subtrack)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// openApp is the shared service wiring used by all commands.
func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	a, err := app.Open(cfg, app.Deps{Logger: log})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// closeApp flushes pending writes. A failed final write is reported.
func closeApp(a *app.App) {
	err := a.Close()
	logger.Sync(a.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError("saving data: "+err.Error()))
	}
}

// info prints to stdout unless --quiet is set.
func info(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Printf(format, args...)
}

// describeError turns store errors into short user-facing text.
func describeError(err error) string {
	switch {
	case errors.Is(err, tracker.ErrParse):
		return "stored data could not be read: " + err.Error()
	case errors.Is(err, tracker.ErrPersistence):
		return "could not save: " + err.Error()
	}
	return err.Error()
}
