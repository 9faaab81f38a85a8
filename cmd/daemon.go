package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/theirongolddev/subtrack/internal/app"
	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/daemon"
	"github.com/theirongolddev/subtrack/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the reminder and backup daemon with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Reminder check interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", "", "PID file path (default <data-dir>/subtrackd.pid)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", "", "Log file path for detached mode (default <data-dir>/subtrackd.log)")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// resolveDaemonFlags fills unset daemon flags from the config.
func resolveDaemonFlags() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if flagDaemonAddr == "" {
		flagDaemonAddr = cfg.Daemon.Addr
	}
	if flagDaemonInterval <= 0 {
		flagDaemonInterval = time.Duration(cfg.Reminders.IntervalSec) * time.Second
	}
	if flagDaemonEventsBuffer <= 0 {
		flagDaemonEventsBuffer = cfg.Daemon.EventsBuffer
	}
	if flagDaemonPIDFile == "" {
		flagDaemonPIDFile = filepath.Join(cfg.DataDir(), "subtrackd.pid")
	}
	if flagDaemonLogFile == "" {
		flagDaemonLogFile = filepath.Join(cfg.DataDir(), "subtrackd.log")
	}
	return cfg, nil
}

func runDaemon(_ *cobra.Command, _ []string) error {
	cfg, err := resolveDaemonFlags()
	if err != nil {
		return err
	}
	proc := daemonProcess{pidPath: flagDaemonPIDFile}
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("--detach and --child are mutually exclusive")
	case flagDaemonDetach:
		return startDaemonDetached(proc)
	}
	return runDaemonForeground(cfg, proc)
}

func startDaemonDetached(proc daemonProcess) error {
	if err := proc.ensureFree(); err != nil {
		return err
	}
	pid, err := spawnDetached(childArgs(os.Args[1:]), flagDaemonLogFile)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(cli.RenderKV("Started", fmt.Sprintf("pid %d", pid)))
	fmt.Println(cli.RenderKV("API", "http://"+flagDaemonAddr+"/v1/status"))
	fmt.Println(cli.RenderKV("PID file", flagDaemonPIDFile))
	fmt.Println(cli.RenderKV("Log", flagDaemonLogFile))
	fmt.Println()
	return nil
}

// daemonLogger picks the daemon's log settings. A detached child logs json
// at info level unless --log-level says otherwise.
func daemonLogger(cfg config.Config) (*zap.SugaredLogger, error) {
	opts := logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if flagDaemonChild {
		opts.Format = "json"
		if flagLogLevel == "" {
			opts.Level = "info"
		}
	}
	return logger.New(opts)
}

func runDaemonForeground(cfg config.Config, proc daemonProcess) error {
	if err := proc.claim(daemonRuntimeState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		DataDir:   cfg.DataDir(),
	}); err != nil {
		return err
	}
	defer proc.release()

	log, err := daemonLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync(log)

	a, err := app.Open(cfg, app.Deps{Logger: log})
	if err != nil {
		return err
	}
	defer closeApp(a)

	svc := daemon.New(daemon.Config{
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		Lookahead:    cfg.Reminders.LookaheadDays,
	}, a)

	info("  subtrack daemon listening on http://%s\n", flagDaemonAddr)
	info("  Checking every %s, data in %s\n", flagDaemonInterval, cfg.DataDir())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// fetchDaemonStatus reads /v1/status from a running daemon.
func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short local request
	if err != nil {
		return st, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response: %w", err)
	}
	return st, nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	if _, err := resolveDaemonFlags(); err != nil {
		return err
	}
	proc := daemonProcess{pidPath: flagDaemonPIDFile}
	pid, alive, err := proc.running()
	switch {
	case err != nil:
		return err
	case pid == 0:
		fmt.Println("  Daemon: not running")
		return nil
	case !alive:
		fmt.Printf("  Daemon: not running (stale pid file for pid %d)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if rt, err := proc.state(); err == nil && rt.Addr != "" {
		addr = rt.Addr
	}

	fmt.Println()
	fmt.Println(cli.RenderKV("Daemon", fmt.Sprintf("pid %d on http://%s", pid, addr)))
	st, err := fetchDaemonStatus(addr)
	if err != nil {
		fmt.Println(cli.RenderKV("API", "unreachable: "+err.Error()))
		fmt.Println()
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	fmt.Println(cli.RenderKV("Last check", fmt.Sprintf("%s (%d checks)", lastPoll, st.PollCount)))
	fmt.Println(cli.RenderKV("Subscriptions", fmt.Sprintf("%d (%d active)", st.Summary.Total, st.Summary.Active)))
	fmt.Println(cli.RenderKV("Monthly", cli.FormatMoney(st.Summary.MonthlyCost, st.Summary.Currency)))
	fmt.Println(cli.RenderKV("Reminders sent", strconv.FormatInt(st.RemindersSent, 10)))
	fmt.Println(cli.RenderKV("Backup", st.BackupState))
	if len(st.Upcoming) > 0 {
		next := st.Upcoming[0]
		fmt.Println(cli.RenderKV("Next renewal", fmt.Sprintf("%s on %s (%s)", next.Name, next.RenewalDate, cli.FormatDays(next.DaysUntil))))
	}
	if st.LastError != "" {
		fmt.Println(cli.RenderKV("Last error", st.LastError))
	}
	fmt.Println()
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	if _, err := resolveDaemonFlags(); err != nil {
		return err
	}
	pid, err := daemonProcess{pidPath: flagDaemonPIDFile}.stop(8 * time.Second)
	if err != nil {
		return err
	}
	info("  Stopped daemon (pid %d)\n", pid)
	return nil
}
