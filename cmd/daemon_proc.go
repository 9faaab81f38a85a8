package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonRuntimeState is written next to the pid file while a daemon runs.
type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
}

// daemonProcess locates a daemon through its pid file.
type daemonProcess struct {
	pidPath string
}

func (p daemonProcess) statePath() string {
	return strings.TrimSuffix(p.pidPath, filepath.Ext(p.pidPath)) + ".state.json"
}

// running returns the recorded pid and whether that process is alive.
// A missing pid file is pid 0 with no error.
func (p daemonProcess) running() (int, bool, error) {
	data, err := os.ReadFile(p.pidPath) //nolint:gosec // pid path is configured by the local user
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("pid file %s is corrupt", p.pidPath)
	}
	return pid, signalAlive(pid), nil
}

// claim records st as the running daemon. It fails while another daemon is
// alive and clears files left behind by one that died.
func (p daemonProcess) claim(st daemonRuntimeState) error {
	if err := p.ensureFree(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.pidPath), 0o750); err != nil {
		return fmt.Errorf("creating pid directory: %w", err)
	}
	if err := os.WriteFile(p.pidPath, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
}

func (p daemonProcess) ensureFree() error {
	pid, alive, err := p.running()
	switch {
	case err != nil:
		return err
	case alive:
		return fmt.Errorf("daemon already running (pid %d)", pid)
	case pid != 0:
		p.release()
	}
	return nil
}

func (p daemonProcess) release() {
	_ = os.Remove(p.pidPath)
	_ = os.Remove(p.statePath())
}

func (p daemonProcess) state() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(p.statePath()) //nolint:gosec // state path derives from the pid path
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// stop sends SIGTERM and waits up to timeout for the process to exit.
func (p daemonProcess) stop(timeout time.Duration) (int, error) {
	pid, alive, err := p.running()
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		return 0, errors.New("daemon is not running")
	}
	if !alive {
		p.release()
		return pid, fmt.Errorf("daemon (pid %d) had already exited; removed its pid file", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("finding daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("signalling daemon: %w", err)
	}

	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(timeout)
	for {
		select {
		case <-deadline:
			return pid, fmt.Errorf("daemon (pid %d) did not exit within %s", pid, timeout)
		case <-tick.C:
			if !signalAlive(pid) {
				p.release()
				return pid, nil
			}
		}
	}
}

// spawnDetached re-executes the current binary with args, sending its
// output to logPath, and returns the child pid.
func spawnDetached(args []string, logPath string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolving executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return 0, fmt.Errorf("creating log directory: %w", err)
	}
	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // log path is configured by the local user
	if err != nil {
		return 0, fmt.Errorf("opening daemon log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // re-executes this binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return 0, fmt.Errorf("starting daemon: %w", err)
	}
	return child.Process.Pid, nil
}

// childArgs turns the parent's arguments into the detached child's.
func childArgs(args []string) []string {
	out := slices.DeleteFunc(slices.Clone(args), func(a string) bool {
		return a == "--detach" || strings.HasPrefix(a, "--detach=")
	})
	return append(out, "--child")
}

func signalAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
