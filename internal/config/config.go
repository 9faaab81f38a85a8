package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all subtrack configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Reminders  RemindersConfig  `toml:"reminders"`
	Ledger     LedgerConfig     `toml:"ledger"`
	Backup     BackupConfig     `toml:"backup"`
	Email      EmailConfig      `toml:"email"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Currency            string `toml:"currency"`
	DefaultReminderDays int    `toml:"default_reminder_days"`
	DataDir             string `toml:"data_dir,omitempty"`
}

// RemindersConfig controls the reminder scan.
type RemindersConfig struct {
	IntervalSec   int      `toml:"interval_sec"`
	Channels      []string `toml:"channels"`
	CheckOnChange bool     `toml:"check_on_change"`
	LookaheadDays int      `toml:"lookahead_days"`
}

// LedgerConfig selects where sent reminders are remembered.
type LedgerConfig struct {
	Backend       string `toml:"backend"` // sqlite or redis
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
}

// BackupConfig holds automatic backup settings.
type BackupConfig struct {
	Frequency string `toml:"frequency"`
	Dir       string `toml:"dir,omitempty"`
	Keep      int    `toml:"keep"`
	Auto      bool   `toml:"auto"`
}

// EmailConfig holds SMTP settings for the email reminder channel.
type EmailConfig struct {
	SMTPHost string   `toml:"smtp_host,omitempty"`
	SMTPPort int      `toml:"smtp_port,omitempty"`
	Username string   `toml:"username,omitempty"`
	Password string   `toml:"password,omitempty"`
	From     string   `toml:"from,omitempty"`
	To       []string `toml:"to,omitempty"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// Reminder channel names.
const (
	ChannelLog   = "log"
	ChannelEmail = "email"
	ChannelRedis = "redis"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency:            "USD",
			DefaultReminderDays: 7,
		},
		Reminders: RemindersConfig{
			IntervalSec:   3600,
			Channels:      []string{ChannelLog},
			CheckOnChange: true,
			LookaheadDays: 30,
		},
		Ledger: LedgerConfig{
			Backend:   "sqlite",
			RedisAddr: "127.0.0.1:6379",
		},
		Backup: BackupConfig{
			Frequency: "monthly",
			Keep:      12,
			Auto:      true,
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			EventsBuffer: 200,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "subtrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "subtrack")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// EnvPath returns the optional dotenv file read before env overrides.
func EnvPath() string {
	return filepath.Join(ConfigDir(), ".env")
}

// DefaultDataDir returns the XDG-compliant data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "subtrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "subtrack")
}

// DataDir resolves the data directory: env, then config, then default.
func (c Config) DataDir() string {
	if d := os.Getenv("SUBTRACK_DATA_DIR"); d != "" {
		return d
	}
	if c.General.DataDir != "" {
		return expandHome(c.General.DataDir)
	}
	return DefaultDataDir()
}

// DBPath is the SQLite database inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir(), "subtrack.db")
}

// BackupDir resolves the backup directory.
func (c Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return expandHome(c.Backup.Dir)
	}
	return filepath.Join(c.DataDir(), "backups")
}

// Load reads the config file, returning defaults if it doesn't exist.
// A .env file next to it is loaded into the environment first, then
// SUBTRACK_* variables override secrets.
func Load() (Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(EnvPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("reading %s: %w", EnvPath(), err)
	}

	data, err := os.ReadFile(ConfigPath())
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SUBTRACK_SMTP_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("SUBTRACK_REDIS_PASSWORD"); v != "" {
		cfg.Ledger.RedisPassword = v
	}
	if v := os.Getenv("SUBTRACK_REDIS_ADDR"); v != "" {
		cfg.Ledger.RedisAddr = v
	}
	if v := os.Getenv("SUBTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SUBTRACK_REMINDER_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Reminders.IntervalSec = n
		}
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// HasChannel reports whether the named reminder channel is enabled.
func (c Config) HasChannel(name string) bool {
	for _, ch := range c.Reminders.Channels {
		if strings.EqualFold(strings.TrimSpace(ch), name) {
			return true
		}
	}
	return false
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
