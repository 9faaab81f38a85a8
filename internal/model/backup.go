package model

import (
	"fmt"
	"strings"
	"time"
)

// BackupFrequency controls how often automatic backups run.
type BackupFrequency string

// Backup frequencies.
const (
	BackupWeekly    BackupFrequency = "weekly"
	BackupMonthly   BackupFrequency = "monthly"
	BackupQuarterly BackupFrequency = "quarterly"
	BackupYearly    BackupFrequency = "yearly"
)

// BackupFrequencies lists every frequency in ascending order.
var BackupFrequencies = []BackupFrequency{BackupWeekly, BackupMonthly, BackupQuarterly, BackupYearly}

// Days returns the interval length in days.
func (f BackupFrequency) Days() int {
	switch f {
	case BackupWeekly:
		return 7
	case BackupMonthly:
		return 30
	case BackupQuarterly:
		return 90
	case BackupYearly:
		return 365
	}
	return 0
}

// Interval returns the frequency as a duration.
func (f BackupFrequency) Interval() time.Duration {
	return time.Duration(f.Days()) * 24 * time.Hour
}

// Valid reports whether f is a known frequency.
func (f BackupFrequency) Valid() bool { return f.Days() > 0 }

// ParseBackupFrequency parses a frequency name.
func ParseBackupFrequency(s string) (BackupFrequency, error) {
	f := BackupFrequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown backup frequency %q", s)
	}
	return f, nil
}

// BackupSettings is the persisted backup schedule.
type BackupSettings struct {
	Frequency      BackupFrequency `json:"frequency"`
	LastBackupDate *time.Time      `json:"lastBackupDate"`
}
