package components

import (
	"strings"

	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	Flash      string
	FlashError bool
	Reminders  string // e.g. "2 reminders sent 14:05"
	Backup     string // e.g. "backup due"
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	flashStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)
	if info.FlashError {
		flashStyle = flashStyle.Foreground(t.Red)
	}

	left := base.Render(" ") + keyStyle.Render("[?]") + base.Render("help  ") +
		keyStyle.Render("[q]") + base.Render("uit")
	if info.Flash != "" {
		left += base.Render("  ") + flashStyle.Render(info.Flash)
	}

	var right []string
	if info.Reminders != "" {
		right = append(right, info.Reminders)
	}
	if info.Backup != "" {
		right = append(right, info.Backup)
	}
	rightStr := base.Render(strings.Join(right, " · ") + " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}
	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
