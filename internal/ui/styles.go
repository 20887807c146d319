// Package ui provides terminal styling for wi CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/workitems/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	BoldStyle   = lipgloss.NewStyle().Bold(true)
)

// CategoryStyle for section headers - bold with accent color
var CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"

	IconOpen       = "○"
	IconInProgress = "◐"
	IconBlocked    = "●"
	IconDone       = "✓"
)

// Separators
const (
	SeparatorLight = "──────────────────────────────────────────"
)

// RenderPass renders text with pass (green) styling
func RenderPass(s string) string {
	return PassStyle.Render(s)
}

// RenderWarn renders text with warning (yellow) styling
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderFail renders text with fail (red) styling
func RenderFail(s string) string {
	return FailStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderBold renders text bold
func RenderBold(s string) string {
	return BoldStyle.Render(s)
}

// RenderCategory renders a category header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// StatusIcon returns the icon for a status.
func StatusIcon(s types.Status) string {
	switch {
	case s.IsTerminal():
		return IconDone
	case s == types.StatusInProgress || s == types.StatusTesting || s == types.StatusReview:
		return IconInProgress
	case s == types.StatusBlocked:
		return IconBlocked
	}
	return IconOpen
}

// RenderStatus renders a status with its icon color.
func RenderStatus(s types.Status) string {
	switch {
	case s.IsTerminal():
		return PassStyle.Render(string(s))
	case s == types.StatusBlocked:
		return FailStyle.Render(string(s))
	case s == types.StatusInProgress || s == types.StatusTesting || s == types.StatusReview:
		return WarnStyle.Render(string(s))
	}
	return string(s)
}

// RenderPriority colors urgent red and high yellow.
func RenderPriority(p types.Priority) string {
	switch p.OrMedium() {
	case types.PriorityUrgent:
		return FailStyle.Render(string(types.PriorityUrgent))
	case types.PriorityHigh:
		return WarnStyle.Render(string(types.PriorityHigh))
	}
	return string(p.OrMedium())
}

// RenderSeverity colors critical and major red.
func RenderSeverity(s types.Severity) string {
	switch s.OrMedium() {
	case types.SeverityCritical, types.SeverityMajor:
		return FailStyle.Render(string(s.OrMedium()))
	}
	return string(s.OrMedium())
}
