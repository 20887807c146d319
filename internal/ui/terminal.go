package ui

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var colorDisabled atomic.Bool

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the NO_COLOR and CLICOLOR conventions:
// NO_COLOR (any value) disables color, CLICOLOR_FORCE enables it even when
// stdout is not a terminal, CLICOLOR=0 disables it. Otherwise color is used
// only on a terminal. SetNoColor(true) overrides everything.
func ShouldUseColor() bool {
	if colorDisabled.Load() {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return IsTerminal()
}

// SetNoColor disables (or re-enables) styled output for this process and
// updates the lipgloss color profile to match.
func SetNoColor(disabled bool) {
	colorDisabled.Store(disabled)
	ApplyColorProfile()
}

// ApplyColorProfile sets the lipgloss profile from ShouldUseColor.
func ApplyColorProfile() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
}

// ShouldUseEmoji reports whether status icons may be printed.
// WI_NO_EMOJI disables them; otherwise they follow the terminal check.
func ShouldUseEmoji() bool {
	if os.Getenv("WI_NO_EMOJI") != "" {
		return false
	}
	return IsTerminal()
}
