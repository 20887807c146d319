package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls pager behavior
type PagerOptions struct {
	// NoPager disables pager for this command (--no-pager flag)
	NoPager bool
}

// shouldUsePager determines if output should be piped to a pager.
// Returns false if:
// - NoPager option is set
// - WI_NO_PAGER environment variable is set
// - out is not the process stdout, or stdout is not a TTY
func shouldUsePager(out io.Writer, opts PagerOptions) bool {
	if opts.NoPager {
		return false
	}

	if os.Getenv("WI_NO_PAGER") != "" {
		return false
	}

	if f, ok := out.(*os.File); !ok || f != os.Stdout {
		return false
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}

// getPagerCommand returns the pager command to use.
// Checks WI_PAGER, then PAGER, defaults to "less".
func getPagerCommand() string {
	if pager := os.Getenv("WI_PAGER"); pager != "" {
		return pager
	}
	if pager := os.Getenv("PAGER"); pager != "" {
		return pager
	}
	return "less"
}

// getTerminalHeight returns the height of the terminal in lines.
// Returns 0 if unable to determine (not a TTY).
func getTerminalHeight() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}

	_, height, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return height
}

// contentHeight counts the number of lines in the content.
func contentHeight(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// ToPager writes content to out, through a pager when out is an interactive
// stdout and the content does not fit on one screen.
func ToPager(out io.Writer, content string, opts PagerOptions) error {
	if !shouldUsePager(out, opts) {
		_, err := fmt.Fprint(out, content)
		return err
	}

	termHeight := getTerminalHeight()
	if termHeight > 0 && contentHeight(content) <= termHeight-1 {
		_, err := fmt.Fprint(out, content)
		return err
	}

	// Parse pager command (may include arguments like "less -R")
	parts := strings.Fields(getPagerCommand())
	if len(parts) == 0 {
		_, err := fmt.Fprint(out, content)
		return err
	}

	cmd := exec.Command(parts[0], parts[1:]...) // #nosec G204 - pager command is user-configurable
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	// -R: Allow ANSI color codes
	// -F: Quit if content fits on one screen
	// -X: Don't clear screen on exit
	if os.Getenv("LESS") == "" {
		cmd.Env = append(os.Environ(), "LESS=-RFX")
	} else {
		cmd.Env = os.Environ()
	}

	return cmd.Run()
}
