package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/notify"
	"github.com/steveyegge/workitems/internal/ui"
)

// outputJSON writes data as pretty-printed JSON to the command's stdout.
func outputJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// reportEvents prints the success events the store emitted for this
// command, one line each. Nothing is printed in JSON or quiet mode.
func reportEvents(cmd *cobra.Command, a *App) {
	if jsonOutput || quietFlag {
		return
	}
	printEvents(cmd.OutOrStdout(), a.Events.Events())
	a.Events.Reset()
}

func printEvents(w io.Writer, events []notify.Event) {
	for _, e := range events {
		if e.Severity != notify.SeveritySuccess {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", ui.RenderPass(ui.IconPass), e.Message)
	}
}
