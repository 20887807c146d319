package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/steveyegge/workitems/internal/types"
)

// WarnError writes a warning message to stderr and returns.
// Use this for optional operations that enhance functionality but aren't required.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// errorCode classifies err for machine-readable output.
func errorCode(err error) string {
	switch {
	case errors.Is(err, types.ErrValidation):
		return "validation"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	case errors.Is(err, types.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, types.ErrPersistence):
		return "persistence"
	}
	return ""
}

// reportError prints err as "Error: ..." or, with --json, as a JSON object.
func reportError(w io.Writer, err error) {
	if !jsonOutput {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	errObj := map[string]string{"error": err.Error()}
	if code := errorCode(err); code != "" {
		errObj["code"] = code
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(errObj) // Best effort: the exit status still reports failure
}
