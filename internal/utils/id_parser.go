// Package utils provides work item ID resolution.
package utils

import (
	"fmt"
	"strings"

	"github.com/steveyegge/workitems/internal/types"
)

// ResolvePartialID resolves a potentially partial work item ID to a full ID.
// Supports:
// - Full IDs: "3f2a9c1e-..." → itself
// - Prefixes: "3f2a9c1e" → the one item whose ID starts with it
// - Case-insensitive input: "3F2A" matches "3f2a..."
//
// Returns an error wrapping types.ErrNotFound when nothing matches, and
// types.ErrValidation when the prefix matches several items.
func ResolvePartialID(items []*types.WorkItem, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty work item id", types.ErrValidation)
	}
	needle := strings.ToLower(input)

	var matches []string
	for _, item := range items {
		if item.ID == input {
			return item.ID, nil
		}
		if strings.HasPrefix(strings.ToLower(item.ID), needle) {
			matches = append(matches, item.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no work item found matching %q", types.ErrNotFound, input)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%w: ambiguous ID %q matches %d items: %v\nUse more characters to disambiguate",
		types.ErrValidation, input, len(matches), matches)
}

// ResolvePartialIDs resolves multiple potentially partial work item IDs.
func ResolvePartialIDs(items []*types.WorkItem, inputs []string) ([]string, error) {
	resolved := make([]string, 0, len(inputs))
	for _, input := range inputs {
		fullID, err := ResolvePartialID(items, input)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, fullID)
	}
	return resolved, nil
}
