// Package storage defines the persistence contract used by the work item
// store.
//
// Concrete adapters live in sub-packages: memory (tests and ephemeral runs),
// jsonl (one file per project) and sqlstore (sqlite or a MySQL-compatible
// server). The store never retries; adapters report failures and the store
// wraps them with types.ErrPersistence.
package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/steveyegge/workitems/internal/types"
)

// Adapter persists the items of one project at a time.
type Adapter interface {
	// LoadItems returns the project's items in stored order. A project with
	// no stored items yields an empty slice and no error.
	LoadItems(ctx context.Context, projectID string) ([]*types.WorkItem, error)
	// SaveItem inserts or replaces one item.
	SaveItem(ctx context.Context, projectID string, item *types.WorkItem) error
	// SaveItems replaces the whole project with items.
	SaveItems(ctx context.Context, projectID string, items []*types.WorkItem) error
}

// ItemDeleter is implemented by adapters that can remove a single item
// without rewriting the project.
type ItemDeleter interface {
	DeleteItem(ctx context.Context, projectID, id string) error
}

// ProjectLister is implemented by adapters that can enumerate stored projects.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]string, error)
}

// Closer is implemented by adapters holding resources.
type Closer interface {
	Close() error
}

var validProjectID = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateProjectID rejects project ids that are unsafe as file or table keys.
func ValidateProjectID(projectID string) error {
	if !validProjectID.MatchString(projectID) || projectID == "." || projectID == ".." {
		return fmt.Errorf("%w: invalid project id %q", types.ErrValidation, projectID)
	}
	return nil
}

// Close closes a if it holds resources.
func Close(a Adapter) error {
	if c, ok := a.(Closer); ok {
		return c.Close()
	}
	return nil
}
