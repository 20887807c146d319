package store

import (
	"github.com/steveyegge/workitems/internal/query"
	"github.com/steveyegge/workitems/internal/stats"
	"github.com/steveyegge/workitems/internal/types"
)

// Query filters and sorts the items of projectID. An empty projectID
// searches every loaded project. Nil opts keep stored order.
func (s *Store) Query(projectID string, f types.Filter, opts []types.SortOption) []*types.WorkItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(query.Run(s.snapshot(projectID), projectID, f, opts))
}

// Stats aggregates the items of projectID, or of every loaded project when
// projectID is empty.
func (s *Store) Stats(projectID string) types.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.Aggregate(s.snapshot(projectID))
}
