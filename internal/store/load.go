package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/workitems/internal/debug"
	"github.com/steveyegge/workitems/internal/notify"
	"github.com/steveyegge/workitems/internal/types"
)

// Load replaces the slice of projectID with the adapter's copy. Other
// projects are left untouched.
func (s *Store) Load(ctx context.Context, projectID string) error {
	return s.LoadProjects(ctx, projectID)
}

// LoadProjects fetches several projects concurrently and commits them
// together. If any fetch fails or any project is inconsistent, nothing is
// committed.
func (s *Store) LoadProjects(ctx context.Context, projectIDs ...string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, id := range projectIDs {
		if strings.TrimSpace(id) == "" {
			return s.failed(ctx, notify.OpLoad, "", "", "", fmt.Errorf("%w: project_id is required", types.ErrValidation))
		}
	}

	loaded := make([][]*types.WorkItem, len(projectIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range projectIDs {
		g.Go(func() error {
			items, err := s.adapter.LoadItems(gctx, id)
			if err != nil {
				return persistErr("load", id, err)
			}
			loaded[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		debug.Logf("load %v: %v\n", projectIDs, err)
		return s.failed(ctx, notify.OpLoad, "", "", strings.Join(projectIDs, ","), err)
	}

	next, err := s.prepareLoad(projectIDs, loaded)
	if err != nil {
		return s.failed(ctx, notify.OpLoad, "", "", strings.Join(projectIDs, ","), err)
	}

	s.mu.Lock()
	for _, id := range projectIDs {
		for _, item := range s.projects[id] {
			delete(s.owner, item.ID)
		}
	}
	for id, items := range next {
		s.projects[id] = items
		for _, item := range items {
			s.owner[item.ID] = id
		}
	}
	s.mu.Unlock()

	for i, id := range projectIDs {
		s.emit(ctx, notify.Event{
			Severity: notify.SeverityInfo,
			Title:    "Project",
			Message:  fmt.Sprintf("loaded %d work items from %s", len(loaded[i]), id),
			Op:       notify.OpLoad,
			Project:  id,
		})
	}
	return nil
}

// prepareLoad normalizes loaded items, validates each one and checks that
// no id is claimed by two projects. One bad item rejects the whole load.
func (s *Store) prepareLoad(projectIDs []string, loaded [][]*types.WorkItem) (map[string][]*types.WorkItem, error) {
	replacing := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		replacing[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	claimed := make(map[string]string)
	next := make(map[string][]*types.WorkItem, len(projectIDs))
	for i, project := range projectIDs {
		items := make([]*types.WorkItem, 0, len(loaded[i]))
		for _, raw := range loaded[i] {
			if raw == nil {
				continue
			}
			item := raw.Clone()
			if item.ProjectID != "" && item.ProjectID != project {
				debug.Logf("load %s: item %s carries project %q\n", project, item.ID, item.ProjectID)
			}
			item.ProjectID = project
			item.Meta.Tags = types.NormalizeTags(item.Meta.Tags)
			if item.ID == "" {
				return nil, fmt.Errorf("%w: project %s has an item without id", types.ErrValidation, project)
			}
			if err := item.Validate(); err != nil {
				return nil, fmt.Errorf("project %s, work item %s: %w", project, item.ID, err)
			}
			if other, ok := claimed[item.ID]; ok {
				return nil, fmt.Errorf("%w: work item %s appears in %s and %s", types.ErrValidation, item.ID, other, project)
			}
			if other, ok := s.owner[item.ID]; ok && !replacing[other] {
				return nil, fmt.Errorf("%w: work item %s already belongs to project %s", types.ErrValidation, item.ID, other)
			}
			claimed[item.ID] = project
			items = append(items, item)
		}
		next[project] = items
	}
	return next, nil
}
