package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/workitems/internal/debug"
	"github.com/steveyegge/workitems/internal/lifecycle"
	"github.com/steveyegge/workitems/internal/notify"
	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/types"
)

// CreateInput describes a new work item. Kind defaults to task and Status
// to the kind's initial status.
type CreateInput struct {
	ProjectID string
	Title     string
	Content   string
	Kind      types.Kind
	Status    types.Status
	Meta      types.Metadata
	Bug       *types.BugDetails
}

// Create adds a new item and returns a copy of it.
func (s *Store) Create(ctx context.Context, in CreateInput) (*types.WorkItem, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.create(ctx, in, notify.OpCreate)
}

func (s *Store) create(ctx context.Context, in CreateInput, op notify.Op) (*types.WorkItem, error) {
	kind := in.Kind
	if kind == "" {
		kind = types.KindTask
	}
	item, err := s.build(in, kind)
	if err != nil {
		return nil, s.failed(ctx, op, kind, "", in.ProjectID, err)
	}
	if err := s.adapter.SaveItem(ctx, item.ProjectID, item.Clone()); err != nil {
		debug.Logf("create %s: %v\n", item.ID, err)
		return nil, s.failed(ctx, op, kind, item.ID, item.ProjectID, persistErr("save", item.ID, err))
	}
	s.commitPut(item)

	verb := "created"
	if op == notify.OpDuplicate {
		verb = "duplicated"
	}
	s.succeeded(ctx, op, item, fmt.Sprintf("%s %q %s", item.Label(), item.Title, verb))
	return item.Clone(), nil
}

func (s *Store) build(in CreateInput, kind types.Kind) (*types.WorkItem, error) {
	if strings.TrimSpace(in.ProjectID) == "" {
		return nil, fmt.Errorf("%w: project_id is required", types.ErrValidation)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid kind: %q", types.ErrValidation, kind)
	}
	status := in.Status
	if status == "" {
		status = kind.DefaultStatus()
	}
	if !kind.Allows(status) {
		return nil, fmt.Errorf("%w: status %q is not valid for kind %s", types.ErrValidation, status, kind)
	}
	if kind != types.KindBug && in.Bug != nil {
		return nil, fmt.Errorf("%w: bug details on non-bug kind %s", types.ErrValidation, kind)
	}

	now := s.now()
	item := (&types.WorkItem{
		ProjectID: in.ProjectID,
		Title:     in.Title,
		Content:   in.Content,
		Kind:      kind,
		Meta:      in.Meta,
		Bug:       in.Bug,
	}).Clone()
	item.ID = s.newID()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Meta.Tags = types.NormalizeTags(item.Meta.Tags)
	if item.IsBug() {
		if item.Bug == nil {
			item.Bug = &types.BugDetails{}
		}
		if item.Bug.DateReported.IsZero() {
			item.Bug.DateReported = now
		}
		item.Bug.DateResolved = nil
	}
	s.defaults.Apply(item)

	if _, err := s.machine.Transition(item, "", status, now); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Update merges patch into the item with id and returns a copy of the result.
// Status changes of bugs go through the lifecycle machine.
func (s *Store) Update(ctx context.Context, id string, patch types.Patch) (*types.WorkItem, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.update(ctx, id, patch, notify.OpUpdate)
}

func (s *Store) update(ctx context.Context, id string, patch types.Patch, op notify.Op) (*types.WorkItem, error) {
	s.mu.RLock()
	cur, _ := s.lookup(id)
	if cur != nil {
		cur = cur.Clone()
	}
	s.mu.RUnlock()
	if cur == nil {
		return nil, s.failed(ctx, op, "", id, "", fmt.Errorf("%w: work item %s", types.ErrNotFound, id))
	}

	next, change, err := s.merge(cur, patch)
	if err != nil {
		return nil, s.failed(ctx, op, cur.Kind, id, cur.ProjectID, err)
	}
	if err := s.adapter.SaveItem(ctx, next.ProjectID, next.Clone()); err != nil {
		debug.Logf("update %s: %v\n", id, err)
		return nil, s.failed(ctx, op, cur.Kind, id, cur.ProjectID, persistErr("save", id, err))
	}
	s.commitPut(next)

	verb := "updated"
	if change != lifecycle.ChangeNone && change != lifecycle.ChangeMoved {
		verb = string(change)
	}
	s.succeeded(ctx, op, next, fmt.Sprintf("%s %q %s", next.Label(), next.Title, verb))
	return next.Clone(), nil
}

// merge applies patch to a copy of cur; cur is not modified.
func (s *Store) merge(cur *types.WorkItem, patch types.Patch) (*types.WorkItem, lifecycle.Change, error) {
	next := cur.Clone()
	now := s.now()
	kindChanged := patch.Apply(next)

	target := next.Status
	if patch.Status != nil {
		target = *patch.Status
	} else if kindChanged && !next.Kind.Allows(target) {
		target = next.Kind.DefaultStatus()
	}
	if kindChanged {
		if next.IsBug() && next.Bug.DateReported.IsZero() {
			next.Bug.DateReported = now
		}
		s.defaults.Apply(next)
	}

	// Only a bug-to-bug move is a lifecycle transition; crossing the kind
	// boundary starts the new vocabulary from scratch.
	var from types.Status
	if cur.IsBug() && next.IsBug() {
		from = cur.Status
	}
	change, err := s.machine.Transition(next, from, target, now)
	if err != nil {
		return nil, lifecycle.ChangeNone, err
	}

	next.ID = cur.ID
	next.ProjectID = cur.ProjectID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = now
	if next.UpdatedAt.Before(cur.UpdatedAt) {
		next.UpdatedAt = cur.UpdatedAt
	}
	if err := next.Validate(); err != nil {
		return nil, lifecycle.ChangeNone, err
	}
	return next, change, nil
}

// Resolve moves a bug to resolved, recording resolver when non-empty.
// Other kinds move to done.
func (s *Store) Resolve(ctx context.Context, id, resolver string) (*types.WorkItem, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, s.failed(ctx, notify.OpUpdate, "", id, "", err)
	}
	if !item.IsBug() {
		return s.Update(ctx, id, types.StatusPatch(types.StatusDone))
	}
	patch := types.StatusPatch(types.StatusResolved)
	if resolver != "" {
		patch.Bug = &types.BugPatch{ResolvedBy: &resolver}
	}
	return s.Update(ctx, id, patch)
}

// Reopen moves an item back to its kind's initial status.
func (s *Store) Reopen(ctx context.Context, id string) (*types.WorkItem, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, s.failed(ctx, notify.OpUpdate, "", id, "", err)
	}
	return s.Update(ctx, id, types.StatusPatch(item.Kind.DefaultStatus()))
}

// Delete removes the item with id and drops it from the session selection.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.delete(ctx, id, notify.OpDelete)
}

func (s *Store) delete(ctx context.Context, id string, op notify.Op) error {
	s.mu.RLock()
	cur, _ := s.lookup(id)
	var rest []*types.WorkItem
	if cur != nil {
		cur = cur.Clone()
		for _, item := range s.projects[cur.ProjectID] {
			if item.ID != id {
				rest = append(rest, item.Clone())
			}
		}
	}
	s.mu.RUnlock()
	if cur == nil {
		return s.failed(ctx, op, "", id, "", fmt.Errorf("%w: work item %s", types.ErrNotFound, id))
	}

	var err error
	if d, ok := s.adapter.(storage.ItemDeleter); ok {
		err = d.DeleteItem(ctx, cur.ProjectID, id)
	} else {
		if rest == nil {
			rest = []*types.WorkItem{}
		}
		err = s.adapter.SaveItems(ctx, cur.ProjectID, rest)
	}
	if err != nil {
		debug.Logf("delete %s: %v\n", id, err)
		return s.failed(ctx, op, cur.Kind, id, cur.ProjectID, persistErr("delete", id, err))
	}
	s.commitRemove(id)
	s.session.Deselect(id)
	s.succeeded(ctx, op, cur, fmt.Sprintf("%s %q deleted", cur.Label(), cur.Title))
	return nil
}

// Duplicate creates a copy of the item with id. The copy gets a fresh id,
// a " (Copy)" title suffix, its kind's initial status, and no recorded
// actual time or resolution.
func (s *Store) Duplicate(ctx context.Context, id string) (*types.WorkItem, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	src, err := s.Get(id)
	if err != nil {
		return nil, s.failed(ctx, notify.OpDuplicate, "", id, "", err)
	}
	in := CreateInput{
		ProjectID: src.ProjectID,
		Title:     src.Title + " (Copy)",
		Content:   src.Content,
		Kind:      src.Kind,
		Meta:      src.Meta,
		Bug:       src.Bug,
	}
	in.Meta.ActualTime = nil
	if in.Bug != nil {
		in.Bug.ResolvedBy = ""
		in.Bug.DateResolved = nil
		in.Bug.DateReported = s.now()
		in.Bug.FixCommit = ""
	}
	return s.create(ctx, in, notify.OpDuplicate)
}

// BulkFailure records one id a bulk operation could not apply.
type BulkFailure struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

// Error implements error.
func (f BulkFailure) Error() string {
	return f.ID + ": " + f.Err.Error()
}

// Unwrap returns the underlying error.
func (f BulkFailure) Unwrap() error { return f.Err }

// BulkResult lists the outcome of a bulk operation per id. Updated holds
// the resulting items of a bulk update, Deleted the ids a bulk delete removed.
type BulkResult struct {
	Updated []*types.WorkItem `json:"updated,omitempty"`
	Deleted []string          `json:"deleted,omitempty"`
	Failed  []BulkFailure     `json:"failed,omitempty"`
}

// Err joins the failures, or returns nil when every id succeeded.
func (r BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// BulkUpdate applies patch to each id in order. Earlier successes are kept
// when a later id fails.
func (s *Store) BulkUpdate(ctx context.Context, ids []string, patch types.Patch) BulkResult {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	var res BulkResult
	for _, id := range ids {
		item, err := s.update(ctx, id, patch, notify.OpBulkUpdate)
		if err != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Err: err})
			continue
		}
		res.Updated = append(res.Updated, item)
	}
	return res
}

// BulkDelete deletes each id in order. Earlier successes are kept when a
// later id fails.
func (s *Store) BulkDelete(ctx context.Context, ids []string) BulkResult {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	var res BulkResult
	for _, id := range ids {
		if err := s.delete(ctx, id, notify.OpBulkDelete); err != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	return res
}
