// Package mcp exposes the work item store as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/steveyegge/workitems/internal/query"
	"github.com/steveyegge/workitems/internal/store"
	"github.com/steveyegge/workitems/internal/types"
)

// Config holds server settings.
type Config struct {
	// Project is used when a tool call names no project_id.
	Project string
	Version string
}

type handlers struct {
	st      *store.Store
	project string
	now     func() time.Time
}

// NewServer creates an MCP server backed by st.
func NewServer(st *store.Store, cfg Config) *server.MCPServer {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := server.NewMCPServer("workitems", cfg.Version)
	h := &handlers{st: st, project: cfg.Project, now: time.Now}

	s.AddTool(mcp.NewTool("create_item",
		mcp.WithDescription("Create a task, bug, feature or improvement."),
		mcp.WithString("title", mcp.Description("Title"), mcp.Required()),
		mcp.WithString("project_id", mcp.Description("Project (defaults to the server project)")),
		mcp.WithString("kind", mcp.Description("task|bug|feature|improvement (default task)")),
		mcp.WithString("status", mcp.Description("Initial status (defaults by kind)")),
		mcp.WithString("content", mcp.Description("Markdown body")),
		mcp.WithString("priority", mcp.Description("low|medium|high|urgent")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("assignee", mcp.Description("Assignee")),
		mcp.WithNumber("estimated_time", mcp.Description("Estimate in hours")),
		mcp.WithString("severity", mcp.Description("Bug severity: critical|major|medium|minor|trivial")),
		mcp.WithString("category", mcp.Description("Bug category")),
		mcp.WithString("source", mcp.Description("Bug source")),
		mcp.WithString("environment", mcp.Description("Bug environment")),
		mcp.WithString("reproduction", mcp.Description("Bug reproduction steps")),
		mcp.WithString("reported_by", mcp.Description("Bug reporter")),
	), h.createItem)

	s.AddTool(mcp.NewTool("update_item",
		mcp.WithDescription("Update fields of one or more work items. Only the given fields change."),
		mcp.WithString("id", mcp.Description("Item id, or comma-separated ids for a bulk update"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New body")),
		mcp.WithString("kind", mcp.Description("New kind")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithString("priority", mcp.Description("New priority")),
		mcp.WithString("tags", mcp.Description("Replacement comma-separated tags")),
		mcp.WithString("assignee", mcp.Description("New assignee")),
		mcp.WithNumber("estimated_time", mcp.Description("Estimate in hours")),
		mcp.WithNumber("actual_time", mcp.Description("Actual hours spent")),
		mcp.WithString("severity", mcp.Description("Bug severity")),
		mcp.WithString("category", mcp.Description("Bug category")),
		mcp.WithString("resolved_by", mcp.Description("Resolver, used when status becomes resolved")),
		mcp.WithString("fix_commit", mcp.Description("Fixing commit")),
		mcp.WithString("test_case", mcp.Description("Regression test")),
	), h.updateItem)

	s.AddTool(mcp.NewTool("delete_item",
		mcp.WithDescription("Delete one or more work items."),
		mcp.WithString("id", mcp.Description("Item id, or comma-separated ids"), mcp.Required()),
	), h.deleteItem)

	s.AddTool(mcp.NewTool("duplicate_item",
		mcp.WithDescription("Copy a work item. The copy starts in its initial status without resolution."),
		mcp.WithString("id", mcp.Description("Item id"), mcp.Required()),
	), h.duplicateItem)

	s.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Get a single work item by id."),
		mcp.WithString("id", mcp.Description("Item id"), mcp.Required()),
	), h.getItem)

	s.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List work items with optional filters."),
		mcp.WithString("project_id", mcp.Description("Project (defaults to the server project)")),
		mcp.WithString("status", mcp.Description("Comma-separated statuses")),
		mcp.WithString("kind", mcp.Description("Comma-separated kinds")),
		mcp.WithString("priority", mcp.Description("Comma-separated priorities")),
		mcp.WithString("severity", mcp.Description("Comma-separated severities (bugs only)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags, any match")),
		mcp.WithString("search", mcp.Description("Case-insensitive text search")),
		mcp.WithString("assignee", mcp.Description("Assignee")),
		mcp.WithString("query", mcp.Description("Query expression, e.g. kind=bug AND updated>7d")),
		mcp.WithString("sort", mcp.Description("Sort order, e.g. priority-desc,updated-desc")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of items")),
	), h.listItems)

	s.AddTool(mcp.NewTool("project_stats",
		mcp.WithDescription("Counts by status, kind, priority and bug severity."),
		mcp.WithString("project_id", mcp.Description("Project (defaults to the server project)")),
	), h.projectStats)

	s.AddTool(mcp.NewTool("resolve_item",
		mcp.WithDescription("Resolve a bug, or mark another kind done."),
		mcp.WithString("id", mcp.Description("Item id"), mcp.Required()),
		mcp.WithString("resolved_by", mcp.Description("Resolver (defaults to the configured actor)")),
	), h.resolveItem)

	s.AddTool(mcp.NewTool("reopen_item",
		mcp.WithDescription("Move an item back to its initial status, clearing any resolution."),
		mcp.WithString("id", mcp.Description("Item id"), mcp.Required()),
	), h.reopenItem)

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *handlers) projectArg(request mcp.CallToolRequest) string {
	return mcp.ParseString(request, "project_id", h.project)
}

func (h *handlers) createItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := store.CreateInput{
		ProjectID: h.projectArg(request),
		Title:     mcp.ParseString(request, "title", ""),
		Content:   mcp.ParseString(request, "content", ""),
		Kind:      types.Kind(mcp.ParseString(request, "kind", "")),
		Status:    types.Status(mcp.ParseString(request, "status", "")),
	}
	if strings.TrimSpace(in.Title) == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	if p := mcp.ParseString(request, "priority", ""); p != "" {
		in.Meta.Priority = types.Priority(p)
	}
	in.Meta.Tags = splitList(mcp.ParseString(request, "tags", ""))
	if a := mcp.ParseString(request, "assignee", ""); a != "" {
		in.Meta.Assignee = &a
	}
	args := arguments(request)
	if _, ok := args["estimated_time"]; ok {
		est := mcp.ParseFloat64(request, "estimated_time", 0)
		in.Meta.EstimatedTime = &est
	}
	if in.Kind == types.KindBug {
		in.Bug = &types.BugDetails{
			Severity:     types.Severity(mcp.ParseString(request, "severity", "")),
			Category:     mcp.ParseString(request, "category", ""),
			Source:       mcp.ParseString(request, "source", ""),
			Environment:  mcp.ParseString(request, "environment", ""),
			Reproduction: mcp.ParseString(request, "reproduction", ""),
			ReportedBy:   mcp.ParseString(request, "reported_by", ""),
		}
	}

	item, err := h.st.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

// patchKeys are the update_item arguments forwarded to types.PatchFromMap.
var patchKeys = []string{
	"title", "content", "kind", "status", "priority", "tags", "assignee",
	"estimated_time", "actual_time", "severity", "category", "resolved_by",
	"fix_commit", "test_case",
}

func (h *handlers) updateItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitList(mcp.ParseString(request, "id", ""))
	if len(ids) == 0 {
		return mcp.NewToolResultError("id is required"), nil
	}
	args := arguments(request)
	updates := make(map[string]interface{})
	for _, key := range patchKeys {
		if v, ok := args[key]; ok {
			updates[key] = v
		}
	}
	patch, err := types.PatchFromMap(updates)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if patch.IsEmpty() {
		return mcp.NewToolResultError("no fields to update"), nil
	}

	if len(ids) == 1 {
		item, err := h.st.Update(ctx, ids[0], patch)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(item)
	}
	res := h.st.BulkUpdate(ctx, ids, patch)
	return bulkResult(res)
}

func bulkResult(res store.BulkResult) (*mcp.CallToolResult, error) {
	failed := make(map[string]string, len(res.Failed))
	for _, f := range res.Failed {
		failed[f.ID] = f.Err.Error()
	}
	out := map[string]interface{}{"failed": failed}
	if res.Updated != nil {
		out["updated"] = res.Updated
	}
	if res.Deleted != nil {
		out["deleted"] = res.Deleted
	}
	result, err := jsonResult(out)
	if err == nil && len(res.Failed) > 0 {
		result.IsError = true
	}
	return result, err
}

func (h *handlers) deleteItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitList(mcp.ParseString(request, "id", ""))
	switch len(ids) {
	case 0:
		return mcp.NewToolResultError("id is required"), nil
	case 1:
		if err := h.st.Delete(ctx, ids[0]); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %s", ids[0])), nil
	}
	return bulkResult(h.st.BulkDelete(ctx, ids))
}

func (h *handlers) duplicateItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, err := h.st.Duplicate(ctx, mcp.ParseString(request, "id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

func (h *handlers) getItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, err := h.st.Get(mcp.ParseString(request, "id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

func (h *handlers) listItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := h.filter(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := types.DefaultSortOptions()
	if raw := mcp.ParseString(request, "sort", ""); raw != "" {
		opts = types.ParseSortOrder(raw)
		if len(opts) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sort order %q", raw)), nil
		}
	}
	items := h.st.Query(h.projectArg(request), f, opts)
	return jsonResult(map[string]interface{}{"items": items, "count": len(items)})
}

func (h *handlers) filter(request mcp.CallToolRequest) (types.Filter, error) {
	var f types.Filter
	for _, s := range splitList(mcp.ParseString(request, "status", "")) {
		st := types.Status(s)
		if !st.IsValid() {
			return f, fmt.Errorf("invalid status %q", s)
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, s := range splitList(mcp.ParseString(request, "kind", "")) {
		k := types.Kind(s)
		if !k.IsValid() {
			return f, fmt.Errorf("invalid kind %q", s)
		}
		f.Kinds = append(f.Kinds, k)
	}
	for _, s := range splitList(mcp.ParseString(request, "priority", "")) {
		p := types.Priority(s)
		if !p.IsValid() {
			return f, fmt.Errorf("invalid priority %q", s)
		}
		f.Priorities = append(f.Priorities, p)
	}
	for _, s := range splitList(mcp.ParseString(request, "severity", "")) {
		sev := types.Severity(s)
		if !sev.IsValid() {
			return f, fmt.Errorf("invalid severity %q", s)
		}
		f.Severities = append(f.Severities, sev)
	}
	f.Tags = splitList(mcp.ParseString(request, "tags", ""))
	f.Search = mcp.ParseString(request, "search", "")
	f.Assignee = mcp.ParseString(request, "assignee", "")
	f.Limit = mcp.ParseInt(request, "limit", 0)
	if expr := mcp.ParseString(request, "query", ""); expr != "" {
		pred, err := query.Compile(expr, h.now())
		if err != nil {
			return f, err
		}
		f.Match = pred
	}
	return f, nil
}

func (h *handlers) projectStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.st.Stats(h.projectArg(request)))
}

func (h *handlers) resolveItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, err := h.st.Resolve(ctx, mcp.ParseString(request, "id", ""), mcp.ParseString(request, "resolved_by", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

func (h *handlers) reopenItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, err := h.st.Reopen(ctx, mcp.ParseString(request, "id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}
