// Package notify carries human-readable mutation events from the store to
// passive observers such as a CLI status line, a log or a webhook.
package notify

import (
	"context"
	"time"
)

// Severity classifies an event.
type Severity string

// Severity constants
const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Op names the store operation that produced an event.
type Op string

// Op constants
const (
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpDuplicate  Op = "duplicate"
	OpBulkUpdate Op = "bulk-update"
	OpBulkDelete Op = "bulk-delete"
	OpLoad       Op = "load"
)

// Event is one notification. Title carries the kind label ("Task" or "Bug").
type Event struct {
	Severity Severity  `json:"severity"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Op       Op        `json:"op,omitempty"`
	ItemID   string    `json:"item_id,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	Project  string    `json:"project_id,omitempty"`
	At       time.Time `json:"at"`
}

// Sink receives events. Implementations must not block the caller for long
// and must not fail the caller; events are advisory.
type Sink interface {
	Notify(ctx context.Context, e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event)

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})
