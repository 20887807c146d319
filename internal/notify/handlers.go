package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// LogHandler writes one line per event.
type LogHandler struct {
	w          io.Writer
	mu         sync.Mutex
	severities []Severity
}

// NewLogHandler writes events of the given severities (all when empty) to w.
func NewLogHandler(w io.Writer, severities ...Severity) *LogHandler {
	return &LogHandler{w: w, severities: severities}
}

func (h *LogHandler) ID() string          { return "log" }
func (h *LogHandler) Handles() []Severity { return h.severities }
func (h *LogHandler) Priority() int       { return 10 }

// Handle writes "[severity] title: message".
func (h *LogHandler) Handle(_ context.Context, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w, "[%s] %s: %s\n", e.Severity, e.Title, e.Message)
	return err
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) ID() string          { return "recorder" }
func (r *Recorder) Handles() []Severity { return nil }
func (r *Recorder) Priority() int       { return 0 }

// Handle records e.
func (r *Recorder) Handle(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Notify lets a Recorder be used directly as a Sink.
func (r *Recorder) Notify(ctx context.Context, e Event) { _ = r.Handle(ctx, e) }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent event.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
