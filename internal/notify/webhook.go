package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	webhookQueueSize      = 64
	webhookMaxElapsed     = 30 * time.Second
	defaultWebhookTimeout = 10 * time.Second
)

// WebhookHandler POSTs events as JSON to a URL from a background goroutine,
// so slow endpoints never delay the store. Transient failures (network
// errors, 5xx, 429) are retried with exponential backoff; other 4xx are not.
// When the queue is full new events are dropped and logged.
type WebhookHandler struct {
	url        string
	client     *http.Client
	severities []Severity
	maxElapsed time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan Event
	wg     sync.WaitGroup
}

// WebhookOption configures a WebhookHandler.
type WebhookOption func(*WebhookHandler)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(h *WebhookHandler) { h.client = c }
}

// WithSeverities restricts the events sent.
func WithSeverities(s ...Severity) WebhookOption {
	return func(h *WebhookHandler) { h.severities = s }
}

// WithMaxElapsed bounds the retry window per event.
func WithMaxElapsed(d time.Duration) WebhookOption {
	return func(h *WebhookHandler) { h.maxElapsed = d }
}

// NewWebhookHandler starts the delivery goroutine. Call Close to flush.
func NewWebhookHandler(url string, timeout time.Duration, opts ...WebhookOption) *WebhookHandler {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	h := &WebhookHandler{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		maxElapsed: webhookMaxElapsed,
		queue:      make(chan Event, webhookQueueSize),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *WebhookHandler) ID() string          { return "webhook" }
func (h *WebhookHandler) Handles() []Severity { return h.severities }
func (h *WebhookHandler) Priority() int       { return 100 }

// Handle enqueues e for delivery.
func (h *WebhookHandler) Handle(_ context.Context, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("webhook handler closed")
	}
	select {
	case h.queue <- e:
		return nil
	default:
		return fmt.Errorf("webhook queue full, dropping %s event for %s", e.Op, e.ItemID)
	}
}

// Close stops accepting events and waits for queued deliveries, or for ctx.
func (h *WebhookHandler) Close(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.mu.Unlock()
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WebhookHandler) run() {
	defer h.wg.Done()
	for e := range h.queue {
		if err := h.deliver(context.Background(), e); err != nil {
			log.Printf("notify: webhook delivery failed for %s: %v", e.ItemID, err)
		}
	}
}

func (h *WebhookHandler) deliver(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = h.maxElapsed
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := h.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("webhook returned %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("webhook returned %s", resp.Status))
		}
	}, backoff.WithContext(bo, ctx))
}
