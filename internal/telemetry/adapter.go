package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/types"
)

const storageScopeName = "github.com/steveyegge/workitems/storage"

// InstrumentedAdapter wraps storage.Adapter with OTel tracing and metrics.
// Every method gets a span and is counted in wi.storage.* metrics.
// Use WrapAdapter to create one; it returns the original adapter unchanged
// when telemetry is disabled.
type InstrumentedAdapter struct {
	inner     storage.Adapter
	tracer    trace.Tracer
	ops       metric.Int64Counter
	dur       metric.Float64Histogram
	errs      metric.Int64Counter
	itemGauge metric.Int64Gauge
}

// instrumentedDeleter is returned when the inner adapter can delete single
// items, so callers still see storage.ItemDeleter through the wrapper.
type instrumentedDeleter struct {
	*InstrumentedAdapter
	deleter storage.ItemDeleter
}

// WrapAdapter returns a decorated with OTel instrumentation.
// When telemetry is disabled, a is returned as-is with zero overhead.
func WrapAdapter(a storage.Adapter) storage.Adapter {
	if !Enabled() {
		return a
	}
	return wrap(a)
}

func wrap(a storage.Adapter) storage.Adapter {
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("wi.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("wi.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("wi.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	itemGauge, _ := m.Int64Gauge("wi.item.count",
		metric.WithDescription("Number of items in a project (snapshot from LoadItems)"),
	)
	ia := &InstrumentedAdapter{
		inner:     a,
		tracer:    Tracer(storageScopeName),
		ops:       ops,
		dur:       dur,
		errs:      errs,
		itemGauge: itemGauge,
	}
	if d, ok := a.(storage.ItemDeleter); ok {
		return &instrumentedDeleter{InstrumentedAdapter: ia, deleter: d}
	}
	return ia
}

// Unwrap returns the decorated adapter.
func (s *InstrumentedAdapter) Unwrap() storage.Adapter { return s.inner }

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedAdapter) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedAdapter) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedAdapter) LoadItems(ctx context.Context, projectID string) ([]*types.WorkItem, error) {
	attrs := []attribute.KeyValue{attribute.String("wi.project", projectID)}
	ctx, span, t := s.op(ctx, "LoadItems", attrs...)
	v, err := s.inner.LoadItems(ctx, projectID)
	if err == nil {
		s.itemGauge.Record(ctx, int64(len(v)), metric.WithAttributes(attrs...))
	}
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedAdapter) SaveItem(ctx context.Context, projectID string, item *types.WorkItem) error {
	attrs := []attribute.KeyValue{
		attribute.String("wi.project", projectID),
		attribute.String("wi.item.id", item.ID),
		attribute.String("wi.item.kind", string(item.Kind)),
	}
	ctx, span, t := s.op(ctx, "SaveItem", attrs...)
	err := s.inner.SaveItem(ctx, projectID, item)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedAdapter) SaveItems(ctx context.Context, projectID string, items []*types.WorkItem) error {
	attrs := []attribute.KeyValue{
		attribute.String("wi.project", projectID),
		attribute.Int("wi.item.count", len(items)),
	}
	ctx, span, t := s.op(ctx, "SaveItems", attrs...)
	err := s.inner.SaveItems(ctx, projectID, items)
	s.done(ctx, span, t, err, attrs...)
	return err
}

// ListProjects delegates when the inner adapter can list projects and
// reports none otherwise.
func (s *InstrumentedAdapter) ListProjects(ctx context.Context) ([]string, error) {
	lister, ok := s.inner.(storage.ProjectLister)
	if !ok {
		return nil, nil
	}
	ctx, span, t := s.op(ctx, "ListProjects")
	v, err := lister.ListProjects(ctx)
	s.done(ctx, span, t, err)
	return v, err
}

// Close implements storage.Closer.
func (s *InstrumentedAdapter) Close() error {
	return storage.Close(s.inner)
}

func (s *instrumentedDeleter) DeleteItem(ctx context.Context, projectID, id string) error {
	attrs := []attribute.KeyValue{
		attribute.String("wi.project", projectID),
		attribute.String("wi.item.id", id),
	}
	ctx, span, t := s.op(ctx, "DeleteItem", attrs...)
	err := s.deleter.DeleteItem(ctx, projectID, id)
	s.done(ctx, span, t, err, attrs...)
	return err
}
