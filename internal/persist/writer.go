package persist

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

var (
	_ Sink   = (*Writer)(nil)
	_ Reader = (*Writer)(nil)
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriteTimeout bounds every single Storage.Put call.
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *Writer) { w.timeout = d }
}

// WithMeterProvider sets the meter provider used for write counters.
func WithMeterProvider(mp metric.MeterProvider) WriterOption {
	return func(w *Writer) { w.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider used for flush spans.
func WithTracerProvider(tp trace.TracerProvider) WriterOption {
	return func(w *Writer) { w.tracerProvider = tp }
}

// Writer is a Sink that writes snapshots to a Storage in the background.
//
// Snapshots are coalesced per key: only the most recent snapshot of a key is
// written, and at most one write per key is in flight. Write failures are
// logged and counted but never surface to the store that produced the
// snapshot; the in-memory state stays authoritative.
type Writer struct {
	storage Storage
	lg      *zap.Logger
	timeout time.Duration

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	writes         metric.Int64Counter
	failures       metric.Int64Counter

	mu      sync.Mutex
	pending map[string][]byte
	// inflight holds the snapshots of the running flush until their Put
	// returns.
	inflight map[string][]byte
	notify   chan struct{}

	// flushMu serializes flushes so per-key write order is preserved.
	flushMu sync.Mutex
}

// NewWriter creates a Writer over storage. Call Run to start writing.
func NewWriter(storage Storage, lg *zap.Logger, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		storage:        storage,
		lg:             lg,
		timeout:        5 * time.Second,
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
		pending:        make(map[string][]byte),
		inflight:       make(map[string][]byte),
		notify:         make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(w)
	}

	meter := w.meterProvider.Meter("storefront/persist")
	var err error
	if w.writes, err = meter.Int64Counter("storefront.persist.writes",
		metric.WithDescription("Snapshots written to storage"),
	); err != nil {
		return nil, err
	}
	if w.failures, err = meter.Int64Counter("storefront.persist.failures",
		metric.WithDescription("Snapshot writes that failed"),
	); err != nil {
		return nil, err
	}
	w.tracer = w.tracerProvider.Tracer("storefront/persist")

	return w, nil
}

// Persist queues data for key, replacing any snapshot of key not yet written.
func (w *Writer) Persist(key string, data []byte) {
	w.mu.Lock()
	w.pending[key] = data
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Pending reports the number of keys waiting to be written.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Get returns the newest snapshot of key that is queued or being written,
// and reads it from storage otherwise, so readers observe writes that are
// not yet flushed.
func (w *Writer) Get(ctx context.Context, key string) ([]byte, error) {
	w.mu.Lock()
	data, ok := w.pending[key]
	if !ok {
		data, ok = w.inflight[key]
	}
	w.mu.Unlock()
	if ok {
		return data, nil
	}
	return w.storage.Get(ctx, key)
}

// Run writes queued snapshots until ctx is cancelled, then performs a final
// flush bounded by the write timeout.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
			w.Flush(flushCtx)
			cancel()
			return nil
		case <-w.notify:
			w.Flush(ctx)
		}
	}
}

// Flush synchronously writes every queued snapshot.
func (w *Writer) Flush(ctx context.Context) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string][]byte, len(batch))
	maps.Copy(w.inflight, batch)
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	ctx, span := w.tracer.Start(ctx, "persist.Flush",
		trace.WithAttributes(attribute.Int("persist.keys", len(batch))),
	)
	defer span.End()

	for key, data := range batch {
		w.write(ctx, key, data)

		w.mu.Lock()
		delete(w.inflight, key)
		w.mu.Unlock()
	}
}

func (w *Writer) write(ctx context.Context, key string, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.storage.Put(ctx, key, data); err != nil {
		w.failures.Add(ctx, 1)
		w.lg.Warn("Persist snapshot failed",
			zap.String("key", key),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return
	}
	w.writes.Add(ctx, 1)
}
