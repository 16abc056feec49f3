/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package shm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	queuepkg "github.com/Workiva/go-datastructures/queue"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	defaultReadRetries    = 10
	defaultReadInterval   = 5 * time.Millisecond
	defaultReleaseWorkers = 4
	defaultPendingHint    = 64

	instrumentationName = "github.com/srediag/shmbridge/pkg/shm"
)

// Manager places payloads into freshly named regions and reads payloads out of
// regions created by the other process. Every region it creates or opens is
// tracked until freed.
//
// Manager is safe for concurrent use.
type Manager struct {
	accessor     Accessor
	log          *zap.Logger
	tracer       trace.Tracer
	bytes        metric.Int64Counter
	regions      cmap.ConcurrentMap[string, *trackedRegion]
	pending      *queuepkg.Queue
	pool         *ants.Pool
	maxSize      int
	readRetries  uint64
	readInterval time.Duration
	workers      int
	closed       atomic.Bool

	meter metric.Meter
}

// trackedRegion is a mapped region and whether this Manager created it.
// Readers hold mu shared while they touch the mapping; unmapping holds it
// exclusively, so a view is never released under a reader.
type trackedRegion struct {
	mu    sync.RWMutex
	view  *Region
	size  uint64
	owned bool
}

func track(region *Region, owned bool) *trackedRegion {
	return &trackedRegion{view: region, size: uint64(region.Len()), owned: owned}
}

// release runs fn on the view once no reader holds it.
func (t *trackedRegion) release(fn func(*Region)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.view)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// WithTracer sets the tracer spans are started on.
func WithTracer(t trace.Tracer) ManagerOption {
	return func(m *Manager) { m.tracer = t }
}

// WithMeter sets the meter the byte counter is registered on.
func WithMeter(mt metric.Meter) ManagerOption {
	return func(m *Manager) { m.meter = mt }
}

// WithMaxSize bounds the payload size accepted by PutBytes and PutString. Zero means unbounded.
func WithMaxSize(n int) ManagerOption {
	return func(m *Manager) { m.maxSize = n }
}

// WithReadRetry sets how often a read waits for a region that is still fresh.
func WithReadRetry(retries uint64, interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.readRetries = retries
		m.readInterval = interval
	}
}

// WithReleaseWorkers sets the number of goroutines ReleasePending deletes regions with.
func WithReleaseWorkers(n int) ManagerOption {
	return func(m *Manager) { m.workers = n }
}

// NewManager returns a Manager allocating regions through accessor.
func NewManager(accessor Accessor, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		accessor:     accessor,
		log:          zap.NewNop(),
		tracer:       tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:        metricnoop.NewMeterProvider().Meter(instrumentationName),
		regions:      cmap.New[*trackedRegion](),
		pending:      queuepkg.New(defaultPendingHint),
		readRetries:  defaultReadRetries,
		readInterval: defaultReadInterval,
		workers:      defaultReleaseWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	var err error
	m.bytes, err = m.meter.Int64Counter("shm.region.bytes",
		metric.WithDescription("Payload bytes moved through shared memory regions."),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("register shm.region.bytes: %w", err)
	}
	if m.workers <= 0 {
		m.workers = 1
	}
	m.pool, err = ants.NewPool(m.workers)
	if err != nil {
		return nil, fmt.Errorf("create release pool: %w", err)
	}
	return m, nil
}

// PutBytes writes b into a new region and returns its name. ok is false when
// the payload could not be placed; the reason is logged.
func (m *Manager) PutBytes(b []byte) (name string, ok bool) {
	name, err := m.PutBytesContext(context.Background(), b)
	if err != nil {
		m.log.Error("put bytes into shared memory failed", zap.Int("size", len(b)), zap.Error(err))
		return "", false
	}
	return name, true
}

// PutString writes the UTF-8 bytes of s into a new region and returns its name.
func (m *Manager) PutString(s string) (name string, ok bool) {
	name, err := m.PutStringContext(context.Background(), s)
	if err != nil {
		m.log.Error("put string into shared memory failed", zap.Int("size", len(s)), zap.Error(err))
		return "", false
	}
	return name, true
}

// PutBytesContext is PutBytes with a context and an explicit error.
func (m *Manager) PutBytesContext(ctx context.Context, b []byte) (string, error) {
	return m.put(ctx, b, "bytes")
}

// PutStringContext is PutString with a context and an explicit error.
func (m *Manager) PutStringContext(ctx context.Context, s string) (string, error) {
	return m.put(ctx, []byte(s), "string")
}

func (m *Manager) put(ctx context.Context, payload []byte, kind string) (name string, err error) {
	if m.closed.Load() {
		return "", ErrManagerClosed
	}
	if m.maxSize > 0 && len(payload) > m.maxSize {
		return "", fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), m.maxSize)
	}
	name = uuid.NewString()
	ctx, span := m.tracer.Start(ctx, "shm.Manager.Put", trace.WithAttributes(
		attribute.String("shm.region", name),
		attribute.String("shm.kind", kind),
		attribute.Int("shm.size", len(payload)),
	))
	defer endSpan(span, &err)

	region, err := m.accessor.Create(name, HeaderSize+len(payload))
	if err != nil {
		return "", err
	}
	if err = populate(region, payload); err != nil {
		m.accessor.Delete(name, region)
		return "", err
	}
	m.regions.Set(name, track(region, true))
	m.bytes.Add(ctx, int64(len(payload)), metric.WithAttributes(
		attribute.String("direction", "put"),
		attribute.String("kind", kind),
	))
	m.log.Debug("populated region", zap.String("region", name), zap.String("kind", kind), zap.Int("size", len(payload)))
	return name, nil
}

// populate writes the content length and payload, then flips the dirty bit.
// The order matters: a consumer may open the region at any point.
func populate(region *Region, payload []byte) error {
	if err := SetContentLength(region, uint64(len(payload))); err != nil {
		return err
	}
	if _, err := region.WriteAt(payload, payloadOffset); err != nil {
		return err
	}
	return SetDirtyBit(region)
}

// GetBytes reads count bytes at offset from the payload of the named region.
// ok is false when the region is missing, never populated or too short.
func (m *Manager) GetBytes(name string, offset, count uint64) (b []byte, ok bool) {
	b, err := m.GetBytesContext(context.Background(), name, offset, count)
	if err != nil {
		m.log.Warn("get bytes from shared memory failed", zap.String("region", name),
			zap.Uint64("offset", offset), zap.Uint64("count", count), zap.Error(err))
		return nil, false
	}
	return b, true
}

// GetString is GetBytes decoded as UTF-8 text.
func (m *Manager) GetString(name string, offset, count uint64) (s string, ok bool) {
	b, err := m.GetBytesContext(context.Background(), name, offset, count)
	if err != nil {
		m.log.Warn("get string from shared memory failed", zap.String("region", name),
			zap.Uint64("offset", offset), zap.Uint64("count", count), zap.Error(err))
		return "", false
	}
	return string(b), true
}

// GetBytesContext is GetBytes with a context and an explicit error. A region
// that is still fresh is polled until it is populated or the retries run out.
func (m *Manager) GetBytesContext(ctx context.Context, name string, offset, count uint64) (b []byte, err error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	ctx, span := m.tracer.Start(ctx, "shm.Manager.Get", trace.WithAttributes(
		attribute.String("shm.region", name),
		attribute.Int64("shm.offset", int64(offset)),
		attribute.Int64("shm.count", int64(count)),
	))
	defer endSpan(span, &err)

	end := offset + count
	if end < offset || end > uint64(maxInt)-HeaderSize {
		return nil, fmt.Errorf("read [%d, %d) of %s: %w", offset, end, name, ErrOutOfRange)
	}
	// A view can be swapped for a larger one or freed between attach and
	// the read lock; attach again when that happens.
	for attempt := 0; attempt < maxAttachAttempts; attempt++ {
		t, err := m.attach(name, HeaderSize+end)
		if err != nil {
			return nil, err
		}
		b, err = m.readTracked(ctx, t, name, offset, count)
		if errors.Is(err, ErrClosed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.bytes.Add(ctx, int64(count), metric.WithAttributes(attribute.String("direction", "get")))
		return b, nil
	}
	return nil, fmt.Errorf("read region %s: %w", name, ErrClosed)
}

const maxAttachAttempts = 3

func (m *Manager) readTracked(ctx context.Context, t *trackedRegion, name string, offset, count uint64) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	region := t.view
	if region.Closed() {
		return nil, ErrClosed
	}
	if err := m.waitPopulated(ctx, region); err != nil {
		return nil, err
	}
	length, err := peekContentLength(region)
	if err != nil {
		return nil, err
	}
	end := offset + count
	if end > length || HeaderSize+end > t.size {
		return nil, fmt.Errorf("read [%d, %d) of %s holding %d bytes: %w", offset, end, name, length, ErrOutOfRange)
	}
	b := make([]byte, count)
	if _, err := region.ReadAt(b, int64(payloadOffset+offset)); err != nil {
		return nil, fmt.Errorf("read region %s: %w", name, err)
	}
	return b, nil
}

// attach returns a tracked view of name covering at least need bytes. A view
// this Manager opened earlier that turns out too short is replaced by a larger
// one; regions it created are already mapped whole and are never replaced.
func (m *Manager) attach(name string, need uint64) (*trackedRegion, error) {
	if t, ok := m.regions.Get(name); ok && (t.owned || t.size >= need) {
		return t, nil
	}
	region, err := m.accessor.Open(name, int(need), AccessRead)
	if err != nil {
		return nil, err
	}
	fresh := track(region, false)
	var stale *trackedRegion
	kept := m.regions.Upsert(name, fresh, func(exist bool, cur, next *trackedRegion) *trackedRegion {
		if exist && (cur.owned || cur.size >= need) {
			return cur
		}
		if exist {
			stale = cur
		}
		return next
	})
	if kept != fresh {
		_ = region.Close()
	}
	if stale != nil {
		stale.release(func(r *Region) { _ = r.Close() })
		m.log.Debug("remapped region", zap.String("region", name), zap.Uint64("size", fresh.size))
	}
	return kept, nil
}

func (m *Manager) waitPopulated(ctx context.Context, region *Region) error {
	op := func() error {
		state, err := peekState(region)
		if err != nil {
			return backoff.Permanent(err)
		}
		if state == StateFresh {
			return fmt.Errorf("%w: %s", ErrRegionNotReady, region.Name())
		}
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.readInterval), m.readRetries), ctx)
	return backoff.Retry(op, policy)
}

// Free releases a region by name and reports whether anything was released.
// Regions this Manager created, and untracked names, are deleted through the
// accessor. Regions it only opened are unmapped and left to their creator.
func (m *Manager) Free(name string) bool {
	t, tracked := m.regions.Pop(name)
	if tracked && !t.owned {
		t.release(func(r *Region) {
			if err := r.Close(); err != nil {
				m.log.Warn("unmap region failed", zap.String("region", name), zap.Error(err))
			}
		})
		m.log.Debug("unmapped region", zap.String("region", name))
		return true
	}
	var removed bool
	if tracked {
		t.release(func(r *Region) { removed = m.accessor.Delete(name, r) })
	} else {
		removed = m.accessor.Delete(name, nil)
	}
	m.log.Debug("freed region", zap.String("region", name), zap.Bool("removed", removed))
	// A tracked region counts as freed even where the backend has no name to remove.
	return removed || tracked
}

// Disown stops tracking name and unmaps it without deleting it, handing the
// region over to whoever is told its name. It reports whether name was tracked.
func (m *Manager) Disown(name string) bool {
	t, ok := m.regions.Pop(name)
	if !ok {
		return false
	}
	t.release(func(r *Region) {
		if err := r.Close(); err != nil {
			m.log.Warn("unmap region failed", zap.String("region", name), zap.Error(err))
		}
	})
	m.log.Debug("disowned region", zap.String("region", name), zap.Bool("created", t.owned))
	return true
}

// Tracked reports whether name is currently mapped by the Manager.
func (m *Manager) Tracked(name string) bool {
	return m.regions.Has(name)
}

// Len returns the number of tracked regions.
func (m *Manager) Len() int {
	return m.regions.Count()
}

// Closed reports whether Close has been called.
func (m *Manager) Closed() bool {
	return m.closed.Load()
}

// ScheduleRelease queues names for deletion by the next ReleasePending call.
// The host asks for this once it has consumed the regions of an invocation.
func (m *Manager) ScheduleRelease(names ...string) error {
	if len(names) == 0 {
		return nil
	}
	items := make([]interface{}, len(names))
	for i, name := range names {
		items[i] = name
	}
	return m.pending.Put(items...)
}

// ReleasePending frees every queued name on the release pool and reports, per
// name, whether it was freed.
func (m *Manager) ReleasePending(ctx context.Context) (map[string]bool, error) {
	results := make(map[string]bool)
	// TakeUntil drains atomically and never blocks, so concurrent callers
	// each get a disjoint share of the queue.
	items, err := m.pending.TakeUntil(func(interface{}) bool { return true })
	if err != nil {
		return nil, fmt.Errorf("drain release queue: %w", err)
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, item := range items {
		name, ok := item.(string)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return results, err
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			freed := m.Free(name)
			mu.Lock()
			results[name] = freed
			mu.Unlock()
		}
		if err := m.pool.Submit(task); err != nil {
			// pool closed or overloaded: release inline
			task()
		}
	}
	wg.Wait()
	return results, nil
}

// Close frees every tracked region and stops the release pool.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if _, err := m.ReleasePending(context.Background()); err != nil {
		m.log.Warn("release pending regions failed", zap.Error(err))
	}
	for _, name := range m.regions.Keys() {
		m.Free(name)
	}
	m.pending.Dispose()
	return m.pool.ReleaseTimeout(time.Second)
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}

const maxInt = int(^uint(0) >> 1)
