package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/favorite"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/viewed"
	"github.com/xenking/storefront/internal/persist"
)

// Option configures a Manager.
type Option func(*Manager)

// WithIdleTimeout sets how long an unused session stays in memory.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

// WithOrderOptions passes options to every order store the manager creates.
func WithOrderOptions(opts ...order.StoreOption) Option {
	return func(m *Manager) { m.orderOpts = opts }
}

type entry struct {
	ready   chan struct{}
	session *Session
	err     error
}

// Manager constructs sessions on first use, restores their stores from
// persisted snapshots, and evicts sessions that stay idle.
//
// Snapshots are read through reader and written to sink. When both are the
// same persist.Writer, a session evicted before its snapshots reach storage
// is restored from the snapshots the writer still holds, and Run flushes the
// writer after every eviction round.
type Manager struct {
	reader persist.Reader
	sink   persist.Sink
	lg     *zap.Logger

	idleTimeout time.Duration
	orderOpts   []order.StoreOption
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a Manager.
func NewManager(reader persist.Reader, sink persist.Sink, lg *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		reader:      reader,
		sink:        sink,
		lg:          lg,
		idleTimeout: 30 * time.Minute,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Get returns the session with the given id, loading it on first use.
// Concurrent callers for the same id share one load.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		m.sessions[id] = e
	}
	m.mu.Unlock()

	if !ok {
		e.session, e.err = m.load(ctx, id)
		if e.err != nil {
			m.mu.Lock()
			delete(m.sessions, id)
			m.mu.Unlock()
		}
		close(e.ready)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	e.session.touch(m.now())
	return e.session, nil
}

// Len returns the number of sessions in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict drops sessions not used since now minus the idle timeout and
// returns how many were dropped. Their state stays in storage.
func (m *Manager) Evict(now time.Time) int {
	deadline := now.Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		select {
		case <-e.ready:
		default:
			continue
		}
		if e.session.LastSeen().Before(deadline) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions periodically until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(max(m.idleTimeout/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.evictAndFlush(ctx, now)
		}
	}
}

type flusher interface {
	Flush(ctx context.Context)
}

func (m *Manager) evictAndFlush(ctx context.Context, now time.Time) int {
	n := m.Evict(now)
	if n == 0 {
		return 0
	}
	if f, ok := m.sink.(flusher); ok {
		f.Flush(ctx)
	}
	m.lg.Debug("Evicted idle sessions",
		zap.Int("evicted", n),
		zap.Int("active", m.Len()),
	)
	return n
}

type restorer interface {
	Restore(data []byte) (int, error)
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	s := &Session{
		ID:        id,
		Cart:      cart.NewStore(Key(id, cart.KeySuffix), m.sink),
		Favorites: favorite.NewStore(Key(id, favorite.KeySuffix), m.sink),
		Orders:    order.NewStore(Key(id, order.KeySuffix), m.sink, m.orderOpts...),
		Viewed:    viewed.NewStore(Key(id, viewed.KeySuffix), m.sink),
		Draft:     order.NewDraftHolder(),
	}
	s.touch(m.now())

	stores := []struct {
		suffix string
		store  restorer
	}{
		{cart.KeySuffix, s.Cart},
		{favorite.KeySuffix, s.Favorites},
		{order.KeySuffix, s.Orders},
		{viewed.KeySuffix, s.Viewed},
	}
	for _, st := range stores {
		key := Key(id, st.suffix)
		data, err := m.reader.Get(ctx, key)
		if errors.Is(err, persist.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", st.suffix)
		}

		skipped, err := st.store.Restore(data)
		if err != nil {
			m.lg.Warn("Discarding unreadable snapshot",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		if skipped > 0 {
			m.lg.Warn("Skipped malformed snapshot entries",
				zap.String("key", key),
				zap.Int("skipped", skipped),
			)
		}
	}
	return s, nil
}
