package order

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/persist"
)

// KeySuffix names the order history snapshot within a session's storage
// keys.
const KeySuffix = "orders"

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator overrides how order ids are generated.
func WithIDGenerator(fn func() uuid.UUID) StoreOption {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the creation timestamp source.
func WithClock(fn func() time.Time) StoreOption {
	return func(s *Store) { s.now = fn }
}

// NewID returns a time-ordered UUIDv7. Ids generated within the same
// millisecond are kept distinct and ordered by the generator's sequence.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// Store is an append-only order history, newest first.
type Store struct {
	key   string
	sink  persist.Sink
	newID func() uuid.UUID
	now   func() time.Time

	mu     sync.Mutex
	orders []Order
}

// NewStore creates an empty history persisted under key.
func NewStore(key string, sink persist.Sink, opts ...StoreOption) *Store {
	if sink == nil {
		sink = persist.Discard
	}
	s := &Store{
		key:   key,
		sink:  sink,
		newID: NewID,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add assigns an id and creation time to o, prepends it to the history and
// returns the created record.
func (s *Store) Add(o NewOrder) Order {
	created := Order{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		NewOrder:  o,
	}.clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = append([]Order{created}, s.orders...)
	s.persist()
	return created.clone()
}

// Clear removes every order.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = nil
	s.persist()
}

// List returns the orders, newest first.
func (s *Store) List() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.clone()
	}
	return out
}

// Get returns the order with the given id.
func (s *Store) Get(id uuid.UUID) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.ID == id {
			return o.clone(), nil
		}
	}
	return Order{}, ErrNotFound
}

// Restore replaces the history with a persisted snapshot without persisting
// it again.
func (s *Store) Restore(data []byte) (skipped int, err error) {
	orders, skipped, err := Unmarshal(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
	return skipped, nil
}

func (s *Store) persist() {
	s.sink.Persist(s.key, Marshal(s.orders))
}
