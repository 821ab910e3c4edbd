// Package viewed keeps the most recently viewed products of a session.
package viewed

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/persist"
)

const (
	// KeySuffix names the viewed-products snapshot within a session's
	// storage keys.
	KeySuffix = "viewed"
	// MaxEntries bounds the list; older entries are evicted.
	MaxEntries = 20
)

// Entry is a reduced product snapshot. Volatile fields such as the rating
// are not kept.
type Entry struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Image       string
	Category    string
	Description string
}

// EntryOf reduces p to an Entry.
func EntryOf(p product.Product) Entry {
	return Entry{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
		Description: p.Description,
	}
}

// Store is a bounded most-recently-used list of entries, newest first,
// without duplicate ids.
type Store struct {
	key  string
	sink persist.Sink

	mu      sync.Mutex
	entries []Entry
}

// NewStore creates an empty list persisted under key.
func NewStore(key string, sink persist.Sink) *Store {
	if sink == nil {
		sink = persist.Discard
	}
	return &Store{key: key, sink: sink}
}

// Add records a view of p, moving it to the front of the list.
func (s *Store) Add(p product.Product) {
	e := EntryOf(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = push(s.entries, e)
	s.persist()
}

// Clear empties the list.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.persist()
}

// List returns a copy of the entries, newest first.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Restore replaces the list with a persisted snapshot without persisting it
// again.
func (s *Store) Restore(data []byte) (skipped int, err error) {
	entries, skipped, err := Unmarshal(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	return skipped, nil
}

func (s *Store) persist() {
	s.sink.Persist(s.key, Marshal(s.entries))
}

func push(entries []Entry, e Entry) []Entry {
	entries = slices.DeleteFunc(entries, func(v Entry) bool { return v.ID == e.ID })
	entries = slices.Insert(entries, 0, e)
	if len(entries) > MaxEntries {
		entries = slices.Delete(entries, MaxEntries, len(entries))
	}
	return entries
}
