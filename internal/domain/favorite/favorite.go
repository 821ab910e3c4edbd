// Package favorite holds the set of products a session has liked.
package favorite

import (
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/persist"
)

const (
	// KeySuffix names the favorites snapshot within a session's storage keys.
	KeySuffix = "favorites"
	// SchemaVersion is the current layout of the favorites snapshot.
	SchemaVersion = 1
)

// Store is a set of product ids. Adding and removing are idempotent.
type Store struct {
	key  string
	sink persist.Sink

	mu    sync.Mutex
	ids   []int64
	index map[int64]struct{}
}

// NewStore creates an empty set persisted under key.
func NewStore(key string, sink persist.Sink) *Store {
	if sink == nil {
		sink = persist.Discard
	}
	return &Store{key: key, sink: sink, index: make(map[int64]struct{})}
}

// Toggle flips the membership of id and reports whether it is now a favorite.
func (s *Store) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		s.remove(id)
		s.persist()
		return false
	}
	s.add(id)
	s.persist()
	return true
}

// Add marks id as a favorite.
func (s *Store) Add(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		return
	}
	s.add(id)
	s.persist()
}

// Remove unmarks id.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return
	}
	s.remove(id)
	s.persist()
}

// Clear removes every favorite.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = nil
	clear(s.index)
	s.persist()
}

// Has reports whether id is a favorite.
func (s *Store) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.index[id]
	return ok
}

// IDs returns the favorites in the order they were added.
func (s *Store) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Restore replaces the set with a persisted snapshot without persisting it
// again.
func (s *Store) Restore(data []byte) (skipped int, err error) {
	ids, skipped, err := Unmarshal(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = nil
	clear(s.index)
	for _, id := range ids {
		s.add(id)
	}
	return skipped, nil
}

func (s *Store) add(id int64) {
	s.ids = append(s.ids, id)
	s.index[id] = struct{}{}
}

func (s *Store) remove(id int64) {
	delete(s.index, id)
	s.ids = slices.DeleteFunc(s.ids, func(v int64) bool { return v == id })
}

func (s *Store) persist() {
	s.sink.Persist(s.key, Marshal(s.ids))
}

// Marshal encodes ids as a versioned favorites snapshot.
func Marshal(ids []int64) []byte {
	return persist.Encode(SchemaVersion, func(e *jx.Encoder) {
		for _, id := range ids {
			e.Int64(id)
		}
	})
}

var errInvalidID = errors.New("invalid product id")

// Unmarshal decodes a favorites snapshot. Non-numeric and duplicate ids are
// dropped.
func Unmarshal(data []byte) (ids []int64, skipped int, err error) {
	seen := make(map[int64]struct{})
	skipped, err = persist.Decode(data, SchemaVersion, func(d *jx.Decoder) error {
		id := persist.Int64(d)
		if id == 0 {
			return errInvalidID
		}
		if _, ok := seen[id]; ok {
			return nil
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "decode favorites")
	}
	return ids, skipped, nil
}
