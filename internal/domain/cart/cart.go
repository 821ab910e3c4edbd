// Package cart implements the shopping cart of a storefront session.
package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/persist"
)

// KeySuffix names the cart snapshot within a session's storage keys.
const KeySuffix = "cart"

// MaxQuantity is the largest quantity a single line can hold. Larger sums
// saturate at this value.
const MaxQuantity = 9999

func addQuantity(a, b int) int {
	if b > MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}

// Line is a single cart entry. A line owns a full product snapshot so that
// it survives catalog changes. Lines are keyed by product id and size.
type Line struct {
	Product  product.Product
	Quantity int
	// Size is the optional variant label; empty means no size.
	Size string
}

// Subtotal returns price × quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) is(id int64, size string) bool {
	return l.Product.ID == id && l.Size == size
}

// Store holds the cart lines of one session.
//
// Every mutation is atomic and is followed by a snapshot handed to the
// configured persist.Sink. Removing or updating a missing line is a no-op.
type Store struct {
	key  string
	sink persist.Sink

	mu    sync.Mutex
	lines []Line
}

// NewStore creates an empty cart persisted under key.
func NewStore(key string, sink persist.Sink) *Store {
	if sink == nil {
		sink = persist.Discard
	}
	return &Store{key: key, sink: sink}
}

// Add puts quantity units of p with the given size into the cart, merging
// with an existing line of the same key. A quantity below one adds one unit;
// the line quantity never exceeds MaxQuantity.
func (s *Store) Add(p product.Product, quantity int, size string) {
	quantity = min(max(quantity, 1), MaxQuantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(p.ID, size); i >= 0 {
		s.lines[i].Quantity = addQuantity(s.lines[i].Quantity, quantity)
	} else {
		s.lines = append(s.lines, Line{Product: p, Quantity: quantity, Size: size})
	}
	s.persist()
}

// Remove takes one unit off the matching line and drops the line when its
// quantity reaches zero.
func (s *Store) Remove(id int64, size string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id, size)
	if i < 0 {
		return
	}
	s.lines[i].Quantity--
	if s.lines[i].Quantity <= 0 {
		s.lines = slices.Delete(s.lines, i, i+1)
	}
	s.persist()
}

// RemoveLine drops the matching line regardless of its quantity.
func (s *Store) RemoveLine(id int64, size string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id, size)
	if i < 0 {
		return
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	s.persist()
}

// UpdateSize moves the line (id, prev) to (id, next). When a line already
// exists at (id, next) the quantities are summed into that line, which keeps
// its position, and the source line is removed.
func (s *Store) UpdateSize(id int64, prev, next string) {
	if prev == next {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.index(id, prev)
	if src < 0 {
		return
	}
	if dst := s.index(id, next); dst >= 0 {
		s.lines[dst].Quantity = addQuantity(s.lines[dst].Quantity, s.lines[src].Quantity)
		s.lines = slices.Delete(s.lines, src, src+1)
	} else {
		s.lines[src].Size = next
	}
	s.persist()
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist()
}

// Drain hands a copy of the lines to fn while holding the cart, and empties
// the cart when fn succeeds. Other cart operations wait until fn returns,
// so a cart is drained at most once and no line is lost to a concurrent Add.
func (s *Store) Drain(fn func(lines []Line) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(slices.Clone(s.lines)); err != nil {
		return err
	}
	s.lines = nil
	s.persist()
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Line returns the line with the given key.
func (s *Store) Line(id int64, size string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(id, size); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// TotalCount returns the sum of quantities.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TotalCount(s.lines)
}

// Total returns the sum of price × quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.lines)
}

// Restore replaces the cart with a persisted snapshot without persisting it
// again. Malformed lines are skipped and counted.
func (s *Store) Restore(data []byte) (skipped int, err error) {
	lines, skipped, err := Unmarshal(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	return skipped, nil
}

func (s *Store) index(id int64, size string) int {
	return slices.IndexFunc(s.lines, func(l Line) bool { return l.is(id, size) })
}

// persist must be called with mu held so snapshots reach the sink in
// mutation order.
func (s *Store) persist() {
	s.sink.Persist(s.key, Marshal(s.lines))
}

// TotalCount returns the sum of quantities of lines.
func TotalCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Total returns the sum of price × quantity of lines.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
