package product

import (
	"context"
	"slices"
	"sync"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is a Repository over a fixed in-memory catalog.
type MemoryRepository struct {
	mu       sync.RWMutex
	products []Product
}

// NewMemoryRepository returns a repository serving products in the given order.
func NewMemoryRepository(products ...Product) *MemoryRepository {
	return &MemoryRepository{products: slices.Clone(products)}
}

// Replace swaps the whole catalog.
func (r *MemoryRepository) Replace(products []Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = slices.Clone(products)
}

func (r *MemoryRepository) List(context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.products), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Categories(context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, p := range r.products {
		if p.Category != "" && !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	slices.Sort(out)
	return out, nil
}
