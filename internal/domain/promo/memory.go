package promo

import (
	"context"
	"sync"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps rules in memory.
type MemoryRepository struct {
	mu    sync.Mutex
	rules map[string]Rule
}

// NewMemoryRepository creates a repository holding rules.
func NewMemoryRepository(rules ...Rule) *MemoryRepository {
	r := &MemoryRepository{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		r.Upsert(rule)
	}
	return r
}

// Upsert stores rule, replacing a rule with the same code. The usage counter
// of an existing rule is kept.
func (r *MemoryRepository) Upsert(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule.Code = NormalizeCode(rule.Code)
	if old, ok := r.rules[rule.Code]; ok {
		rule.Uses = old.Uses
	}
	r.rules[rule.Code] = rule
}

func (r *MemoryRepository) FindByCode(_ context.Context, code string) (*Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[NormalizeCode(code)]
	if !ok {
		return nil, ErrInvalidPromo
	}
	return &rule, nil
}

func (r *MemoryRepository) IncrementUses(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = NormalizeCode(code)
	rule, ok := r.rules[code]
	if !ok {
		return ErrInvalidPromo
	}
	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return ErrUsageLimitReached
	}
	rule.Uses++
	r.rules[code] = rule
	return nil
}
