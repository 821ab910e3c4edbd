package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Validator checks a promo code against cart lines.
type Validator interface {
	// Quote computes the discount without consuming a use.
	Quote(ctx context.Context, code string, lines []cart.Line) (*Discount, error)
	// Redeem computes the discount and consumes one use of the code.
	Redeem(ctx context.Context, code string, lines []cart.Line) (*Discount, error)
}

var _ Validator = (*RepoValidator)(nil)

// RepoValidator implements Validator over a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by repo.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Quote looks up the rule for code, checks its validity window and usage
// limit, and applies it to lines.
func (v *RepoValidator) Quote(ctx context.Context, code string, lines []cart.Line) (*Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidPromo
	}

	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidPromo) {
			return nil, ErrInvalidPromo
		}
		return nil, errors.Wrap(err, "lookup promo")
	}

	now := v.now()
	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return nil, ErrPromoExpired
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return nil, ErrPromoExpired
	}
	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return nil, ErrUsageLimitReached
	}

	d, err := Apply(rule, lines)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Redeem is Quote followed by incrementing the usage counter.
func (v *RepoValidator) Redeem(ctx context.Context, code string, lines []cart.Line) (*Discount, error) {
	d, err := v.Quote(ctx, code, lines)
	if err != nil {
		return nil, err
	}
	if err := v.repo.IncrementUses(ctx, d.Code); err != nil {
		return nil, errors.Wrap(err, "increment promo uses")
	}
	return d, nil
}
