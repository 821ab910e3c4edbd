// Package promo implements promo-code rules and the discounts they grant on
// a cart.
package promo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest makes the cheapest unit in the cart free.
	DiscountFreeLowest DiscountType = "free_lowest"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountFreeLowest:
		return true
	default:
		return false
	}
}

var (
	// ErrInvalidPromo is returned when a code is unknown or the cart does not
	// satisfy the rule's minimum item count.
	ErrInvalidPromo = errors.New("invalid promo code")
	// ErrPromoExpired is returned outside the rule's validity window.
	ErrPromoExpired = errors.New("promo code expired")
	// ErrUsageLimitReached is returned when a rule has no uses left.
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
)

// Rule defines a promo code's discount and eligibility constraints.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	// MaxUses of zero means unlimited.
	MaxUses int
	Uses    int
	// MaxDiscount caps the discount amount when positive.
	MaxDiscount decimal.Decimal
}

// Discount is the amount a rule takes off a cart.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Repository provides lookup and redemption of rules.
type Repository interface {
	// FindByCode returns ErrInvalidPromo for unknown codes.
	FindByCode(ctx context.Context, code string) (*Rule, error)
	IncrementUses(ctx context.Context, code string) error
}

// NormalizeCode canonicalizes user input: surrounding space is trimmed and
// the code is upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
