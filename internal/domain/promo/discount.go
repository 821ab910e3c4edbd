package promo

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Apply calculates the discount rule grants on lines. It returns
// ErrInvalidPromo when the cart holds fewer units than rule.MinItems.
func Apply(rule *Rule, lines []cart.Line) (Discount, error) {
	if rule.MinItems > 0 && cart.TotalCount(lines) < rule.MinItems {
		return Discount{}, ErrInvalidPromo
	}

	subtotal := cart.Total(lines)

	var amount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
	case DiscountFixed:
		amount = decimal.Min(rule.Value, subtotal)
	case DiscountFreeLowest:
		amount = lowestUnitPrice(lines)
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}

	if rule.MaxDiscount.IsPositive() {
		amount = decimal.Min(amount, rule.MaxDiscount)
	}

	return Discount{
		Code:        rule.Code,
		Amount:      floorAtZero(amount).Round(2),
		Description: rule.Description,
	}, nil
}

// lowestUnitPrice returns the lowest unit price among lines, or zero.
func lowestUnitPrice(lines []cart.Line) decimal.Decimal {
	if len(lines) == 0 {
		return zero
	}
	lowest := lines[0].Product.Price
	for _, l := range lines[1:] {
		if l.Product.Price.LessThan(lowest) {
			lowest = l.Product.Price
		}
	}
	return lowest
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
