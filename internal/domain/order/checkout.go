package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/promo"
)

// Publisher announces placed orders to downstream systems.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, session string, o Order) error
}

// Quote is the price breakdown of a cart.
type Quote struct {
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	PromoCode string
}

// CheckoutRequest holds the input for placing an order.
type CheckoutRequest struct {
	Draft   Draft
	Contact Contact
}

// Checkout encapsulates order placement business logic.
type Checkout struct {
	promos    promo.Validator
	publisher Publisher
}

// NewCheckout creates a Checkout. A nil publisher disables order events.
func NewCheckout(promos promo.Validator, publisher Publisher) *Checkout {
	return &Checkout{promos: promos, publisher: publisher}
}

// Quote prices lines with the optional promo code without consuming it.
func (c *Checkout) Quote(ctx context.Context, lines []cart.Line, promoCode string) (Quote, error) {
	return c.price(ctx, lines, promoCode, c.promos.Quote)
}

// Place validates req, prices the cart, appends the order to orders and
// clears the cart. The cart is held for the whole placement, so concurrent
// calls for one cart place at most one order.
//
// The order-placed event is published on a best-effort basis; a publishing
// failure is logged and does not fail the checkout.
func (c *Checkout) Place(
	ctx context.Context,
	session string,
	carts *cart.Store,
	orders *Store,
	req CheckoutRequest,
) (Order, error) {
	if err := Validate(req.Draft, req.Contact); err != nil {
		return Order{}, err
	}

	var o Order
	err := carts.Drain(func(lines []cart.Line) error {
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		q, err := c.price(ctx, lines, req.Draft.PromoCode, c.promos.Redeem)
		if err != nil {
			return err
		}
		o = orders.Add(NewOrder{
			Lines:    lines,
			Subtotal: q.Subtotal,
			Discount: q.Discount,
			Total:    q.Total,
			Delivery: req.Draft.Delivery,
			Payment:  req.Draft.Payment,
			Contact:  req.Contact,
			Shipping: Shipping{
				City:    req.Draft.City,
				Address: req.Draft.Address,
				Comment: req.Draft.Comment,
			},
			PromoCode: q.PromoCode,
		})
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if c.publisher != nil {
		if err := c.publisher.PublishOrderPlaced(ctx, session, o); err != nil {
			zctx.From(ctx).Warn("Publish order placed failed",
				zap.Stringer("order_id", o.ID),
				zap.Error(err),
			)
		}
	}

	return o, nil
}

type discountFunc func(ctx context.Context, code string, lines []cart.Line) (*promo.Discount, error)

func (c *Checkout) price(ctx context.Context, lines []cart.Line, code string, discount discountFunc) (Quote, error) {
	q := Quote{Subtotal: cart.Total(lines).Round(2), Discount: decimal.Zero}

	if code = strings.TrimSpace(code); code != "" {
		d, err := discount(ctx, code, lines)
		if err != nil {
			return Quote{}, errors.Wrap(err, "apply promo")
		}
		q.Discount = d.Amount.Round(2)
		q.PromoCode = d.Code
	}

	// Total = subtotal - discount, floored at zero and rounded to 2 decimal places.
	q.Total = q.Subtotal.Sub(q.Discount)
	if q.Total.IsNegative() {
		q.Total = decimal.Zero
	}
	q.Total = q.Total.Round(2)
	return q, nil
}
