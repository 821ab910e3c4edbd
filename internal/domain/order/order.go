// Package order implements the order history of a session and the checkout
// flow that appends to it.
package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Delivery is the way an order reaches the customer.
type Delivery string

const (
	DeliveryPickup  Delivery = "pickup"
	DeliveryCourier Delivery = "courier"
	DeliveryPost    Delivery = "post"
)

// Valid reports whether d is a known delivery method.
func (d Delivery) Valid() bool {
	switch d {
	case DeliveryPickup, DeliveryCourier, DeliveryPost:
		return true
	default:
		return false
	}
}

// Payment is the way an order is paid for.
type Payment string

const (
	PaymentCashOnDelivery Payment = "cash_on_delivery"
	PaymentCard           Payment = "card"
	PaymentInvoice        Payment = "invoice"
)

// Valid reports whether p is a known payment method.
func (p Payment) Valid() bool {
	switch p {
	case PaymentCashOnDelivery, PaymentCard, PaymentInvoice:
		return true
	default:
		return false
	}
}

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidDelivery = errors.New("invalid delivery method")
	ErrInvalidPayment  = errors.New("invalid payment method")
	ErrNotFound        = errors.New("order not found")
)

// MissingFieldError indicates a required checkout field was left blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Contact identifies the customer.
type Contact struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	// DialCode is the country calling code of Phone, e.g. "+44".
	DialCode string
}

// Shipping is the delivery destination.
type Shipping struct {
	City    string
	Address string
	Comment string
}

// NewOrder holds every field of an order except the ones the store assigns.
type NewOrder struct {
	Lines     []cart.Line
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Delivery  Delivery
	Payment   Payment
	Contact   Contact
	Shipping  Shipping
	PromoCode string
}

// Order is a placed order. It is never modified once created.
type Order struct {
	ID        uuid.UUID
	CreatedAt time.Time
	NewOrder
}

func (o Order) clone() Order {
	o.Lines = append([]cart.Line(nil), o.Lines...)
	return o
}
