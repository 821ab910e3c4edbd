package order

import (
	"strings"
	"sync"
)

// Draft is the checkout form of a session. It is kept in memory only and
// frozen into an Order on confirmation.
type Draft struct {
	Delivery  Delivery
	Payment   Payment
	City      string
	Address   string
	Comment   string
	PromoCode string
}

// DraftPatch changes the fields of a Draft that are non-nil.
type DraftPatch struct {
	Delivery  *Delivery
	Payment   *Payment
	City      *string
	Address   *string
	Comment   *string
	PromoCode *string
}

// Apply returns d with p applied.
func (p DraftPatch) Apply(d Draft) Draft {
	if p.Delivery != nil {
		d.Delivery = *p.Delivery
	}
	if p.Payment != nil {
		d.Payment = *p.Payment
	}
	if p.City != nil {
		d.City = *p.City
	}
	if p.Address != nil {
		d.Address = *p.Address
	}
	if p.Comment != nil {
		d.Comment = *p.Comment
	}
	if p.PromoCode != nil {
		d.PromoCode = *p.PromoCode
	}
	return d
}

// DraftHolder guards the Draft of one session.
type DraftHolder struct {
	mu    sync.Mutex
	draft Draft
}

// NewDraftHolder creates a holder with the default draft: courier delivery
// paid by card.
func NewDraftHolder() *DraftHolder {
	return &DraftHolder{draft: Draft{Delivery: DeliveryCourier, Payment: PaymentCard}}
}

// Get returns the current draft.
func (h *DraftHolder) Get() Draft {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draft
}

// Update applies p and returns the new draft.
func (h *DraftHolder) Update(p DraftPatch) Draft {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft = p.Apply(h.draft)
	return h.draft
}

// Reset restores the default draft.
func (h *DraftHolder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft = NewDraftHolder().draft
}

type requiredField struct {
	name  string
	value string
}

// Validate checks that d and c carry every field required to place an order.
// Shipping fields are required unless the order is picked up.
func Validate(d Draft, c Contact) error {
	if !d.Delivery.Valid() {
		return ErrInvalidDelivery
	}
	if !d.Payment.Valid() {
		return ErrInvalidPayment
	}

	required := []requiredField{
		{"first_name", c.FirstName},
		{"last_name", c.LastName},
		{"email", c.Email},
		{"phone", c.Phone},
	}
	if d.Delivery != DeliveryPickup {
		required = append(required,
			requiredField{"city", d.City},
			requiredField{"address", d.Address},
		)
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &MissingFieldError{Field: r.name}
		}
	}
	return nil
}
