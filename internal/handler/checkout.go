package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/session"
)

// writeDraft responds with the draft and the current price quote. A promo
// code that does not apply is reported in promo_error instead of failing
// the request, so the form stays editable.
func (h *Handler) writeDraft(w http.ResponseWriter, r *http.Request, s *session.Session) {
	d := s.Draft.Get()
	lines := s.Cart.Lines()

	q, err := h.checkout.Quote(r.Context(), lines, d.PromoCode)
	var promoErr string
	if err != nil {
		if status := errorStatus(err); status != http.StatusUnprocessableEntity {
			h.fail(w, r, err)
			return
		}
		promoErr = rootMessage(err)
		if q, err = h.checkout.Quote(r.Context(), lines, ""); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("draft")
		encodeDraft(e, d)
		e.FieldStart("quote")
		encodeQuote(e, q)
		if promoErr != "" {
			e.FieldStart("promo_error")
			e.Str(promoErr)
		}
		e.ObjEnd()
	})
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.writeDraft(w, r, s)
}

// patchDraft serves PATCH /session/checkout/draft. Absent fields are left
// unchanged.
func (h *Handler) patchDraft(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var p order.DraftPatch
	if err := readBody(w, r, func(d *jx.Decoder, key string) error {
		var (
			v   *string
			err error
		)
		switch key {
		case "delivery", "payment", "city", "address", "comment", "promo_code":
			if v, err = optStr(d, key); err != nil {
				return err
			}
		default:
			return d.Skip()
		}
		switch key {
		case "delivery":
			delivery := order.Delivery(*v)
			if !delivery.Valid() {
				return order.ErrInvalidDelivery
			}
			p.Delivery = &delivery
		case "payment":
			payment := order.Payment(*v)
			if !payment.Valid() {
				return order.ErrInvalidPayment
			}
			p.Payment = &payment
		case "city":
			p.City = v
		case "address":
			p.Address = v
		case "comment":
			p.Comment = v
		case "promo_code":
			p.PromoCode = v
		}
		return nil
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	s.Draft.Update(p)
	h.writeDraft(w, r, s)
}

// placeOrder serves POST /session/checkout. The body carries the contact
// block; delivery, payment and shipping come from the session draft.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var contact order.Contact
	if err := readBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "contact" {
			return d.Skip()
		}
		return contact.Decode(d)
	}); err != nil {
		h.fail(w, r, err)
		return
	}

	o, err := h.checkout.Place(r.Context(), s.ID, s.Cart, s.Orders, order.CheckoutRequest{
		Draft:   s.Draft.Get(),
		Contact: contact,
	})
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "place order"))
		return
	}
	s.Draft.Reset()

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	orders := s.Orders.List()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range orders {
			h.encodeOrder(e, o)
		}
		e.ArrEnd()
	})
}

func (h *Handler) clearOrders(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	s.Orders.Clear()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrEmpty()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, &badRequestError{msg: "invalid order id"})
		return
	}
	o, err := s.Orders.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}
