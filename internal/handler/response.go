package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/viewed"
	"github.com/xenking/storefront/internal/persist"
)

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// readBody decodes the JSON object body of r, calling field for each key.
func readBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &badRequestError{msg: "read body", err: err}
	}
	if err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		return field(d, string(key))
	}); err != nil {
		return &badRequestError{msg: "decode body", err: err}
	}
	return nil
}

// image resolves a stored image path against the configured base URL.
func (h *Handler) image(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) product(p product.Product) product.Product {
	p.Image = h.image(p.Image)
	return p
}

func (h *Handler) encodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for _, p := range products {
		h.product(p).Encode(e)
	}
	e.ArrEnd()
}

func (h *Handler) encodeLines(e *jx.Encoder, lines []cart.Line) {
	e.ArrStart()
	for _, l := range lines {
		l.Product = h.product(l.Product)
		l.Encode(e)
	}
	e.ArrEnd()
}

func (h *Handler) encodeCart(e *jx.Encoder, lines []cart.Line) {
	e.ObjStart()
	e.FieldStart("items")
	h.encodeLines(e, lines)
	e.FieldStart("total_count")
	e.Int(cart.TotalCount(lines))
	e.FieldStart("total")
	persist.WriteDecimal(e, cart.Total(lines).Round(2))
	e.ObjEnd()
}

func (h *Handler) encodeOrder(e *jx.Encoder, o order.Order) {
	lines := make([]cart.Line, len(o.Lines))
	for i, l := range o.Lines {
		l.Product = h.product(l.Product)
		lines[i] = l
	}
	o.Lines = lines
	o.Encode(e)
}

func (h *Handler) encodeViewed(e *jx.Encoder, entries []viewed.Entry) {
	e.ArrStart()
	for _, v := range entries {
		v.Image = h.image(v.Image)
		v.Encode(e)
	}
	e.ArrEnd()
}

func encodeIDs(e *jx.Encoder, ids []int64) {
	e.ObjStart()
	e.FieldStart("ids")
	e.ArrStart()
	for _, id := range ids {
		e.Int64(id)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeDraft(e *jx.Encoder, d order.Draft) {
	e.ObjStart()
	e.FieldStart("delivery")
	e.Str(string(d.Delivery))
	e.FieldStart("payment")
	e.Str(string(d.Payment))
	e.FieldStart("city")
	e.Str(d.City)
	e.FieldStart("address")
	e.Str(d.Address)
	e.FieldStart("comment")
	e.Str(d.Comment)
	e.FieldStart("promo_code")
	e.Str(d.PromoCode)
	e.ObjEnd()
}

func encodeQuote(e *jx.Encoder, q order.Quote) {
	e.ObjStart()
	e.FieldStart("subtotal")
	persist.WriteDecimal(e, q.Subtotal)
	e.FieldStart("discount")
	persist.WriteDecimal(e, q.Discount)
	e.FieldStart("total")
	persist.WriteDecimal(e, q.Total)
	if q.PromoCode != "" {
		e.FieldStart("promo_code")
		e.Str(q.PromoCode)
	}
	e.ObjEnd()
}

// optStr reads a string field that must be a JSON string.
func optStr(d *jx.Decoder, name string) (*string, error) {
	if d.Next() != jx.String {
		return nil, errors.Errorf("%s: expected string", name)
	}
	s, err := d.Str()
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return &s, nil
}
