package order

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/persist"
)

// SchemaVersion is the current layout of the order history snapshot.
const SchemaVersion = 1

var errInvalidOrder = errors.New("invalid order")

// Encode writes o as a JSON object.
func (o Order) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID.String())
	e.FieldStart("created_at")
	persist.WriteTime(e, o.CreatedAt)
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Lines {
		l.Encode(e)
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	persist.WriteDecimal(e, o.Subtotal)
	e.FieldStart("discount")
	persist.WriteDecimal(e, o.Discount)
	e.FieldStart("total")
	persist.WriteDecimal(e, o.Total)
	e.FieldStart("delivery")
	e.Str(string(o.Delivery))
	e.FieldStart("payment")
	e.Str(string(o.Payment))
	e.FieldStart("contact")
	o.Contact.Encode(e)
	e.FieldStart("shipping")
	o.Shipping.Encode(e)
	if o.PromoCode != "" {
		e.FieldStart("promo_code")
		e.Str(o.PromoCode)
	}
	e.ObjEnd()
}

// Decode reads an order written by Encode. An order without a valid id is
// rejected; other malformed fields keep their zero value.
func (o *Order) Decode(d *jx.Decoder) error {
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			id, err := uuid.Parse(persist.Str(d))
			if err == nil {
				o.ID = id
			}
		case "created_at":
			o.CreatedAt = persist.Time(d)
		case "items":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				raw, err := d.Raw()
				if err != nil {
					return err
				}
				var l cart.Line
				if err := l.Decode(jx.DecodeBytes(raw)); err == nil {
					o.Lines = append(o.Lines, l)
				}
				return nil
			})
		case "subtotal":
			o.Subtotal = persist.Decimal(d)
		case "discount":
			o.Discount = persist.Decimal(d)
		case "total", "grand_total":
			o.Total = persist.Decimal(d)
		case "delivery":
			o.Delivery = Delivery(persist.Str(d))
		case "payment":
			o.Payment = Payment(persist.Str(d))
		case "contact":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return o.Contact.Decode(d)
		case "shipping":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return o.Shipping.Decode(d)
		case "promo_code":
			o.PromoCode = persist.Str(d)
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return err
	}
	if o.ID == uuid.Nil {
		return errInvalidOrder
	}
	return nil
}

// Encode writes c as a JSON object.
func (c Contact) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("email")
	e.Str(c.Email)
	e.FieldStart("phone")
	e.Str(c.Phone)
	e.FieldStart("first_name")
	e.Str(c.FirstName)
	e.FieldStart("last_name")
	e.Str(c.LastName)
	e.FieldStart("dial_code")
	e.Str(c.DialCode)
	e.ObjEnd()
}

// Decode reads a contact written by Encode.
func (c *Contact) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "email":
			c.Email = persist.Str(d)
		case "phone":
			c.Phone = persist.Str(d)
		case "first_name":
			c.FirstName = persist.Str(d)
		case "last_name":
			c.LastName = persist.Str(d)
		case "dial_code":
			c.DialCode = persist.Str(d)
		default:
			return d.Skip()
		}
		return nil
	})
}

// Encode writes s as a JSON object.
func (s Shipping) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("city")
	e.Str(s.City)
	e.FieldStart("address")
	e.Str(s.Address)
	if s.Comment != "" {
		e.FieldStart("comment")
		e.Str(s.Comment)
	}
	e.ObjEnd()
}

// Decode reads a shipping block written by Encode.
func (s *Shipping) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "city":
			s.City = persist.Str(d)
		case "address":
			s.Address = persist.Str(d)
		case "comment":
			s.Comment = persist.Str(d)
		default:
			return d.Skip()
		}
		return nil
	})
}

// Marshal encodes orders as a versioned snapshot.
func Marshal(orders []Order) []byte {
	return persist.Encode(SchemaVersion, func(e *jx.Encoder) {
		for _, o := range orders {
			o.Encode(e)
		}
	})
}

// Unmarshal decodes an order history snapshot. Orders without an id and
// repeated ids are skipped.
func Unmarshal(data []byte) (orders []Order, skipped int, err error) {
	seen := make(map[uuid.UUID]struct{})
	skipped, err = persist.Decode(data, SchemaVersion, func(d *jx.Decoder) error {
		var o Order
		if err := o.Decode(d); err != nil {
			return err
		}
		if _, ok := seen[o.ID]; ok {
			return errInvalidOrder
		}
		seen[o.ID] = struct{}{}
		orders = append(orders, o)
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "decode orders")
	}
	return orders, skipped, nil
}
