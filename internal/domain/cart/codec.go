package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/persist"
)

// SchemaVersion is the current layout of the cart snapshot.
const SchemaVersion = 1

var errInvalidLine = errors.New("invalid cart line")

// Encode writes l as a JSON object.
func (l Line) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("product")
	l.Product.Encode(e)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	if l.Size != "" {
		e.FieldStart("size")
		e.Str(l.Size)
	}
	e.ObjEnd()
}

// Decode reads a line written by Encode. A missing quantity defaults to one.
func (l *Line) Decode(d *jx.Decoder) error {
	l.Quantity = 1
	hasProduct := false
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "product":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			hasProduct = true
			return l.Product.Decode(d)
		case "quantity":
			l.Quantity = int(persist.Int64(d))
		case "size":
			l.Size = persist.Str(d)
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return err
	}
	if !hasProduct || l.Quantity < 1 {
		return errInvalidLine
	}
	l.Quantity = min(l.Quantity, MaxQuantity)
	return nil
}

// Marshal encodes lines as a versioned cart snapshot.
func Marshal(lines []Line) []byte {
	return persist.Encode(SchemaVersion, func(e *jx.Encoder) {
		for _, l := range lines {
			l.Encode(e)
		}
	})
}

// Unmarshal decodes a cart snapshot. Invalid lines are skipped, and lines
// sharing a key are merged.
func Unmarshal(data []byte) (lines []Line, skipped int, err error) {
	skipped, err = persist.Decode(data, SchemaVersion, func(d *jx.Decoder) error {
		var l Line
		if err := l.Decode(d); err != nil {
			return err
		}
		for i := range lines {
			if lines[i].is(l.Product.ID, l.Size) {
				lines[i].Quantity = addQuantity(lines[i].Quantity, l.Quantity)
				return nil
			}
		}
		lines = append(lines, l)
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "decode cart")
	}
	return lines, skipped, nil
}
