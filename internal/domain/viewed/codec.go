package viewed

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/persist"
)

// SchemaVersion is the current layout of the viewed-products snapshot.
const SchemaVersion = 1

var errInvalidEntry = errors.New("invalid viewed entry")

// Encode writes e as a JSON object.
func (e Entry) Encode(enc *jx.Encoder) {
	enc.ObjStart()
	enc.FieldStart("id")
	enc.Int64(e.ID)
	enc.FieldStart("title")
	enc.Str(e.Title)
	enc.FieldStart("price")
	persist.WriteDecimal(enc, e.Price)
	enc.FieldStart("image")
	enc.Str(e.Image)
	enc.FieldStart("category")
	enc.Str(e.Category)
	enc.FieldStart("description")
	enc.Str(e.Description)
	enc.ObjEnd()
}

// Decode reads an entry written by Encode.
func (e *Entry) Decode(d *jx.Decoder) error {
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			e.ID = persist.Int64(d)
		case "title":
			e.Title = persist.Str(d)
		case "price":
			e.Price = persist.Decimal(d)
		case "image":
			e.Image = persist.Str(d)
		case "category":
			e.Category = persist.Str(d)
		case "description":
			e.Description = persist.Str(d)
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return err
	}
	if e.ID == 0 {
		return errInvalidEntry
	}
	return nil
}

// Marshal encodes entries as a versioned snapshot.
func Marshal(entries []Entry) []byte {
	return persist.Encode(SchemaVersion, func(enc *jx.Encoder) {
		for _, e := range entries {
			e.Encode(enc)
		}
	})
}

// Unmarshal decodes a snapshot. The MRU bounds are reapplied: later
// duplicates are dropped and the list is cut to MaxEntries.
func Unmarshal(data []byte) (entries []Entry, skipped int, err error) {
	skipped, err = persist.Decode(data, SchemaVersion, func(d *jx.Decoder) error {
		var e Entry
		if err := e.Decode(d); err != nil {
			return err
		}
		for _, v := range entries {
			if v.ID == e.ID {
				return nil
			}
		}
		if len(entries) < MaxEntries {
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "decode viewed products")
	}
	return entries, skipped, nil
}
