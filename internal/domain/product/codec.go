package product

import (
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/persist"
)

// Encode writes p as a JSON object. The same layout is used for persisted
// snapshots, API responses and the text the free-text filter matches against.
func (p Product) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("price")
	persist.WriteDecimal(e, p.Price)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("image")
	e.Str(p.Image)
	if p.Rating != nil {
		e.FieldStart("rating")
		e.ObjStart()
		e.FieldStart("rate")
		persist.WriteDecimal(e, p.Rating.Rate)
		e.FieldStart("count")
		e.Int64(p.Rating.Count)
		e.ObjEnd()
	}
	e.ObjEnd()
}

// Decode reads a product written by Encode. Unknown fields are ignored and
// malformed fields keep their zero value.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			p.ID = persist.Int64(d)
		case "title":
			p.Title = persist.Str(d)
		case "price":
			p.Price = persist.Decimal(d)
		case "description":
			p.Description = persist.Str(d)
		case "category":
			p.Category = persist.Str(d)
		case "image":
			p.Image = persist.Str(d)
		case "rating":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			var r Rating
			if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				switch string(key) {
				case "rate":
					r.Rate = persist.Decimal(d)
				case "count":
					r.Count = persist.Int64(d)
				default:
					return d.Skip()
				}
				return nil
			}); err != nil {
				return err
			}
			p.Rating = &r
		default:
			return d.Skip()
		}
		return nil
	})
}
