package persist

import (
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ErrUnsupportedVersion is returned when a snapshot was written by a newer
// schema than the reader understands.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Envelope field names.
const (
	fieldVersion = "v"
	fieldItems   = "items"
)

// Encode wraps the items written by fn into a versioned envelope:
//
//	{"v":<version>,"items":[...]}
func Encode(version int, fn func(e *jx.Encoder)) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart(fieldVersion)
	e.Int(version)
	e.FieldStart(fieldItems)
	e.ArrStart()
	fn(&e)
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

// Decode unwraps a snapshot produced by Encode and calls item once per
// element of the items array. A bare JSON array is accepted as the
// unversioned legacy layout.
//
// Each element is decoded from its own buffer, so an element that item fails
// to read is skipped without affecting its neighbours. The number of skipped
// elements is returned. Empty input decodes to nothing.
func Decode(data []byte, maxVersion int, item func(d *jx.Decoder) error) (skipped int, err error) {
	if len(data) == 0 {
		return 0, nil
	}

	d := jx.DecodeBytes(data)
	var items jx.Raw
	switch d.Next() {
	case jx.Array:
		raw, err := d.Raw()
		if err != nil {
			return 0, errors.Wrap(err, "read legacy snapshot")
		}
		items = raw
	case jx.Object:
		version := 0
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			switch string(key) {
			case fieldVersion:
				version = int(Int64(d))
				return nil
			case fieldItems:
				if d.Next() != jx.Array {
					return d.Skip()
				}
				raw, err := d.Raw()
				if err != nil {
					return err
				}
				items = raw
				return nil
			default:
				return d.Skip()
			}
		}); err != nil {
			return 0, errors.Wrap(err, "read snapshot envelope")
		}
		if version > maxVersion {
			return 0, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
		}
	default:
		return 0, errors.New("snapshot is neither an object nor an array")
	}

	if len(items) == 0 {
		return 0, nil
	}

	var elems []jx.Raw
	if err := jx.DecodeBytes(items).Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		elems = append(elems, raw)
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "read snapshot items")
	}

	for _, raw := range elems {
		if err := item(jx.DecodeBytes(raw)); err != nil {
			skipped++
		}
	}
	return skipped, nil
}

// Str reads a string value. Any other JSON type is skipped and yields "".
func Str(d *jx.Decoder) string {
	if d.Next() != jx.String {
		_ = d.Skip()
		return ""
	}
	s, err := d.Str()
	if err != nil {
		return ""
	}
	return s
}

// Int64 reads an integer given either as a JSON number or a numeric string.
// Anything else yields 0.
func Int64(d *jx.Decoder) int64 {
	s, ok := numeric(d)
	if !ok {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// Decimal reads a decimal given either as a JSON number or a numeric string.
// Anything else yields zero.
func Decimal(d *jx.Decoder) decimal.Decimal {
	s, ok := numeric(d)
	if !ok {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// Time reads an RFC 3339 timestamp or Unix milliseconds.
func Time(d *jx.Decoder) time.Time {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return time.Time{}
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}
		}
		return t
	case jx.Number:
		return time.UnixMilli(Int64(d)).UTC()
	default:
		_ = d.Skip()
		return time.Time{}
	}
}

// WriteDecimal encodes v as a JSON number.
func WriteDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.RawStr(v.String())
}

// WriteTime encodes t as an RFC 3339 string.
func WriteTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func numeric(d *jx.Decoder) (string, bool) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", false
		}
		return n.String(), true
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return "", false
		}
		return s, true
	default:
		_ = d.Skip()
		return "", false
	}
}
