// Package catalogseed loads catalog seed files.
package catalogseed

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
	"github.com/xenking/storefront/internal/promoingest"
)

// Decode reads a JSON array of products in the catalog API layout.
// Products without an id or with a negative price are rejected.
func Decode(r io.Reader) ([]product.Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	var (
		products []product.Product
		seen     = make(map[int64]struct{})
	)
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var p product.Product
		if err := p.Decode(d); err != nil {
			return err
		}
		switch {
		case p.ID <= 0:
			return errors.Errorf("product %d: %q has no id", len(products), p.Title)
		case p.Price.IsNegative():
			return errors.Errorf("product %d: negative price", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return errors.Errorf("product %d: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// Load reads the products of a plain or gzip-compressed seed file.
func Load(path string) ([]product.Product, error) {
	rc, err := promoingest.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	products, err := Decode(rc)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return products, nil
}

// Promos are the promo codes seeded next to the catalog.
func Promos() []promo.Rule {
	return []promo.Rule{
		{
			Code:         "HAPPYHOURS",
			DiscountType: promo.DiscountPercentage,
			Value:        decimal.NewFromInt(18),
			Description:  "Happy Hours: 18% off entire order",
		},
		{
			Code:         "BUYGETONE",
			DiscountType: promo.DiscountFreeLowest,
			MinItems:     2,
			Description:  "Buy one get one: lowest priced item free",
		},
	}
}
