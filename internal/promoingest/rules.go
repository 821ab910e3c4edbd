package promoingest

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/promo"
)

// Known codes map to dedicated rules; every other valid code gets Default.
var (
	Known = map[string]promo.Rule{
		"BIRTHDAY": {DiscountType: promo.DiscountFreeLowest, Description: "Birthday: free lowest item"},
		"BUYGETON": {DiscountType: promo.DiscountFreeLowest, MinItems: 2, Description: "Lowest item free (buy 2+)"},
		"FIFTYOFF": {DiscountType: promo.DiscountPercentage, Value: decimal.NewFromInt(50), Description: "50% off entire order"},
		"GNULINUX": {DiscountType: promo.DiscountPercentage, Value: decimal.NewFromInt(15), Description: "Open source discount: 15% off"},
		"OVER9000": {DiscountType: promo.DiscountFixed, Value: decimal.NewFromInt(9), Description: "9 off your order"},
		"HAPPYHRS": {DiscountType: promo.DiscountPercentage, Value: decimal.NewFromInt(18), Description: "Happy Hours: 18% off"},
	}
	Default = promo.Rule{
		DiscountType: promo.DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		Description:  "Valid promo code: 10% off",
	}
)

// Rules builds the rule of every code.
func Rules(codes []string) []promo.Rule {
	rules := make([]promo.Rule, 0, len(codes))
	for _, code := range codes {
		r, ok := Known[code]
		if !ok {
			r = Default
		}
		r.Code = promo.NormalizeCode(code)
		rules = append(rules, r)
	}
	return rules
}
