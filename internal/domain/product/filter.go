package product

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Filter returns the products whose serialized form contains every
// whitespace-separated token of query as a whole word, case-insensitively.
// A blank query returns products unchanged. Order is preserved.
func Filter(products []Product, query string) []Product {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return products
	}

	patterns := make([]*regexp.Regexp, len(tokens))
	for i, tok := range tokens {
		patterns[i] = wordPattern(tok)
	}

	out := make([]Product, 0, len(products))
	var e jx.Encoder
	for _, p := range products {
		e.Reset()
		p.Encode(&e)
		text := strings.ToLower(string(e.Bytes()))

		if matchAll(text, patterns) {
			out = append(out, p)
		}
	}
	return out
}

// Word boundaries in Unicode terms; regexp's \b only knows ASCII.
const (
	wordStart = `(?:^|[^\pL\pN_])`
	wordEnd   = `(?:[^\pL\pN_]|$)`
)

// wordPattern matches tok as a whole word. A boundary is only required on
// a side where tok itself ends in a word rune, so "c++" matches "c++ primer".
func wordPattern(tok string) *regexp.Regexp {
	var b strings.Builder
	first, _ := utf8.DecodeRuneInString(tok)
	last, _ := utf8.DecodeLastRuneInString(tok)
	if isWordRune(first) {
		b.WriteString(wordStart)
	}
	b.WriteString(regexp.QuoteMeta(tok))
	if isWordRune(last) {
		b.WriteString(wordEnd)
	}
	return regexp.MustCompile(b.String())
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func matchAll(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if !re.MatchString(text) {
			return false
		}
	}
	return true
}

// FilterCategory returns the products of the given category. Matching is
// case-insensitive; an empty category returns products unchanged.
func FilterCategory(products []Product, category string) []Product {
	if category == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// SortOrder selects the ordering of a catalog view.
type SortOrder string

const (
	SortDefault   SortOrder = "default"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortTitle     SortOrder = "title"
	SortRating    SortOrder = "rating"
)

// Valid reports whether o is a known sort order. The empty order is valid
// and means SortDefault.
func (o SortOrder) Valid() bool {
	switch o {
	case "", SortDefault, SortPriceAsc, SortPriceDesc, SortTitle, SortRating:
		return true
	default:
		return false
	}
}

// Sort returns a sorted copy of products. Equal elements keep their
// relative order.
func Sort(products []Product, order SortOrder) []Product {
	out := slices.Clone(products)

	var less func(a, b Product) int
	switch order {
	case SortPriceAsc:
		less = func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceDesc:
		less = func(a, b Product) int { return b.Price.Cmp(a.Price) }
	case SortTitle:
		less = func(a, b Product) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortRating:
		// Highest rated first, unrated last.
		less = func(a, b Product) int { return rateOf(b).Cmp(rateOf(a)) }
	default:
		return out
	}

	slices.SortStableFunc(out, less)
	return out
}

// unrated sorts below any real rating.
var unrated = decimal.NewFromInt(-1)

func rateOf(p Product) decimal.Decimal {
	if p.Rating == nil {
		return unrated
	}
	return p.Rating.Rate
}
