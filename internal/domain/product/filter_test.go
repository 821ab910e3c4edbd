package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func titles(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Title
	}
	return out
}

func TestFilter(t *testing.T) {
	products := []Product{
		{ID: 1, Title: "Red Sneaker"},
		{ID: 2, Title: "Blue Shoe"},
		{ID: 3, Title: "Red Shoe Deluxe"},
		{ID: 4, Title: "Shoelace", Category: "accessories"},
		{ID: 5, Title: "C++ Primer", Category: "books"},
		{ID: 6, Title: "Червоні кросівки", Category: "взуття"},
		{ID: 7, Title: "Café Latte", Category: "drinks"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "every token must match", query: "red shoe", want: []string{"Red Shoe Deluxe"}},
		{name: "case insensitive", query: "BLUE", want: []string{"Blue Shoe"}},
		{name: "whole words only", query: "shoe", want: []string{"Blue Shoe", "Red Shoe Deluxe"}},
		{name: "extra whitespace", query: "  red \t  deluxe ", want: []string{"Red Shoe Deluxe"}},
		{name: "matches other fields", query: "accessories", want: []string{"Shoelace"}},
		{name: "regex metacharacters escaped", query: "c++", want: []string{"C++ Primer"}},
		{name: "symbol suffix still needs word start", query: "++", want: []string{"C++ Primer"}},
		{name: "cyrillic", query: "кросівки", want: []string{"Червоні кросівки"}},
		{name: "cyrillic case insensitive", query: "ЧЕРВОНІ", want: []string{"Червоні кросівки"}},
		{name: "cyrillic whole words only", query: "кросівк", want: []string{}},
		{name: "accented", query: "café", want: []string{"Café Latte"}},
		{name: "accented rune is a word rune", query: "caf", want: []string{}},
		{name: "unbalanced bracket does not panic", query: "shoe(", want: []string{}},
		{name: "no match", query: "sandal", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Filter(products, tt.query)))
		})
	}
}

func TestFilter_BlankQueryReturnsInput(t *testing.T) {
	products := []Product{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}}

	assert.Equal(t, products, Filter(products, ""))
	assert.Equal(t, products, Filter(products, "   "))
	assert.Empty(t, Filter(nil, "anything"))
}

func TestFilterCategory(t *testing.T) {
	products := []Product{
		{ID: 1, Title: "a", Category: "Shoes"},
		{ID: 2, Title: "b", Category: "hats"},
		{ID: 3, Title: "c", Category: "shoes"},
	}

	assert.Equal(t, []string{"a", "c"}, titles(FilterCategory(products, "shoes")))
	assert.Equal(t, products, FilterCategory(products, ""))
}

func TestSort(t *testing.T) {
	d := decimal.RequireFromString
	products := []Product{
		{ID: 1, Title: "banana", Price: d("3"), Rating: &Rating{Rate: d("4.1")}},
		{ID: 2, Title: "Apple", Price: d("1.5")},
		{ID: 3, Title: "cherry", Price: d("3"), Rating: &Rating{Rate: d("4.8")}},
	}

	assert.Equal(t, []string{"Apple", "banana", "cherry"}, titles(Sort(products, SortPriceAsc)))
	assert.Equal(t, []string{"banana", "cherry", "Apple"}, titles(Sort(products, SortPriceDesc)))
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, titles(Sort(products, SortTitle)))
	assert.Equal(t, []string{"cherry", "banana", "Apple"}, titles(Sort(products, SortRating)))
	assert.Equal(t, []string{"banana", "Apple", "cherry"}, titles(Sort(products, SortDefault)))

	// Input is not reordered.
	assert.Equal(t, int64(1), products[0].ID)

	assert.True(t, SortOrder("").Valid())
	assert.False(t, SortOrder("random").Valid())
}
