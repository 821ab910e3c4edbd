package catalogseed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = `[
  {"id":1,"title":"Backpack","price":109.95,"description":"Fits 15 inch laptops","category":"men's clothing",
   "image":"https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg","rating":{"rate":3.9,"count":120}},
  {"id":"2","title":"Slim Fit T-Shirt","price":"22.3","category":"men's clothing","extra":true}
]`

func TestDecode(t *testing.T) {
	products, err := Decode(strings.NewReader(catalog))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "109.95", products[0].Price.String())
	require.NotNil(t, products[0].Rating)
	assert.Equal(t, int64(120), products[0].Rating.Count)

	assert.Equal(t, int64(2), products[1].ID)
	assert.Equal(t, "22.3", products[1].Price.String())
	assert.Nil(t, products[1].Rating)
}

func TestDecode_Invalid(t *testing.T) {
	for name, input := range map[string]string{
		"NotArray":  `{"id":1}`,
		"NoID":      `[{"title":"x","price":1}]`,
		"Negative":  `[{"id":1,"price":-1}]`,
		"Duplicate": `[{"id":1,"price":1},{"id":1,"price":2}]`,
		"Truncated": `[{"id":1`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(catalog))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	products, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestPromos(t *testing.T) {
	for _, r := range Promos() {
		assert.True(t, r.DiscountType.Valid(), r.Code)
		assert.NotEmpty(t, r.Description)
	}
}
