package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/persist"
)

func TestUnmarshal(t *testing.T) {
	const id = "0190a6b2-7c3e-7d41-9b7a-2f1d3c4b5a69"

	tests := []struct {
		name        string
		input       string
		wantOrders  int
		wantSkipped int
		wantErr     error
		check       func(t *testing.T, orders []Order)
	}{
		{name: "empty", input: ""},
		{
			name:       "legacy grand total and unix millis",
			input:      `[{"id":"` + id + `","created_at":1718000000000,"grand_total":42.5,"items":[{"product":{"id":1},"quantity":2},"junk"]}]`,
			wantOrders: 1,
			check: func(t *testing.T, orders []Order) {
				assert.True(t, decimal.RequireFromString("42.5").Equal(orders[0].Total))
				assert.Equal(t, int64(1718000000000), orders[0].CreatedAt.UnixMilli())
				assert.Len(t, orders[0].Lines, 1)
			},
		},
		{
			name:        "missing or duplicate id skipped",
			input:       `{"v":1,"items":[{"id":"nope"},{"id":"` + id + `"},{"id":"` + id + `"}]}`,
			wantOrders:  1,
			wantSkipped: 2,
		},
		{
			name:       "malformed nested blocks keep defaults",
			input:      `{"v":1,"items":[{"id":"` + id + `","contact":"x","shipping":[1],"total":{}}]}`,
			wantOrders: 1,
			check: func(t *testing.T, orders []Order) {
				assert.Equal(t, Contact{}, orders[0].Contact)
				assert.True(t, orders[0].Total.IsZero())
			},
		},
		{name: "newer version", input: `{"v":2}`, wantErr: persist.ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, skipped, err := Unmarshal([]byte(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, orders, tt.wantOrders)
			assert.Equal(t, tt.wantSkipped, skipped)
			if tt.check != nil {
				tt.check(t, orders)
			}
		})
	}
}
