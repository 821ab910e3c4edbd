package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContact() Contact {
	return Contact{Email: "a@b.c", Phone: "123", FirstName: "A", LastName: "B", DialCode: "+7"}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		draft     Draft
		contact   Contact
		wantErr   error
		wantField string
	}{
		{
			name:    "courier with address",
			draft:   Draft{Delivery: DeliveryCourier, Payment: PaymentCard, City: "Oslo", Address: "Main 1"},
			contact: validContact(),
		},
		{
			name:    "pickup needs no address",
			draft:   Draft{Delivery: DeliveryPickup, Payment: PaymentCashOnDelivery},
			contact: validContact(),
		},
		{
			name:      "post needs city",
			draft:     Draft{Delivery: DeliveryPost, Payment: PaymentInvoice, Address: "Main 1"},
			contact:   validContact(),
			wantField: "city",
		},
		{
			name:      "blank email",
			draft:     Draft{Delivery: DeliveryPickup, Payment: PaymentCard},
			contact:   Contact{Phone: "1", FirstName: "A", LastName: "B", Email: "  "},
			wantField: "email",
		},
		{
			name:    "unknown delivery",
			draft:   Draft{Delivery: "drone", Payment: PaymentCard},
			contact: validContact(),
			wantErr: ErrInvalidDelivery,
		},
		{
			name:    "unknown payment",
			draft:   Draft{Delivery: DeliveryPickup, Payment: "barter"},
			contact: validContact(),
			wantErr: ErrInvalidPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.draft, tt.contact)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				var missing *MissingFieldError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, tt.wantField, missing.Field)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestDraftHolder(t *testing.T) {
	h := NewDraftHolder()
	assert.Equal(t, DeliveryCourier, h.Get().Delivery)

	city := "Lima"
	pickup := DeliveryPickup
	d := h.Update(DraftPatch{City: &city, Delivery: &pickup})
	assert.Equal(t, "Lima", d.City)
	assert.Equal(t, DeliveryPickup, d.Delivery)
	assert.Equal(t, PaymentCard, d.Payment)

	h.Reset()
	assert.Empty(t, h.Get().City)
}
