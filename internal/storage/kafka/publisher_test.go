package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_PublishOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	o := order.Order{
		ID:        uuid.MustParse("0190a6b2-7c3e-7d41-9b7a-2f1d3c4b5a69"),
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		NewOrder:  order.NewOrder{Total: decimal.RequireFromString("12.5")},
	}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), "sess-1", o))
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, o.ID.String(), string(msg.Key))
	assert.Equal(t, o.CreatedAt, msg.Time)
	assert.True(t, w.closed)

	var typ, session string
	var total string
	err := jx.DecodeBytes(msg.Value).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "type":
			v, err := d.Str()
			typ = v
			return err
		case "session":
			v, err := d.Str()
			session = v
			return err
		case "order":
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "total" {
					return d.Skip()
				}
				n, err := d.Num()
				total = n.String()
				return err
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, EventOrderPlaced, typ)
	assert.Equal(t, "sess-1", session)
	assert.Equal(t, "12.5", total)
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(Config{Topic: "orders"}, zap.NewNop())
	require.Error(t, err)

	_, err = NewPublisher(Config{Brokers: []string{"localhost:9092"}}, zap.NewNop())
	require.Error(t, err)

	p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "orders"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
