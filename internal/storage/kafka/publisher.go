// Package kafka publishes order events to Kafka.
package kafka

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
)

// EventOrderPlaced is the type of the event written for every placed order.
const EventOrderPlaced = "order.placed"

var _ order.Publisher = (*Publisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config controls the Kafka writer.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// Publisher writes order events keyed by order id so events of one order
// stay on one partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates an asynchronous publisher. Delivery failures are
// reported to lg.
func NewPublisher(cfg Config, lg *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			lg.Warn("Deliver order events failed",
				zap.Int("messages", len(messages)),
				zap.Error(err),
			)
		},
		ErrorLogger: kafka.LoggerFunc(lg.Sugar().Errorf),
	}
	return &Publisher{writer: w}, nil
}

// PublishOrderPlaced enqueues an order.placed event for o.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, session string, o order.Order) error {
	msg := kafka.Message{
		Key:   []byte(o.ID.String()),
		Value: EncodeOrderPlaced(session, o),
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(EventOrderPlaced)},
		},
		Time: o.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "write order event")
	}
	return nil
}

// Close flushes pending events and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// EncodeOrderPlaced renders the event payload.
func EncodeOrderPlaced(session string, o order.Order) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("type")
	e.Str(EventOrderPlaced)
	e.FieldStart("session")
	e.Str(session)
	e.FieldStart("order")
	o.Encode(&e)
	e.ObjEnd()
	return e.Bytes()
}
