package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const (
	EventsExchange        = "ecommerce.events"
	OrderPlacedRoutingKey = "storefront.order.placed.v1"
	publishTimeout        = 3 * time.Second
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn   *amqp.Connection
	ch     Channel
	logger *zap.Logger
	now    func() time.Time
}

// Dial connects to RabbitMQ and declares the events exchange.
func Dial(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisher(ch, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewPublisher(ch Channel, logger *zap.Logger) (*Publisher, error) {
	// Declare up front so publish never fails due to missing infra.
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}
	return &Publisher{ch: ch, logger: logging.OrNop(logger), now: time.Now}, nil
}

func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// OrderPlaced publishes storefront.order.placed.v1 for o.
func (p *Publisher) OrderPlaced(ctx context.Context, o clients.Order, deliveryMethod string) error {
	env := BuildOrderPlacedEnvelope(o, deliveryMethod, middleware.GetCorrelationID(ctx), p.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}
	if err := p.publishJSON(ctx, OrderPlacedRoutingKey, env.EventID, body); err != nil {
		return fmt.Errorf("publish OrderPlaced: %w", err)
	}
	p.logger.Debug("event published",
		zap.String("routing_key", OrderPlacedRoutingKey),
		zap.String("event_id", env.EventID),
	)
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
}
