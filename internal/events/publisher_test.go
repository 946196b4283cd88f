package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type declared struct {
	name, kind string
	durable    bool
}

type published struct {
	exchange, key string
	msg           amqp.Publishing
	hasDeadline   bool
}

type fakeChannel struct {
	declares   []declared
	publishes  []published
	declareErr error
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.declares = append(f.declares, declared{name: name, kind: kind, durable: durable})
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	_, ok := ctx.Deadline()
	f.publishes = append(f.publishes, published{exchange: exchange, key: key, msg: msg, hasDeadline: ok})
	return f.publishErr
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleOrder() clients.Order {
	promo := "SALE10"
	return clients.Order{
		OrderID:              "o-1",
		Number:               "A-100",
		Status:               "NEW",
		CustomerEmail:        "ann@example.com",
		PromocodeNameApplied: &promo,
		TotalCost:            decimal.RequireFromString("30"),
		TotalCostWithPromo:   decimal.RequireFromString("27"),
		Items: []clients.OrderItem{
			{ProductID: "p-1", Name: "Bulb", Quantity: 3, PricePerOne: decimal.RequireFromString("10")},
		},
	}
}

func TestNewPublisherDeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := NewPublisher(ch, nil)
	require.NoError(t, err)
	require.Equal(t, []declared{{name: EventsExchange, kind: "topic", durable: true}}, ch.declares)

	_, err = NewPublisher(&fakeChannel{declareErr: errors.New("access refused")}, nil)
	require.ErrorContains(t, err, "access refused")
}

func TestOrderPlacedPublishesEnvelope(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, nil)
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	ctx := middleware.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, p.OrderPlaced(ctx, sampleOrder(), "post"))

	require.Len(t, ch.publishes, 1)
	pub := ch.publishes[0]
	require.Equal(t, EventsExchange, pub.exchange)
	require.Equal(t, OrderPlacedRoutingKey, pub.key)
	require.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	require.Equal(t, "application/json", pub.msg.ContentType)
	require.True(t, pub.hasDeadline)

	var env OrderPlacedEnvelope
	require.NoError(t, json.Unmarshal(pub.msg.Body, &env))
	require.NoError(t, env.Validate("OrderPlaced", 1))
	require.Equal(t, pub.msg.MessageId, env.EventID)
	require.Equal(t, "corr-1", env.CorrelationID)
	require.Equal(t, "A-100", env.PartitionKey)
	require.Equal(t, "storefront", env.Producer)
	require.Equal(t, "post", env.Payload.DeliveryMethod)
	require.Equal(t, "SALE10", env.Payload.Promocode)
	require.True(t, env.Payload.TotalCostWithPromo.Equal(decimal.NewFromInt(27)))
	require.Len(t, env.Payload.Items, 1)
	require.Equal(t, 3, env.Payload.Items[0].Quantity)
}

func TestOrderPlacedPublishFailure(t *testing.T) {
	ch := &fakeChannel{publishErr: amqp.ErrClosed}
	p, err := NewPublisher(ch, nil)
	require.NoError(t, err)

	err = p.OrderPlaced(context.Background(), sampleOrder(), "pickup")
	require.ErrorIs(t, err, amqp.ErrClosed)

	require.NoError(t, p.Close())
	require.True(t, ch.closed)
}

func TestBuildEnvelopeGeneratesCorrelationID(t *testing.T) {
	o := sampleOrder()
	o.PromocodeNameApplied = nil
	env := BuildOrderPlacedEnvelope(o, "pickup", "", time.Now())
	require.NotEmpty(t, env.CorrelationID)
	require.NotEqual(t, env.CorrelationID, env.EventID)
	require.Empty(t, env.Payload.Promocode)

	env.PartitionKey = ""
	require.Error(t, env.Validate("OrderPlaced", 1))
	require.Error(t, env.Validate("OrderShipped", 1))
}
