package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
)

const (
	orderPlacedEventName    = "OrderPlaced"
	orderPlacedEventVersion = 1
	producerName            = "storefront"
)

type OrderPlacedItem struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	PricePerOne decimal.Decimal `json:"pricePerOne"`
}

type OrderPlacedPayload struct {
	OrderID            string            `json:"orderId"`
	Number             string            `json:"number"`
	Status             string            `json:"status"`
	CustomerEmail      string            `json:"customerEmail"`
	DeliveryMethod     string            `json:"deliveryMethod"`
	Promocode          string            `json:"promocode,omitempty"`
	TotalCost          decimal.Decimal   `json:"totalCost"`
	TotalCostWithPromo decimal.Decimal   `json:"totalCostWithPromo"`
	Items              []OrderPlacedItem `json:"items"`
}

type OrderPlacedEnvelope = Envelope[OrderPlacedPayload]

// BuildOrderPlacedEnvelope wraps o for publishing. The order number is the
// partition key so every event about one order lands in order.
func BuildOrderPlacedEnvelope(o clients.Order, deliveryMethod, correlationID string, now time.Time) OrderPlacedEnvelope {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	items := make([]OrderPlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedItem{
			ProductID:   it.ProductID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			PricePerOne: it.PricePerOne,
		})
	}
	promo := ""
	if o.PromocodeNameApplied != nil {
		promo = *o.PromocodeNameApplied
	}

	return OrderPlacedEnvelope{
		EventName:     orderPlacedEventName,
		EventVersion:  orderPlacedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producerName,
		PartitionKey:  o.Number,
		OccurredAt:    now.UTC(),
		Payload: OrderPlacedPayload{
			OrderID:            o.OrderID,
			Number:             o.Number,
			Status:             o.Status,
			CustomerEmail:      o.CustomerEmail,
			DeliveryMethod:     deliveryMethod,
			Promocode:          promo,
			TotalCost:          o.TotalCost,
			TotalCostWithPromo: o.TotalCostWithPromo,
			Items:              items,
		},
	}
}
