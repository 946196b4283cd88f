package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// Confirmation is what the order confirmation page shows.
type Confirmation struct {
	OrderNumber    string          `json:"orderNumber"`
	Total          decimal.Decimal `json:"total"`
	DeliveryMethod DeliveryMethod  `json:"deliveryMethod"`
	Address        string          `json:"address,omitempty"`
	DeliveryDate   string          `json:"deliveryDate"`
	DeliveryTime   string          `json:"deliveryTime"`
}

func saveConfirmation(ctx context.Context, kv storage.Store, c Confirmation) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode confirmation: %w", err)
	}
	return kv.Set(ctx, ConfirmationKey, raw)
}

// LoadConfirmation returns ErrNoConfirmation when no order was placed in this session.
func LoadConfirmation(ctx context.Context, kv storage.Store) (Confirmation, error) {
	raw, err := kv.Get(ctx, ConfirmationKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Confirmation{}, ErrNoConfirmation
		}
		return Confirmation{}, fmt.Errorf("load confirmation: %w", err)
	}
	var c Confirmation
	if err := json.Unmarshal(raw, &c); err != nil || c.OrderNumber == "" {
		return Confirmation{}, ErrNoConfirmation
	}
	return c, nil
}
