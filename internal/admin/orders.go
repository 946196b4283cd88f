package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
)

var ErrUnknownStatus = errors.New("unknown order status")

// OrderStatuses is every status the order service accepts, in display order.
var OrderStatuses = []string{
	"NEW",
	"PROCESSING",
	"SHIPPED",
	"DELIVERED",
	"COMPLETED",
	"CANCELLED",
	"AWAITING_PAYMENT",
	"PAYMENT_FAILED",
	"REFUNDED",
	"ON_HOLD",
	"PARTIALLY_SHIPPED",
}

// ParseStatus upper-cases s and checks it against OrderStatuses.
func ParseStatus(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, known := range OrderStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStatus, s)
}

type OrderAPI interface {
	List(ctx context.Context, skip, limit int, status, search string) (clients.Page[clients.OrderSummary], error)
	Get(ctx context.Context, id string) (clients.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (clients.Order, error)
}

type OrderList struct {
	Items []clients.OrderSummary `json:"items"`
	PageInfo
}

type OrderManager struct {
	api     OrderAPI
	confirm Confirmer
	perPage int
	logger  *zap.Logger
}

func NewOrderManager(api OrderAPI, confirm Confirmer, perPage int, logger *zap.Logger) *OrderManager {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &OrderManager{api: api, confirm: confirm, perPage: perPage, logger: logging.OrNop(logger)}
}

// List filters by status when it is non-empty. An unknown status is rejected locally.
func (m *OrderManager) List(ctx context.Context, page int, status, search string) (OrderList, error) {
	if status != "" {
		var err error
		if status, err = ParseStatus(status); err != nil {
			return OrderList{}, err
		}
	}
	page = normalizePage(page)
	res, err := m.api.List(ctx, (page-1)*m.perPage, m.perPage, status, search)
	if err != nil {
		return OrderList{}, err
	}
	items := res.Items
	if items == nil {
		items = []clients.OrderSummary{}
	}
	return OrderList{Items: items, PageInfo: pageInfo(res, page, m.perPage)}, nil
}

func (m *OrderManager) Get(ctx context.Context, id string) (clients.Order, error) {
	return m.api.Get(ctx, id)
}

func (m *OrderManager) ChangeStatus(ctx context.Context, id, status string) (clients.Order, error) {
	status, err := ParseStatus(status)
	if err != nil {
		return clients.Order{}, err
	}
	if err := ask(ctx, m.confirm, fmt.Sprintf("change order %s status to %s", id, status)); err != nil {
		return clients.Order{}, err
	}
	o, err := m.api.UpdateStatus(ctx, id, status)
	if err != nil {
		return clients.Order{}, err
	}
	m.logger.Info("order status changed", zap.String("order_id", id), zap.String("status", status))
	return o, nil
}
