package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

const (
	SelectionKey    = "checkoutItems"
	ConfirmationKey = "lastOrder"

	deliveryLeadTime = 3 * 24 * time.Hour
	deliveryTime     = "18:00"
)

var (
	ErrNothingSelected = errors.New("select at least one item to check out")
	ErrEmptySelection  = errors.New("no items to check out")
	ErrNoOrderNumber   = errors.New("order was not created: no order number received from server")
	ErrNoConfirmation  = errors.New("no recent order")
)

type PromoLookup interface {
	PromocodeByName(ctx context.Context, name string) (clients.Promocode, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, in clients.OrderCreate) (clients.Order, error)
}

// Notifier is told about placed orders. Failures never fail the checkout.
type Notifier interface {
	OrderPlaced(ctx context.Context, order clients.Order, deliveryMethod string) error
}

type Deps struct {
	Store    storage.Store
	Cart     *cart.Store
	Promos   PromoLookup
	Orders   OrderCreator
	Notifier Notifier
	Logger   *zap.Logger
	Now      func() time.Time
}

// Flow is one visitor's checkout: selection snapshot, promo, delivery and submission.
type Flow struct {
	kv       storage.Store
	cart     *cart.Store
	promos   PromoLookup
	orders   OrderCreator
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.Mutex
	promo       *PromoApplication
	promoResult *PromoResult
	delivery    DeliveryMethod
}

func NewFlow(d Deps) *Flow {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Flow{
		kv:       d.Store,
		cart:     d.Cart,
		promos:   d.Promos,
		orders:   d.Orders,
		notifier: d.Notifier,
		logger:   logging.OrNop(d.Logger),
		now:      now,
		delivery: DeliveryPickup,
	}
}

type View struct {
	Items           []cart.Item       `json:"items"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount"`
	Total           decimal.Decimal   `json:"total"`
	Promo           *PromoApplication `json:"promo,omitempty"`
	PromoResult     *PromoResult      `json:"promoResult,omitempty"`
	Delivery        DeliveryMethod    `json:"delivery"`
	AddressRequired bool              `json:"addressRequired"`
}

// Start snapshots the selected cart lines as the checkout selection and
// forgets any promo or delivery choice from an earlier attempt.
func (f *Flow) Start(ctx context.Context) ([]cart.Item, error) {
	selected, err := f.cart.Selected(ctx)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrNothingSelected
	}

	raw, err := json.Marshal(selected)
	if err != nil {
		return nil, fmt.Errorf("encode selection: %w", err)
	}
	if err := f.kv.Set(ctx, SelectionKey, raw); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}

	f.mu.Lock()
	f.resetLocked()
	f.mu.Unlock()
	return selected, nil
}

// Load returns ErrEmptySelection when there is nothing to check out,
// including when the stored selection is unreadable.
func (f *Flow) Load(ctx context.Context) (View, error) {
	items, err := f.selection(ctx)
	if err != nil {
		return View{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked(items), nil
}

// ApplyPromo looks up code and applies it to the selection. Every attempt
// starts by dropping the previous discount; failures leave it at zero.
func (f *Flow) ApplyPromo(ctx context.Context, code string) (View, error) {
	items, err := f.selection(ctx)
	if err != nil {
		return View{}, err
	}
	subtotal := Subtotal(items)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.promo = nil

	code = NormalizeCode(code)
	if code == "" {
		f.promoResult = &PromoResult{Status: PromoEmpty, Message: "please enter a promo code"}
		return f.viewLocked(items), nil
	}

	p, err := f.promos.PromocodeByName(ctx, code)
	if err != nil {
		status := PromoFailed
		if clients.StatusOf(err) == http.StatusNotFound {
			status = PromoNotFound
		}
		f.logger.Info("promo lookup failed", zap.String("code", code), zap.Error(err))
		f.promoResult = &PromoResult{Status: status, Message: clients.MessageOf(err)}
		return f.viewLocked(items), nil
	}

	app, res := evaluatePromo(p, subtotal)
	f.promo = app
	f.promoResult = &res
	return f.viewLocked(items), nil
}

func (f *Flow) SetDelivery(method DeliveryMethod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivery = method
}

// Submit validates the form, places the order and, only once the order has a
// number, records the confirmation and clears the cart and selection.
// On any failure before that point all state is left as it was.
func (f *Flow) Submit(ctx context.Context, contact Contact) (Confirmation, error) {
	items, err := f.selection(ctx)
	if err != nil {
		return Confirmation{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := contact.Validate(f.delivery); err != nil {
		return Confirmation{}, err
	}

	payload := clients.OrderCreate{
		CustomerSurname:     strings.TrimSpace(contact.Surname),
		CustomerFirstName:   strings.TrimSpace(contact.FirstName),
		CustomerEmail:       strings.TrimSpace(contact.Email),
		CustomerPhoneNumber: strings.TrimSpace(contact.Phone),
		Items:               make([]clients.OrderItemCreate, 0, len(items)),
	}
	if f.promo != nil {
		name := f.promo.Name
		payload.PromocodeNameApplied = &name
	}
	for _, it := range items {
		payload.Items = append(payload.Items, clients.OrderItemCreate{
			ProductID:   it.ID,
			Quantity:    it.Quantity,
			Name:        it.Name,
			PricePerOne: it.Price,
		})
	}

	order, err := f.orders.CreateOrder(ctx, payload)
	if err != nil {
		return Confirmation{}, err
	}
	if order.Number == "" {
		return Confirmation{}, ErrNoOrderNumber
	}

	conf := Confirmation{
		OrderNumber:    order.Number,
		Total:          order.TotalCostWithPromo,
		DeliveryMethod: f.delivery,
		DeliveryDate:   f.now().Add(deliveryLeadTime).Format("02.01.2006"),
		DeliveryTime:   deliveryTime,
	}
	if f.delivery == DeliveryPost {
		conf.Address = strings.TrimSpace(contact.Address)
	}

	log := f.logger.With(zap.String("order_number", order.Number))
	log.Info("order placed", zap.Int("lines", len(items)))

	// The order exists upstream now; local cleanup failures are logged, not returned.
	if err := saveConfirmation(ctx, f.kv, conf); err != nil {
		log.Warn("save confirmation", zap.Error(err))
	}
	if err := f.cart.Clear(ctx); err != nil {
		log.Warn("clear cart", zap.Error(err))
	}
	if err := f.kv.Remove(ctx, SelectionKey); err != nil {
		log.Warn("remove selection", zap.Error(err))
	}
	f.resetLocked()

	if f.notifier != nil {
		if err := f.notifier.OrderPlaced(ctx, order, string(conf.DeliveryMethod)); err != nil {
			log.Warn("publish order placed", zap.Error(err))
		}
	}
	return conf, nil
}

func (f *Flow) selection(ctx context.Context) ([]cart.Item, error) {
	raw, err := f.kv.Get(ctx, SelectionKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrEmptySelection
		}
		return nil, fmt.Errorf("load selection: %w", err)
	}
	items, err := cart.Decode(raw)
	if err != nil {
		f.logger.Warn("discarding unreadable checkout selection", zap.Error(err))
		return nil, ErrEmptySelection
	}
	if len(items) == 0 {
		return nil, ErrEmptySelection
	}
	return items, nil
}

func (f *Flow) resetLocked() {
	f.promo = nil
	f.promoResult = nil
	f.delivery = DeliveryPickup
}

func (f *Flow) viewLocked(items []cart.Item) View {
	subtotal := Subtotal(items)
	discount := decimal.Zero
	if f.promo != nil {
		discount = f.promo.Discount
	}
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return View{
		Items:           items,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           total,
		Promo:           f.promo,
		PromoResult:     f.promoResult,
		Delivery:        f.delivery,
		AddressRequired: f.delivery == DeliveryPost,
	}
}

// Subtotal is Σ price × quantity.
func Subtotal(items []cart.Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
