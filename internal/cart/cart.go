package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

const (
	StorageKey   = "lampochkaShopCart"
	DefaultImage = "https://placehold.co/100x100/e9ecef/adb5bd?text=N/A"
	// MaxQuantity caps a single line.
	MaxQuantity = 99
)

var ErrInvalidItem = errors.New("cart item needs an id and a name")

type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Selected bool            `json:"selected"`
}

// MarshalJSON writes the price as a JSON number, the shape stored blobs have always used.
func (it Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(it), json.Number(it.Price.String())})
}

func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Store is the persisted cart. Every mutation reads the whole collection,
// changes it and writes it back.
type Store struct {
	kv     storage.Store
	logger *zap.Logger

	mu sync.Mutex

	lmu       sync.Mutex
	nextID    int
	listeners map[int]func(Summary)
}

func NewStore(kv storage.Store, logger *zap.Logger) *Store {
	return &Store{
		kv:        kv,
		logger:    logging.OrNop(logger),
		listeners: make(map[int]func(Summary)),
	}
}

// Subscribe registers fn to receive the summary after every persisted mutation.
func (s *Store) Subscribe(fn func(Summary)) (unsubscribe func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// Items returns the current cart. A blob that does not decode reads as an empty cart.
func (s *Store) Items(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Selected(ctx context.Context) ([]Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}

// AddItem merges qty into an existing line or appends a new selected line.
// qty below 1 counts as 1 and a line never grows past MaxQuantity.
func (s *Store) AddItem(ctx context.Context, item Item, qty int) error {
	if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Name) == "" {
		return ErrInvalidItem
	}
	qty = ClampQuantity(qty)
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		if i := indexOf(items, item.ID); i >= 0 {
			items[i].Quantity = addQuantity(items[i].Quantity, qty)
			return items, true
		}
		image := item.Image
		if image == "" {
			image = DefaultImage
		}
		return append(items, Item{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Image:    image,
			Quantity: qty,
			Selected: true,
		}), true
	})
}

// SetQuantity sets a line's quantity, capped at MaxQuantity; zero or less
// removes the line. Unknown ids are ignored.
func (s *Store) SetQuantity(ctx context.Context, id string, qty int) error {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		if qty > 0 {
			items[i].Quantity = ClampQuantity(qty)
			return items, true
		}
		return append(items[:i], items[i+1:]...), true
	})
}

func (s *Store) Increment(ctx context.Context, id string) error {
	return s.step(ctx, id, 1)
}

// Decrement lowers a line by one; a line at quantity 1 is removed.
func (s *Store) Decrement(ctx context.Context, id string) error {
	return s.step(ctx, id, -1)
}

func (s *Store) step(ctx context.Context, id string, delta int) error {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		qty := addQuantity(items[i].Quantity, delta)
		if qty <= 0 {
			return append(items[:i], items[i+1:]...), true
		}
		items[i].Quantity = qty
		return items, true
	})
}

func (s *Store) RemoveItem(ctx context.Context, id string) error {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out, true
	})
}

func (s *Store) SetSelected(ctx context.Context, id string, selected bool) error {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		items[i].Selected = selected
		return items, true
	})
}

func (s *Store) SetAllSelected(ctx context.Context, selected bool) error {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		for i := range items {
			items[i].Selected = selected
		}
		return items, true
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]Item) ([]Item, bool) {
		return []Item{}, true
	})
}

func (s *Store) mutate(ctx context.Context, fn func([]Item) ([]Item, bool)) error {
	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	items, changed := fn(items)
	if !changed {
		s.mu.Unlock()
		return nil
	}
	if err := s.save(ctx, items); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify(Summarize(items))
	return nil
}

func (s *Store) notify(sum Summary) {
	s.lmu.Lock()
	fns := make([]func(Summary), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(sum)
	}
}

func (s *Store) load(ctx context.Context) ([]Item, error) {
	raw, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	items, err := Decode(raw)
	if err != nil {
		s.logger.Warn("discarding unreadable cart", zap.String("session", s.kv.Namespace()), zap.Error(err))
		return []Item{}, nil
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Decode parses a persisted item list. A JSON null decodes to an empty list.
func Decode(raw []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func indexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// addQuantity adds delta without overflowing and caps the result at MaxQuantity.
func addQuantity(cur, delta int) int {
	if delta > 0 && cur > MaxQuantity-delta {
		return MaxQuantity
	}
	return min(cur+delta, MaxQuantity)
}

// ParseQuantity reads a quantity from form input, defaulting to 1.
func ParseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ClampQuantity bounds a selector value to [1, MaxQuantity].
func ClampQuantity(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	}
	return n
}
