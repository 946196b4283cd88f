package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// Session is everything the storefront keeps for one visitor. Persisted
// state lives in KV; the rest is rebuilt lazily after an eviction.
type Session struct {
	ID string
	KV storage.Store

	Cart     *cart.Store
	Catalog  *catalog.Loader
	Checkout *checkout.Flow

	Admin         *admin.Session
	Products      *admin.ProductManager
	Orders        *admin.OrderManager
	ProductSearch *admin.SearchBox[admin.ProductList]
	OrderSearch   *admin.SearchBox[admin.OrderList]

	// mu serializes read-modify-write sequences on KV across requests.
	mu sync.Mutex

	lastSeen    atomic.Int64
	cartCount   atomic.Int64
	unsubscribe func()
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// CartCount is the header badge value. It is kept current by a cart
// subscription and read from storage the first time it is needed.
func (s *Session) CartCount(ctx context.Context) int {
	if n := s.cartCount.Load(); n >= 0 {
		return int(n)
	}
	sum, err := s.Cart.Summary(ctx)
	if err != nil {
		return 0
	}
	s.cartCount.CompareAndSwap(-1, int64(sum.TotalQuantity))
	return sum.TotalQuantity
}

func (s *Session) close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// searchProducts and searchOrders run from the debounced search boxes;
// searches always start at page 1.
func (s *Session) searchProducts(ctx context.Context, term string) (admin.ProductList, error) {
	return s.Products.List(ctx, 1, term)
}

type orderQuery struct {
	status, search string
}

func (s *Session) searchOrders(ctx context.Context, term string) (admin.OrderList, error) {
	q := decodeOrderQuery(term)
	return s.Orders.List(ctx, 1, q.status, q.search)
}

// The order search box debounces on status and text together.
func encodeOrderQuery(status, search string) string { return status + "\x00" + search }

func decodeOrderQuery(term string) orderQuery {
	for i := 0; i < len(term); i++ {
		if term[i] == 0 {
			return orderQuery{status: term[:i], search: term[i+1:]}
		}
	}
	return orderQuery{search: term}
}

// SearchOrders is the debounced order list search for status and text.
func (s *Session) SearchOrders(ctx context.Context, status, search string) (admin.OrderList, error) {
	return s.OrderSearch.Search(ctx, encodeOrderQuery(status, search))
}

func logUnauthorized(logger *zap.Logger, id string) func(context.Context) {
	return func(context.Context) {
		logger.Info("admin token rejected, session logged out", zap.String("session_id", id))
	}
}
