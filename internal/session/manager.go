package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

type Deps struct {
	Backend  storage.Backend
	Products catalog.Fetcher
	Promos   checkout.PromoLookup
	Orders   checkout.OrderCreator
	Notifier checkout.Notifier
	Auth     admin.Authenticator
	// Admin is the admin service client without credentials; each session
	// derives its own authenticated copy.
	Admin *clients.Client

	CatalogPageSize int
	AdminPageSize   int
	SearchDelay     time.Duration
	// MaxLive caps live sessions; the least recently seen is evicted first.
	// Zero means no cap.
	MaxLive int
	Logger          *zap.Logger
	Now             func() time.Time
}

// Manager hands out live sessions by id and evicts idle ones.
type Manager struct {
	deps   Deps
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(d Deps) *Manager {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		deps:     d,
		logger:   logging.OrNop(d.Logger),
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session for id, building it on first use.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		if limit := m.deps.MaxLive; limit > 0 && len(m.sessions) >= limit {
			m.evictOldestLocked()
		}
		s = m.build(id)
		m.sessions[id] = s
	}
	s.touch(m.now())
	return s
}

func (m *Manager) build(id string) *Session {
	d := m.deps
	log := m.logger.With(zap.String("session_id", id))
	kv := storage.Scope(d.Backend, id)

	s := &Session{ID: id, KV: kv}
	s.cartCount.Store(-1)

	s.Cart = cart.NewStore(kv, log)
	s.unsubscribe = s.Cart.Subscribe(func(sum cart.Summary) {
		s.cartCount.Store(int64(sum.TotalQuantity))
	})
	s.Catalog = catalog.NewLoader(d.Products, d.CatalogPageSize, log)
	s.Checkout = checkout.NewFlow(checkout.Deps{
		Store:    kv,
		Cart:     s.Cart,
		Promos:   d.Promos,
		Orders:   d.Orders,
		Notifier: d.Notifier,
		Logger:   log,
		Now:      d.Now,
	})

	s.Admin = admin.NewSession(kv, d.Auth, log)
	if d.Admin != nil {
		authed := d.Admin.WithTokens(s.Admin, logUnauthorized(log, id))
		s.Products = admin.NewProductManager(clients.NewAdminProductClient(authed), admin.ContextConfirmer, d.AdminPageSize, log)
		s.Orders = admin.NewOrderManager(clients.NewAdminOrderClient(authed), admin.ContextConfirmer, d.AdminPageSize, log)
		s.ProductSearch = admin.NewSearchBox(d.SearchDelay, s.searchProducts)
		s.OrderSearch = admin.NewSearchBox(d.SearchDelay, s.searchOrders)
	}
	return s
}

// Sweep drops sessions idle for longer than idle. Persisted state is kept.
func (m *Manager) Sweep(idle time.Duration) int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > idle {
			s.close()
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// evictOldestLocked drops the least recently seen session. Persisted state is kept.
func (m *Manager) evictOldestLocked() {
	now := m.now()
	var oldest string
	idle := time.Duration(-1)
	for id, s := range m.sessions {
		if d := s.idleSince(now); d > idle {
			oldest, idle = id, d
		}
	}
	if idle < 0 {
		return
	}
	m.sessions[oldest].close()
	delete(m.sessions, oldest)
	m.logger.Debug("evicted least recently seen session", zap.String("session_id", oldest), zap.Duration("idle", idle))
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, idle time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := m.Sweep(idle); n > 0 {
				m.logger.Debug("evicted idle sessions", zap.Int("count", n), zap.Int("live", m.Len()))
			}
		}
	}
}
