package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newManager(t *testing.T, backend storage.Backend, clk *clock) *Manager {
	t.Helper()
	return NewManager(Deps{
		Backend:         backend,
		CatalogPageSize: 9,
		AdminPageSize:   10,
		SearchDelay:     10 * time.Millisecond,
		Now:             clk.Now,
	})
}

func TestGetReusesLiveSession(t *testing.T) {
	m := newManager(t, storage.NewMemory(), &clock{t: time.Now()})

	a := m.Get("s-1")
	require.Same(t, a, m.Get("s-1"))
	require.NotSame(t, a, m.Get("s-2"))
	require.Equal(t, 2, m.Len())
	require.Equal(t, "s-1", a.KV.Namespace())
}

func TestSweepKeepsPersistedState(t *testing.T) {
	backend := storage.NewMemory()
	clk := &clock{t: time.Now()}
	m := newManager(t, backend, clk)
	ctx := context.Background()

	s := m.Get("s-1")
	require.NoError(t, s.Cart.AddItem(ctx, cart.Item{ID: "p-1", Name: "Bulb", Price: decimal.NewFromInt(5)}, 2))

	clk.Advance(10 * time.Minute)
	m.Get("s-2")
	clk.Advance(25 * time.Minute)

	require.Equal(t, 1, m.Sweep(30*time.Minute))
	require.Equal(t, 1, m.Len())

	fresh := m.Get("s-1")
	require.NotSame(t, s, fresh)
	items, err := fresh.Cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, fresh.CartCount(ctx))
}

func TestLiveSessionsAreCapped(t *testing.T) {
	backend := storage.NewMemory()
	clk := &clock{t: time.Now()}
	m := NewManager(Deps{
		Backend:         backend,
		CatalogPageSize: 9,
		AdminPageSize:   10,
		MaxLive:         2,
		Now:             clk.Now,
	})
	ctx := context.Background()

	first := m.Get("s-1")
	require.NoError(t, first.Cart.AddItem(ctx, cart.Item{ID: "p-1", Name: "Bulb", Price: decimal.NewFromInt(5)}, 1))
	clk.Advance(time.Minute)
	m.Get("s-2")
	clk.Advance(time.Minute)
	m.Get("s-3")
	require.Equal(t, 2, m.Len())

	// s-2 is now the least recently seen.
	clk.Advance(time.Minute)
	m.Get("s-3")
	m.Get("s-1")
	require.Equal(t, 2, m.Len())

	again := m.Get("s-1")
	require.NotSame(t, first, again)
	require.Equal(t, 1, again.CartCount(ctx))
}

func TestCartCountFollowsMutations(t *testing.T) {
	m := newManager(t, storage.NewMemory(), &clock{t: time.Now()})
	ctx := context.Background()
	s := m.Get("s-1")

	require.Equal(t, 0, s.CartCount(ctx))
	require.NoError(t, s.Cart.AddItem(ctx, cart.Item{ID: "p-1", Name: "Bulb", Price: decimal.NewFromInt(5)}, 3))
	require.Equal(t, 3, s.CartCount(ctx))
	require.NoError(t, s.Cart.Decrement(ctx, "p-1"))
	require.Equal(t, 2, s.CartCount(ctx))
	require.NoError(t, s.Cart.Clear(ctx))
	require.Equal(t, 0, s.CartCount(ctx))
}

func TestRunStopsWithContext(t *testing.T) {
	m := newManager(t, storage.NewMemory(), &clock{t: time.Now()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond, time.Hour) }()
	cancel()
	require.NoError(t, <-done)
}

func TestOrderQueryRoundTrip(t *testing.T) {
	q := decodeOrderQuery(encodeOrderQuery("NEW", "smith"))
	require.Equal(t, orderQuery{status: "NEW", search: "smith"}, q)
	require.Equal(t, orderQuery{search: "plain"}, decodeOrderQuery("plain"))
}

func TestAdminSearchUsesSessionToken(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[],"total_count":0,"page":1,"limit":10,"pages":0}`))
	}))
	t.Cleanup(srv.Close)

	backend := storage.NewMemory()
	m := NewManager(Deps{
		Backend:     backend,
		Admin:       clients.NewClient("admin", srv.URL+"/api/v1", srv.Client(), nil),
		SearchDelay: 5 * time.Millisecond,
	})
	ctx := context.Background()
	require.NoError(t, backend.Save(ctx, "s-1", "adminToken", []byte("tok")))

	s := m.Get("s-1")
	list, err := s.SearchOrders(ctx, "shipped", "ann")
	require.NoError(t, err)
	require.Empty(t, list.Items)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Contains(t, gotQuery, "status=SHIPPED")
	require.Contains(t, gotQuery, "search=ann")
	require.Contains(t, gotQuery, "skip=0")
}
