package catalog

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
)

const DefaultPageSize = 9

type Fetcher interface {
	ListProducts(ctx context.Context, skip, limit int, filters map[string]string) (clients.Page[clients.ProductSummary], error)
}

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateExhausted State = "exhausted"
)

// View is a snapshot of the loader for rendering.
type View struct {
	Products []clients.ProductSummary `json:"products"`
	Filters  map[string]string        `json:"filters"`
	// Query mirrors Filters as a location query string, for bookmarking.
	Query     string `json:"query"`
	NextPage  int    `json:"nextPage"`
	State     State  `json:"state"`
	Error     string `json:"error,omitempty"`
	PageSize  int    `json:"pageSize"`
	Remaining *int   `json:"remaining,omitempty"`
}

// Loader accumulates catalog pages for "load more" browsing.
//
// The mutex guards state only; it is not held across the upstream call. A
// slow page-1 response can therefore land after a later filter change and
// append stale products. In-flight requests are not cancelled.
type Loader struct {
	fetcher Fetcher
	limit   int
	logger  *zap.Logger

	mu        sync.Mutex
	filters   map[string]string
	page      int
	loading   bool
	exhausted bool
	products  []clients.ProductSummary
	total     *int
	errMsg    string
}

func NewLoader(f Fetcher, limit int, logger *zap.Logger) *Loader {
	if limit < 1 {
		limit = DefaultPageSize
	}
	return &Loader{
		fetcher: f,
		limit:   limit,
		logger:  logging.OrNop(logger),
		filters: map[string]string{},
		page:    1,
	}
}

// Init starts a fresh browse seeded from a location query. Pagination keys are ignored.
func (l *Loader) Init(ctx context.Context, q url.Values) View {
	l.mu.Lock()
	l.filters = FiltersFromQuery(q)
	l.resetLocked()
	l.mu.Unlock()

	return l.fetch(ctx, true)
}

// ApplyFilters merges updates into the active filters (an empty value drops
// the key), restarts from page 1 and fetches it.
func (l *Loader) ApplyFilters(ctx context.Context, updates map[string]string) View {
	l.mu.Lock()
	l.filters = MergeFilters(l.filters, updates)
	l.resetLocked()
	l.mu.Unlock()

	return l.fetch(ctx, true)
}

// ToggleFilter clears key when it already equals value and sets it otherwise.
func (l *Loader) ToggleFilter(ctx context.Context, key, value string) View {
	l.mu.Lock()
	active := l.filters[key] == value
	l.mu.Unlock()

	if active {
		value = ""
	}
	return l.ApplyFilters(ctx, map[string]string{key: value})
}

func (l *Loader) ResetFilters(ctx context.Context) View {
	l.mu.Lock()
	l.filters = map[string]string{}
	l.resetLocked()
	l.mu.Unlock()

	return l.fetch(ctx, true)
}

// FetchNextPage is a no-op while a page is loading or once the catalog is exhausted.
func (l *Loader) FetchNextPage(ctx context.Context) View {
	return l.fetch(ctx, false)
}

func (l *Loader) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

func (l *Loader) resetLocked() {
	l.page = 1
	l.exhausted = false
	l.products = nil
	l.total = nil
	l.errMsg = ""
}

// fetch loads the page at the cursor. restart bypasses the loading guard so a
// filter change is never swallowed by an older in-flight request.
func (l *Loader) fetch(ctx context.Context, restart bool) View {
	l.mu.Lock()
	if !restart && (l.loading || l.exhausted) {
		defer l.mu.Unlock()
		return l.viewLocked()
	}
	l.loading = true
	page := l.page
	filters := copyFilters(l.filters)
	l.mu.Unlock()

	res, err := l.fetcher.ListProducts(ctx, (page-1)*l.limit, l.limit, filters)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false

	if err != nil {
		if page == 1 {
			l.errMsg = clients.MessageOf(err)
			l.logger.Warn("catalog load failed", zap.Int("page", page), zap.Error(err))
		} else {
			l.logger.Debug("catalog load more failed", zap.Int("page", page), zap.Error(err))
		}
		return l.viewLocked()
	}

	l.errMsg = ""
	l.products = append(l.products, res.Items...)
	if res.Page != nil && *res.Page > 0 {
		l.page = *res.Page + 1
	} else {
		l.page = page + 1
	}
	if res.TotalCount != nil {
		l.total = res.TotalCount
	}

	cumulative := (page-1)*l.limit + len(res.Items)
	if len(res.Items) < l.limit || (res.TotalCount != nil && cumulative >= *res.TotalCount) {
		l.exhausted = true
	}
	return l.viewLocked()
}

func (l *Loader) viewLocked() View {
	v := View{
		Products: append([]clients.ProductSummary(nil), l.products...),
		Filters:  copyFilters(l.filters),
		Query:    QueryFromFilters(l.filters).Encode(),
		NextPage: l.page,
		State:    StateIdle,
		Error:    l.errMsg,
		PageSize: l.limit,
	}
	if v.Products == nil {
		v.Products = []clients.ProductSummary{}
	}
	switch {
	case l.loading:
		v.State = StateLoading
	case l.exhausted:
		v.State = StateExhausted
	}
	if l.total != nil {
		remaining := *l.total - len(l.products)
		if remaining < 0 {
			remaining = 0
		}
		v.Remaining = &remaining
	}
	return v
}
