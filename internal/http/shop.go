package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

const headerCartCount = "X-Cart-Count"

// Catalog starts a fresh browse from the request query, as a page load does.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	v := h.session(r).Catalog.Init(r.Context(), r.URL.Query())
	h.writeCatalog(w, v)
}

func (h *Handler) CatalogMore(w http.ResponseWriter, r *http.Request) {
	v := h.session(r).Catalog.FetchNextPage(r.Context())
	h.writeCatalog(w, v)
}

func (h *Handler) CatalogFilters(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := decodeJSON(r, &updates); err != nil {
		h.writeError(w, r, err)
		return
	}
	v := h.session(r).Catalog.ApplyFilters(r.Context(), updates)
	h.writeCatalog(w, v)
}

type toggleRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *Handler) CatalogToggleFilter(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil || req.Key == "" {
		h.writeError(w, r, errBadBody)
		return
	}
	v := h.session(r).Catalog.ToggleFilter(r.Context(), req.Key, req.Value)
	h.writeCatalog(w, v)
}

func (h *Handler) CatalogResetFilters(w http.ResponseWriter, r *http.Request) {
	v := h.session(r).Catalog.ResetFilters(r.Context())
	h.writeCatalog(w, v)
}

// writeCatalog resolves image paths against the product service host.
// A page-1 failure is reported in the body, never as an HTTP error.
func (h *Handler) writeCatalog(w http.ResponseWriter, v catalog.View) {
	for i := range v.Products {
		if p := v.Products[i].MainImageURL; p != nil {
			resolved := h.products.ImageURL(*p)
			v.Products[i].MainImageURL = &resolved
		}
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for i := range p.Images {
		p.Images[i].ImageURL = h.products.ImageURL(p.Images[i].ImageURL)
	}
	writeJSON(w, http.StatusOK, p)
}

type cartView struct {
	Items   []cart.Item  `json:"items"`
	Summary cart.Summary `json:"summary"`
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	items, err := s.Cart.Items(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []cart.Item{}
	}
	sum := cart.Summarize(items)
	w.Header().Set(headerCartCount, strconv.Itoa(s.CartCount(r.Context())))
	writeJSON(w, http.StatusOK, cartView{Items: items, Summary: sum})
}

// mutateCart runs fn under the session lock and answers with the new cart.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, c *cart.Store) error) {
	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	if err := fn(r.Context(), s.Cart); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w, r, s)
}

func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Lock()
	defer s.Unlock()
	h.writeCart(w, r, s)
}

type addItemRequest struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Image    string           `json:"image"`
	Quantity int              `json:"quantity"`
}

// AddToCart accepts either a full line or just an id, in which case the
// product service supplies name, price and image. Product pages post it as a form.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	req, err := readAddItem(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	item := cart.Item{ID: req.ID, Name: req.Name, Image: req.Image}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.ID != "" && (req.Name == "" || req.Price == nil) {
		p, err := h.products.GetProduct(r.Context(), req.ID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		item.Name, item.Price = p.Name, p.Price
		if len(p.Images) > 0 {
			item.Image = h.products.ImageURL(p.Images[0].ImageURL)
		}
	}

	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.AddItem(ctx, item, req.Quantity)
	})
}

func readAddItem(r *http.Request) (addItemRequest, error) {
	var req addItemRequest
	if !isForm(r) {
		err := decodeJSON(r, &req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, errBadBody
	}
	req.ID = r.PostFormValue("id")
	req.Quantity = cart.ParseQuantity(r.PostFormValue("quantity"))
	return req, nil
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.SetQuantity(ctx, id, req.Quantity)
	})
}

func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.Increment(ctx, id)
	})
}

func (h *Handler) Decrement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.Decrement(ctx, id)
	})
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.RemoveItem(ctx, id)
	})
}

type selectedRequest struct {
	Selected bool `json:"selected"`
}

func (h *Handler) SetSelected(w http.ResponseWriter, r *http.Request) {
	var req selectedRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.SetSelected(ctx, id, req.Selected)
	})
}

func (h *Handler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req selectedRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.SetAllSelected(ctx, req.Selected)
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, func(ctx context.Context, c *cart.Store) error {
		return c.Clear(ctx)
	})
}
