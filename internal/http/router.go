package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

// The session cookie outlives the live session; cart state is persisted.
const sessionCookieMaxAge = 365 * 24 * time.Hour

type Deps struct {
	Logger   *zap.Logger
	Cfg      config.Config
	Sessions *session.Manager
	Products *clients.ProductClient
}

type Handler struct {
	logger   *zap.Logger
	sessions *session.Manager
	products *clients.ProductClient
}

func NewRouter(d Deps) http.Handler {
	logger := logging.OrNop(d.Logger)
	h := &Handler{logger: logger, sessions: d.Sessions, products: d.Products}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(d.Cfg.CORSAllowOrigins))
	r.Use(middleware.Session(d.Cfg.SessionCookie, sessionCookieMaxAge))

	r.Get("/health", h.Health)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", h.Catalog)
		r.Post("/more", h.CatalogMore)
		r.Post("/filters", h.CatalogFilters)
		r.Post("/filters/toggle", h.CatalogToggleFilter)
		r.Post("/filters/reset", h.CatalogResetFilters)
	})
	r.Get("/products/{id}", h.Product)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Cart)
		r.Delete("/", h.ClearCart)
		r.Put("/selected", h.SelectAll)
		r.Post("/items", h.AddToCart)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Delete("/", h.RemoveFromCart)
			r.Put("/quantity", h.SetQuantity)
			r.Post("/increment", h.Increment)
			r.Post("/decrement", h.Decrement)
			r.Put("/selected", h.SetSelected)
		})
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", h.Checkout)
		r.Post("/start", h.StartCheckout)
		r.Post("/promo", h.ApplyPromo)
		r.Put("/delivery", h.SetDelivery)
		r.Post("/submit", h.SubmitOrder)
	})
	r.Get("/order-confirmation", h.OrderConfirmation)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)
		r.Post("/logout", h.AdminLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Use(confirmation)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.AdminListProducts)
				r.Post("/", h.AdminCreateProduct)
				r.Get("/search", h.AdminSearchProducts)
				r.Delete("/images/{imageId}", h.AdminDeleteImage)
				r.Get("/{id}", h.AdminGetProduct)
				r.Put("/{id}", h.AdminUpdateProduct)
				r.Delete("/{id}", h.AdminDeleteProduct)
				r.Post("/{id}/images", h.AdminUploadImages)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.AdminListOrders)
				r.Get("/search", h.AdminSearchOrders)
				r.Get("/{id}", h.AdminGetOrder)
				r.Patch("/{id}/status", h.AdminChangeStatus)
			})
		})
	})

	return r
}

func (h *Handler) session(r *http.Request) *session.Session {
	return h.sessions.Get(middleware.GetSessionID(r.Context()))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront",
	})
}
