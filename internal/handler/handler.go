// Package handler exposes the storefront over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
	"github.com/xenking/smellandco-storefront/internal/domain/checkout"
)

// SessionCookie holds the key of the shopper's cart.
const SessionCookie = "cart_session"

// Catalog lists and looks up perfumes. *catalog.Provider implements it.
type Catalog interface {
	List(ctx context.Context) []catalog.Perfume
	Get(ctx context.Context, id string) (catalog.Perfume, error)
}

var _ Catalog = (*catalog.Provider)(nil)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Cart tunes the per-session cart stores.
	Cart cart.Options
	// SecureCookie marks the session cookie as HTTPS only.
	SecureCookie bool
	// SessionTTL is the lifetime of the session cookie. Zero makes it a
	// browser-session cookie.
	SessionTTL time.Duration
}

// Handler serves the catalog, cart, checkout and payment preference routes.
type Handler struct {
	catalog  Catalog
	carts    cart.Backend
	payments checkout.PreferenceClient
	cfg      Config
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, perfumes Catalog, carts cart.Backend, payments checkout.PreferenceClient) *Handler {
	return &Handler{
		catalog:  perfumes,
		carts:    carts,
		payments: payments,
		cfg:      cfg,
	}
}

// Routes registers every storefront route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)

		r.Route("/perfumes", func(r chi.Router) {
			r.Use(middleware.Compress(5))
			r.Get("/", h.ListPerfumes)
			r.Get("/{id}", h.GetPerfume)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{id}", h.SetQuantity)
			r.Delete("/items/{id}", h.RemoveItem)
		})

		r.Post("/checkout", h.StartCheckout)
		r.Post("/payment-preference", h.CreatePaymentPreference)
	})

	r.Get("/checkout/{outcome}", h.CompleteCheckout)
}

// Router returns a chi router serving Routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.Routes(r)
	return r
}

// cartStore returns the store of the caller's cart, issuing a session cookie
// on first access.
func (h *Handler) cartStore(w http.ResponseWriter, r *http.Request) *cart.Store {
	return cart.NewStore(h.carts, h.sessionKey(w, r), h.cfg.Cart)
}

func (h *Handler) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.SessionTTL > 0 {
		cookie.MaxAge = int(h.cfg.SessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}
