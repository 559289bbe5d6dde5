package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"ecommerce-service/internal/auth"
	"ecommerce-service/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	userStore     store.UserStorer
	categoryStore store.CategoryStorer
	productStore  store.ProductStorer
	orderStore    store.OrderStorer
	tokens        *auth.TokenManager
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(
	us store.UserStorer,
	cs store.CategoryStorer,
	ps store.ProductStorer,
	os store.OrderStorer,
	tokens *auth.TokenManager,
	logger zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		userStore:     us,
		categoryStore: cs,
		productStore:  ps,
		orderStore:    os,
		tokens:        tokens,
		validate:      validator.New(),
		logger:        logger,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			http.Error(w, `{"error": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// paginationInfo matches the pagination envelope returned by every list
// endpoint: totalPages = ceil(totalItems/limit).
type paginationInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func newPaginationInfo(page, limit, totalItems int) paginationInfo {
	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}
	return paginationInfo{Page: page, Limit: limit, TotalItems: totalItems, TotalPages: totalPages}
}

// parsePagination reads page/limit query parameters, clamping to sane
// defaults (page 1, limit 10, max 100).
func parsePagination(r *http.Request) (page, limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	page, err = strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	return page, limit, (page - 1) * limit
}

func urlParamInt64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service. Catalog reads are
// public; everything else sits behind the bearer-token middleware, with
// role-gated routes additionally guarded by the authorization policy.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(h.tokens.Authenticate).Get("/me", h.Me)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(h.tokens.Authenticate)
		r.Get("/profile", h.GetProfile)
		r.With(auth.Require(auth.ActionUserAdmin)).Get("/", h.ListUsers)
		r.With(auth.Require(auth.ActionUserAdmin)).Put("/{userId}/role", h.UpdateUserRole)
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/tree", h.GetCategoryTree)
		r.With(h.tokens.Authenticate, auth.Require(auth.ActionCatalogWrite)).Post("/", h.CreateCategory)
		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", h.GetCategory)
			r.Get("/products", h.ListCategoryProducts)
			r.With(h.tokens.Authenticate, auth.Require(auth.ActionCatalogWrite)).Put("/", h.UpdateCategory)
			r.With(h.tokens.Authenticate, auth.Require(auth.ActionCatalogDelete)).Delete("/", h.DeleteCategory)
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.With(h.tokens.Authenticate, auth.Require(auth.ActionCatalogWrite)).Post("/", h.CreateProduct)
		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.With(h.tokens.Authenticate, auth.Require(auth.ActionCatalogWrite)).Put("/", h.UpdateProduct)
			r.With(h.tokens.Authenticate, auth.Require(auth.ActionCatalogDelete)).Delete("/", h.DeleteProduct)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(h.tokens.Authenticate)
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/", h.GetOrderByID)
			r.With(auth.Require(auth.ActionOrderSetState)).Put("/", h.UpdateOrderStatus)
			r.With(auth.Require(auth.ActionOrderDelete)).Delete("/", h.DeleteOrder)
		})
	})
}
