// Package api exposes the catalog, identity, dashboard and ordering
// services over HTTP/JSON.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"medifinder/m/domain"
	"medifinder/m/internal/catalog"
	"medifinder/m/internal/identity"
	"medifinder/m/internal/ordering"
)

type Catalog interface {
	Search(ctx context.Context, f catalog.Filters) ([]domain.PharmacyView, error)
	GetByID(ctx context.Context, id string) (domain.PharmacyView, bool, error)
}

type Identity interface {
	Signup(ctx context.Context, in identity.SignupInput) (identity.AuthResult, error)
	Login(ctx context.Context, email, password string) (identity.AuthResult, error)
	UserByID(ctx context.Context, id string) (domain.User, bool, error)
}

// Tokens verifies bearer tokens.
type Tokens interface {
	Verify(token string) (identity.Claims, error)
}

type Dashboard interface {
	PharmacyForUser(ctx context.Context, userID string) (string, error)
	ListStock(ctx context.Context, pharmacyID string) ([]domain.StockView, error)
	SetStock(ctx context.Context, pharmacyID string, medicineID, quantity int64, priceRWF float64) ([]domain.StockView, error)
	ListOrders(ctx context.Context, pharmacyID string, status *domain.OrderStatus) ([]domain.OrderView, error)
	SetOrderStatus(ctx context.Context, pharmacyID, orderID string, status domain.OrderStatus) ([]domain.OrderView, error)
	SetPrescriptionStatus(ctx context.Context, pharmacyID, orderID string, status domain.PrescriptionStatus) ([]domain.OrderView, error)
}

type Ordering interface {
	Place(ctx context.Context, c ordering.Checkout) ([]domain.OrderView, error)
	ListForUser(ctx context.Context, userID string) ([]domain.OrderView, error)
}

// Services bundles what the handlers delegate to.
type Services struct {
	Catalog   Catalog
	Identity  Identity
	Tokens    Tokens
	Dashboard Dashboard
	Ordering  Ordering
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc         Services
	corsOrigins []string
}

// New constructs a Handler. An empty corsOrigins allows any origin.
func New(svc Services, corsOrigins []string) *Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	return &Handler{svc: svc, corsOrigins: corsOrigins}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found", "No route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" is not supported on "+r.URL.Path)
	})

	r.Get("/health", h.health)
	r.Get("/api-docs", h.docs)

	r.Route("/api", func(r chi.Router) {
		r.Route("/pharmacies", func(r chi.Router) {
			r.Get("/", h.searchPharmacies)
			r.Get("/{id}", h.getPharmacy)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.signup)
			r.Post("/login", h.login)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Use(requireRole(domain.RolePharmacy))
			r.Get("/stock", h.listStock)
			r.Put("/stock/{medicineId}", h.updateStock)
			r.Get("/orders", h.listPharmacyOrders)
			r.Put("/orders/{orderId}/status", h.updateOrderStatus)
			r.Put("/orders/{orderId}/prescription", h.updatePrescriptionStatus)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Use(requireRole(domain.RoleUser))
			r.Post("/", h.placeOrder)
			r.Get("/", h.listMyOrders)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "MediFinder API is running"})
}

type endpointDoc struct {
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Auth        string   `json:"auth,omitempty"`
	Description string   `json:"description"`
	Query       []string `json:"queryParams,omitempty"`
	Body        []string `json:"body,omitempty"`
}

var endpoints = []endpointDoc{
	{Method: "GET", Path: "/health", Description: "Check if the API server is running"},
	{Method: "GET", Path: "/api/pharmacies", Description: "Search and filter pharmacies", Query: []string{"q", "loc", "insurance"}},
	{Method: "GET", Path: "/api/pharmacies/{id}", Description: "Get single pharmacy details"},
	{Method: "POST", Path: "/api/auth/signup", Description: "Register a customer account", Body: []string{"name", "email", "password (min 6)", "phone?"}},
	{Method: "POST", Path: "/api/auth/login", Description: "Login with email and password", Body: []string{"email", "password"}},
	{Method: "GET", Path: "/api/dashboard/stock", Auth: "pharmacy", Description: "List the pharmacy's stock"},
	{Method: "PUT", Path: "/api/dashboard/stock/{medicineId}", Auth: "pharmacy", Description: "Set quantity and price of a stock row", Body: []string{"quantity", "priceRWF"}},
	{Method: "GET", Path: "/api/dashboard/orders", Auth: "pharmacy", Description: "List the pharmacy's orders", Query: []string{"status"}},
	{Method: "PUT", Path: "/api/dashboard/orders/{orderId}/status", Auth: "pharmacy", Description: "Set an order's status", Body: []string{"status"}},
	{Method: "PUT", Path: "/api/dashboard/orders/{orderId}/prescription", Auth: "pharmacy", Description: "Set an order's prescription status", Body: []string{"prescriptionStatus"}},
	{Method: "POST", Path: "/api/orders", Auth: "user", Description: "Place the cart as one order per pharmacy", Body: []string{"items[]", "pharmacyId?", "delivery", "deliveryAddress?", "prescriptionRef?"}},
	{Method: "GET", Path: "/api/orders", Auth: "user", Description: "List the caller's orders"},
}

func (h *Handler) docs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message":   "MediFinder API Documentation",
		"version":   "1.0.0",
		"endpoints": endpoints,
	})
}
