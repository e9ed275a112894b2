/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     zap request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend
  6. RateLimit:  Per-client token bucket on /api

ROUTE GROUPS:
  /api/business, /api/login   Settings
  /api/purchases/*            Purchase history
  /api/sales/*                Sale history
  /api/products, clients      Derived views
  /api/debts/*                Debt ledger and payments
  /api/reports/*              Summary, periods, workbook
  /api/export, /api/import    Backup documents
  /api/scenarios/*            Demo scenarios
  /healthz                    Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request logging and rate limiting
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      RateLimiterConfig
	Logger         *zap.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limiter := NewClientRateLimiter(opts.RateLimit)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)

		// Settings routes
		r.Get("/business", h.GetBusiness)
		r.Put("/business", h.UpdateBusiness)
		r.Post("/login", h.Login)

		// Purchase routes
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", h.ListPurchases)
			r.Post("/", h.CreatePurchase)
			r.Put("/{id}", h.UpdatePurchase)
			r.Delete("/{id}", h.DeletePurchase)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Put("/{id}", h.UpdateSale)
			r.Delete("/{id}", h.DeleteSale)
		})

		// Derived views
		r.Get("/products", h.ListProducts)
		r.Get("/clients", h.ListClients)
		r.Get("/payments", h.ListPayments)

		// Debt routes
		r.Route("/debts", func(r chi.Router) {
			r.Get("/", h.ListDebts)
			r.Post("/{id}/payments", h.RecordPayment)
		})

		// Report routes
		r.Get("/notifications", h.ListNotifications)
		r.Get("/alerts", h.ListAlerts)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
			r.Get("/periods", h.GetPeriods)
			r.Get("/export.xlsx", h.ExportWorkbook)
		})
		r.Get("/audit", h.ListAudit)

		// Backup routes
		r.Get("/export", h.Export)
		r.Post("/import", h.Import)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetLedger)
		})
	})

	return r
}
