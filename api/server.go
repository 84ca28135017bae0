/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Auth:       Bearer-token actor identity (see middleware.go)

ROUTE GROUPS:
  /api/audit/*         Closure engine
  /api/admin/*         Override operations (admin role)
  /api/reservations/*  Reservation lookups
  /api/rooms           Room inventory
  /api/folios/*        Folio lookups
  /api/checklist/*     Closure checklist
  /metrics             Prometheus scrape endpoint
  /health              Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Operator"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(Auth(jwtSecret))

		// Closure engine
		r.Route("/audit", func(r chi.Router) {
			r.Get("/status", h.GetAuditStatus)
			r.Get("/preview/{date}", h.PreviewClose)
			r.Post("/close", h.CloseDay)
			r.Get("/records", h.ListRecords)
			r.Get("/records/{date}", h.GetRecord)
			r.Get("/overrides", h.ListOverrides)
			r.Get("/stats/{date}", h.GetStats)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(jwtSecret, RoleAdmin))
			r.Post("/reopen", h.ReopenDay)
		})

		// Reservation routes
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Get("/{id}", h.GetReservation)
		})

		r.Get("/rooms", h.ListRooms)

		// Folio routes
		r.Route("/folios", func(r chi.Router) {
			r.Get("/", h.ListFolios)
			r.Get("/{number}", h.GetFolio)
		})

		// Checklist routes
		r.Route("/checklist", func(r chi.Router) {
			r.Get("/", h.ListChecklist)
			r.Post("/", h.CreateChecklistItem)
			r.Post("/{id}/complete", h.CompleteChecklistItem)
		})
	})

	return r
}
