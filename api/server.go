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
  4. CORS:       Cross-origin requests for the terminal frontend

ROUTE GROUPS:
  /api/auth/*, /api/employees/active   Terminal login (public)
  /api/punch/*                         Punch operations (employee token)
  /api/*                               Everything else (admin token)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Terminal login surface, public
		r.Get("/employees/active", h.ListActiveEmployees)
		r.Post("/auth/login", h.Login)

		// Punch operations, any authenticated employee
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/punch/status", h.PunchStatus)
			r.Post("/punch", h.Punch)
		})

		// Administration
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.SaveEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Post("/{id}/pin", h.SetPIN)
			})

			r.Route("/periods", func(r chi.Router) {
				r.Get("/", h.ListPeriods)
				r.Post("/{start}/close", h.ClosePeriod)
			})

			r.Route("/timesheet", func(r chi.Router) {
				r.Get("/", h.GetTimesheet)
				r.Get("/pdf", h.GetTimesheetPDF)
			})

			r.Put("/punches", h.UpsertPunch)

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/{id}", h.GetInvoice)
				r.Get("/{id}/pdf", h.GetInvoicePDF)
				r.Get("/{id}/history", h.InvoiceHistory)
			})

			r.Get("/audit", h.AuditTrail)
		})
	})

	return r
}
