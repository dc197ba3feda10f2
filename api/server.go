/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For behind the proxy
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend (origins from config)

ROUTE GROUPS:
  /health               Liveness
  /api/dossiers/*       Case files and their careers, periods, payments, documents
  /api/me/*             Owner-scoped case files (RequireUser)
  /api/careers/*        Career search and edits
  /api/periods/*        Cotisation period removal
  /api/payments/*       Payment orders
  /api/documents/*      Document metadata, download, edits
  /api/statistics/*     Monthly payment statistics
  /api/reporting/*      Dashboard, monthly histogram, activity feed
  /api/scenarios/*      Demo data (dev only)

SECURITY NOTE:
  Authentication happens upstream. The OIDC proxy forwards the caller's
  subject in X-User-Id; only /api/me routes require it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// UserIDHeader carries the authenticated subject set by the proxy.
const UserIDHeader = "X-User-Id"

type contextKey string

const userIDKey contextKey = "user-id"

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", UserIDHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Case file routes
		r.Route("/dossiers", func(r chi.Router) {
			r.Get("/", h.ListCaseFiles)
			r.Post("/", h.CreateCaseFile)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCaseFile)
				r.Put("/", h.UpdateCaseFile)
				r.Delete("/", h.DeleteCaseFile)
				r.Put("/status", h.UpdateCaseFileStatus)
				r.Post("/calculate-pension", h.CalculatePension)
				r.Get("/careers", h.ListCaseFileCareers)
				r.Post("/careers", h.AddCareer)
				r.Get("/periods", h.ListCaseFilePeriods)
				r.Post("/periods", h.AddPeriod)
				r.Get("/payments", h.ListCaseFilePayments)
				r.Get("/documents", h.ListCaseFileDocuments)
				r.Post("/documents", h.UploadDocument)
			})
		})

		// Owner-scoped routes
		r.Route("/me/dossiers", func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/", h.ListMyCaseFiles)
			r.Post("/", h.CreateMyCaseFile)
			r.Get("/{id}", h.GetMyCaseFile)
			r.Patch("/{id}/submission", h.SubmitMyCaseFile)
			r.Patch("/{id}/validation", h.ValidateMyCaseFile)
		})

		r.Route("/careers", func(r chi.Router) {
			r.Get("/", h.SearchCareers)
			r.Get("/{id}", h.GetCareer)
			r.Put("/{id}", h.UpdateCareer)
			r.Delete("/{id}", h.DeleteCareer)
		})

		r.Delete("/periods/{id}", h.DeletePeriod)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", h.CreatePayment)
			r.Put("/{id}/status", h.UpdatePaymentStatus)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Get("/{id}", h.GetDocument)
			r.Get("/{id}/download", h.DownloadDocument)
			r.Put("/{id}", h.UpdateDocument)
			r.Delete("/{id}", h.DeleteDocument)
		})

		r.Route("/statistics", func(r chi.Router) {
			r.Get("/", h.GetStatistics)
			r.Get("/history", h.ListStatistics)
			r.Post("/calculate", h.CalculateStatistics)
		})

		r.Route("/reporting", func(r chi.Router) {
			r.Get("/dashboard", h.GetDashboard)
			r.Get("/monthly", h.GetMonthly)
			r.Get("/activity", h.GetActivity)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// RequireUser rejects requests without X-User-Id and stores the subject in
// the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if subject == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+UserIDHeader+" header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) string {
	subject, _ := ctx.Value(userIDKey).(string)
	return subject
}
