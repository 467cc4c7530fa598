/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logging:    One zap line per request (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a browser frontend

ROUTE GROUPS:
  /api/goals/*    Goal settings and series
  /api/intakes/*  Drink log and aggregates
  /api/reports/*  Day summaries
  /api/drinks     Drink catalogue
  /healthz        Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/recommend", h.RecommendGoal)
			r.Get("/{date}", h.GetGoal)
			r.Get("/{date}/record", h.GetGoalRecord)
			r.Put("/{date}", h.SaveGoal)
		})

		r.Route("/intakes", func(r chi.Router) {
			r.Post("/", h.CreateIntake)
			r.Get("/aggregate", h.AggregateIntakes)
			r.Get("/by-drink", h.IntakesByDrink)
			r.Delete("/{id}", h.DeleteIntake)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", h.DailyReport)
			r.Get("/latest", h.LatestReport)
		})

		r.Get("/drinks", h.ListDrinks)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID(r)))
		})
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
