package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"college_portal/backend/internal/gateway/handlers"
	"college_portal/backend/internal/result"
	"college_portal/backend/internal/shared"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Service        *result.Service
	Verifier       *TokenVerifier
	Metrics        http.Handler // optional, served at /metrics
	CORS           shared.CORSConfig
	RequestTimeout time.Duration

	// RouteTimeout bounds whole requests on every route except bulk
	// ingestion. Zero means DefaultRouteTimeout.
	RouteTimeout time.Duration
}

// DefaultRouteTimeout is the router-level timeout when none is configured.
const DefaultRouteTimeout = 60 * time.Second

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	routeTimeout := deps.RouteTimeout
	if routeTimeout <= 0 {
		routeTimeout = DefaultRouteTimeout
	}
	timeout := middleware.Timeout(routeTimeout)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORS.AllowedOrigins,
		AllowedMethods:   deps.CORS.AllowedMethods,
		AllowedHeaders:   deps.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORS.AllowCredentials,
		MaxAge:           deps.CORS.MaxAge,
	}))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// 2. Initialize Handlers
	resultHandler := &handlers.ResultHandler{Service: deps.Service, Timeout: deps.RequestTimeout}

	// 3. Define Routes
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Verifier))

		// Staff
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(shared.RoleTeacher, shared.RoleAdmin))

			r.Route("/results", func(r chi.Router) {
				// A started batch runs to completion, so bulk has no timeout.
				r.Post("/bulk", resultHandler.BulkSubmit)

				r.Group(func(r chi.Router) {
					r.Use(timeout)
					r.Post("/", resultHandler.SubmitResult)
					r.Get("/", resultHandler.ListResults)
					r.Get("/report", resultHandler.GetReport)
					r.Post("/publish", resultHandler.PublishBatch)
					r.Get("/{id}", resultHandler.GetResult)
					r.Post("/{id}/publish", resultHandler.PublishResult)
				})
			})
		})

		// Student (published results only)
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(shared.RoleStudent))
			r.Use(timeout)

			r.Route("/me", func(r chi.Router) {
				r.Get("/results", resultHandler.GetMyResults)
				r.Get("/results/{academic_year}/{semester}", resultHandler.GetMyResult)
				r.Get("/transcript", resultHandler.GetMyTranscript)
			})
		})
	})

	return r
}
