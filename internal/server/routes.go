package server

import (
	"log/slog"
	"net/http"

	"astro-server/internal/middleware"
	serverHandlers "astro-server/internal/server/handlers"
	"astro-server/internal/shared/database"
	"astro-server/internal/star"
	starHandlers "astro-server/internal/star/handlers"
)

type Routes struct {
	db          *database.DB
	starService *star.Service
	logger      *slog.Logger
}

func NewRoutes(db *database.DB, starService *star.Service, logger *slog.Logger) *Routes {
	return &Routes{
		db:          db,
		starService: starService,
		logger:      logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	rootHandler := serverHandlers.NewRootHandler()
	healthHandler := serverHandlers.NewHealthHandler(r.db, r.starService)
	starHandler := starHandlers.NewStarHandler(r.starService)
	fallback := serverHandlers.NewFallbackHandler(r.logger)

	mux.Handle("GET /{$}", rootHandler)
	mux.Handle("GET /health", healthHandler)

	mux.HandleFunc("GET /stars", starHandler.List)
	mux.HandleFunc("POST /stars", starHandler.Create)
	mux.HandleFunc("GET /stars/{id}", starHandler.Get)
	mux.HandleFunc("DELETE /stars/{id}", starHandler.Delete)

	// Method-less patterns are less specific than the ones above, so they
	// only catch the methods those do not serve.
	mux.HandleFunc("/{$}", fallback.MethodNotAllowed(http.MethodGet, http.MethodHead))
	mux.HandleFunc("/health", fallback.MethodNotAllowed(http.MethodGet, http.MethodHead))
	mux.HandleFunc("/stars", fallback.MethodNotAllowed(http.MethodGet, http.MethodHead, http.MethodPost))
	mux.HandleFunc("/stars/{id}", fallback.MethodNotAllowed(http.MethodGet, http.MethodHead, http.MethodDelete))
	mux.HandleFunc("/", fallback.NotFound)

	logger.Info("Routes configured successfully",
		"endpoints", []string{"GET /", "GET /health", "GET /stars", "POST /stars", "GET /stars/{id}", "DELETE /stars/{id}"},
	)

	return mux
}

// Handler wraps the routes with the request logging, recovery, CORS and
// rate limiting middleware, outermost first.
func (r *Routes) Handler(cors *middleware.CORSMiddleware, rateLimiter *middleware.RateLimiter) http.Handler {
	return middleware.Chain(
		middleware.RequestLogger(r.logger),
		middleware.Recovery(r.logger),
		cors.Middleware,
		rateLimiter.Middleware,
	)(r.Setup())
}
