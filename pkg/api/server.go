package api

import (
	"context"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/crops"
	"github.com/iscander13/back/pkg/httputil"
	"github.com/iscander13/back/pkg/middleware"
	"github.com/iscander13/back/pkg/observability"
	"github.com/iscander13/back/pkg/store"
)

// ServerOptions carries the collaborators the HTTP server composes.
// Redis, Metrics, Assistant, Mailer and Contact are optional; the
// server runs without them with the matching features disabled or
// degraded.
type ServerOptions struct {
	Store     *store.Store
	Codec     *auth.Codec
	Resolver  *auth.Resolver
	Catalog   crops.Catalog
	Assistant Assistant
	Mailer    Mailer
	Contact   ContactMailer
	Redis     *redis.Client
	Metrics   *observability.Metrics
	Health    *observability.HealthChecker
	Logger    *observability.Logger

	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Server is the HTTP surface of the service. It owns the router and
// the middleware chain; lifecycle (listening, shutdown) stays with the
// caller.
type Server struct {
	router  *mux.Router
	handler http.Handler
	log     *observability.Logger
}

// NewServer builds the router, registers all handlers and wraps the
// result in the shared middleware chain.
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		router: mux.NewRouter(),
		log:    opts.Logger,
	}

	if opts.Health != nil {
		s.router.HandleFunc("/health", opts.Health.Readiness).Methods("GET")
		s.router.HandleFunc("/health/live", opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", opts.Health.Readiness).Methods("GET")
	}
	if opts.Metrics != nil {
		s.router.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}

	// Credential endpoints stay public. The distributed limiter throttles
	// them per client IP when Redis is configured.
	public := s.router.NewRoute().Subrouter()
	if opts.Redis != nil {
		public.Use(middleware.NewLoginRateLimitMiddleware(opts.Redis).Handler)
	}
	NewAuthHandlers(opts.Store, opts.Codec, opts.Metrics).RegisterRoutes(public)
	NewRecoveryHandlers(opts.Store, opts.Mailer, opts.Logger).RegisterRoutes(public)
	NewContactHandlers(opts.Contact, opts.Logger).RegisterRoutes(public)

	// Authenticated traffic shares one in-memory limiter, keyed per user
	// once the principal gate has run. Bucket cleanup lives as long as
	// the process.
	general := middleware.NewRateLimitMiddleware()
	general.StartCleanup(context.Background())

	protected := s.router.NewRoute().Subrouter()
	protected.Use(middleware.RequirePrincipal, general.Handler)
	NewPolygonHandlers(opts.Store).RegisterRoutes(protected)
	NewChatHandlers(opts.Store, opts.Assistant).RegisterRoutes(protected)
	if opts.Catalog != nil {
		NewCropHandlers(opts.Catalog).RegisterRoutes(protected)
	}

	admin := s.router.NewRoute().Subrouter()
	admin.Use(middleware.RequirePrincipal, middleware.RequireAdmin, general.Handler)
	NewAdminHandlers(opts.Store, opts.Codec).RegisterRoutes(admin)

	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(opts.Logger),
		httputil.RecoveryMiddleware(opts.Logger),
		httputil.CORSMiddleware(opts.AllowedOrigins),
	}
	if opts.MaxBodyBytes > 0 {
		chain = append(chain, httputil.MaxBytesMiddleware(opts.MaxBodyBytes))
	}
	if opts.Metrics != nil {
		chain = append(chain, opts.Metrics.Middleware)
	}
	chain = append(chain, middleware.NewAuthMiddleware(opts.Resolver, opts.Metrics).Handler)

	s.handler = httputil.Chain(chain...)(s.router)
	return s
}

// Router exposes the underlying router for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
