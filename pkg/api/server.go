package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/mockapi/pkg/auth"
	"github.com/platinummonkey/mockapi/pkg/catalog"
	"github.com/platinummonkey/mockapi/pkg/httputil"
	"github.com/platinummonkey/mockapi/pkg/middleware"
	"github.com/platinummonkey/mockapi/pkg/observability"
	"github.com/platinummonkey/mockapi/pkg/resources"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBasePath is used when Options.BasePath is empty
const DefaultBasePath = "/api/v1"

// CatalogProvider returns the catalog instance serving the current request
type CatalogProvider interface {
	Current() *catalog.Repository
}

// Info is returned by GET /
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Options configures a Server
type Options struct {
	Info     Info
	BasePath string

	// JSONAPIPaths are the path prefixes whose errors use the JSON:API
	// envelope. Empty means the login route and every public collection.
	JSONAPIPaths []string

	CORSAllowedOrigins []string
	APIKeyHeader       string

	// MaxBodyBytes caps request bodies; zero means httputil.DefaultMaxBodyBytes
	MaxBodyBytes int64

	Resources     *resources.Repository
	Catalog       CatalogProvider
	Authenticator *auth.Authenticator
	APIKeys       *auth.KeySet
	Audit         *auth.AuditLogger

	// Optional
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider
	RateLimiter    middleware.Limiter
	Logger         *logrus.Logger
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	errors  *errorRenderer
	log     *logrus.Logger
	opts    Options
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}
	opts.BasePath = "/" + strings.Trim(opts.BasePath, "/")
	if opts.APIKeyHeader == "" {
		opts.APIKeyHeader = middleware.DefaultAPIKeyHeader
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = httputil.DefaultMaxBodyBytes
	}
	if len(opts.JSONAPIPaths) == 0 {
		opts.JSONAPIPaths = DefaultJSONAPIPaths(opts.BasePath)
	}

	s := &Server{
		router: mux.NewRouter(),
		errors: newErrorRenderer(opts.JSONAPIPaths, opts.Logger),
		log:    opts.Logger,
		opts:   opts,
	}
	s.router.NotFoundHandler = http.HandlerFunc(s.errors.notFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errors.methodNotAllowed)

	s.setupRoutes()
	s.handler = s.buildChain()(s.router)
	return s
}

// DefaultJSONAPIPaths returns the login route and every public collection
// under basePath
func DefaultJSONAPIPaths(basePath string) []string {
	basePath = strings.TrimRight(basePath, "/")
	paths := []string{basePath + "/users"}
	for _, c := range catalog.Public() {
		paths = append(paths, basePath+"/"+c.String())
	}
	return paths
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.info).Methods(http.MethodGet)

	api := s.router.PathPrefix(s.opts.BasePath).Subrouter()

	resourceHandlers := NewResourceHandlers(s.opts.Resources,
		middleware.NewAPIKeyAuth(s.opts.APIKeys, s.opts.APIKeyHeader, s.errors.write,
			middleware.WithAPIKeyAudit(s.opts.Audit),
			middleware.WithAPIKeyRecorder(s.recorder()),
		),
		s.errors.write,
	)
	s.RegisterRoutes(api, resourceHandlers)

	bearer := middleware.NewBearerAuth(s.opts.Authenticator, s.opts.Audit, s.errors.write)
	s.RegisterRoutes(api, NewCatalogHandlers(s.opts.Catalog, bearer, s.errors.write))
	s.RegisterRoutes(api, NewAuthHandlers(s.opts.Authenticator, s.opts.Audit, s.errors.write))
}

// recorder returns the auth recorder backed by metrics, or nil
func (s *Server) recorder() auth.Recorder {
	if s.opts.Metrics == nil {
		return nil
	}
	return s.opts.Metrics
}

// buildChain assembles the middleware wrapped around the router. It wraps
// the router from outside so unmatched routes are covered too.
func (s *Server) buildChain() func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(s.log, s.errors.internal),
		httputil.RequestIDMiddleware,
		httputil.CORSMiddleware(s.opts.CORSAllowedOrigins, s.opts.APIKeyHeader),
		httputil.LoggingMiddleware(s.log),
		httputil.MaxBytesMiddleware(s.opts.MaxBodyBytes),
	}
	if s.opts.TracerProvider != nil {
		chain = append(chain, observability.TracingMiddleware(s.opts.TracerProvider, s.routeLabel))
	}
	if s.opts.Metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(s.opts.Metrics, s.routeLabel))
	}
	if s.opts.RateLimiter != nil {
		chain = append(chain, middleware.NewRateLimitMiddleware(s.opts.RateLimiter, s.errors.write,
			middleware.WithRateLimitLogger(s.log),
		).Handler)
	}
	return httputil.Chain(chain...)
}

// routeLabel returns the matched route template so metrics labels stay bounded
func (s *Server) routeLabel(r *http.Request) string {
	var match mux.RouteMatch
	if s.router.Match(r, &match) && match.Route != nil {
		if tpl, err := match.Route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return observability.UnmatchedRoute
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar on router
func (s *Server) RegisterRoutes(router *mux.Router, registrar RouteRegistrar) {
	registrar.RegisterRoutes(router)
}

// info handles GET /
func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.opts.Info)
}
