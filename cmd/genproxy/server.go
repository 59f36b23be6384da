package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/liuzl/genproxy"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"
	"zliu.org/goutil/rest"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	ListenAddr string
	Verbose    bool
}

// ProxyServer is the main proxy server
type ProxyServer struct {
	config     *ProxyConfig
	serverCfg  *ServerConfig
	dispatcher *genproxy.Dispatcher
	poller     *genproxy.Poller
	tools      *mcp.Server
	tracker    *OperationTracker
	metrics    *MetricsCollector
	limiter    *rate.Limiter
	httpServer *http.Server
}

// NewProxyServer creates a new ProxyServer
func NewProxyServer(cfg *ProxyConfig, serverCfg *ServerConfig) (*ProxyServer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	opts := cfg.Options()
	s := &ProxyServer{
		config:     cfg,
		serverCfg:  serverCfg,
		dispatcher: genproxy.NewDispatcher(opts...),
		poller:     genproxy.NewPoller(opts...),
		metrics:    NewMetricsCollector(),
	}
	s.tools = genproxy.NewToolServer(s.dispatcher, s.poller, version)
	s.tracker = NewOperationTracker(defaultOperationTTL, s.metrics)
	if rl := cfg.RateLimit; rl.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)
	}
	s.httpServer = &http.Server{
		Addr:              serverCfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.APIKey() == "" {
		rest.Log().Warn().Msgf("%s is not set; callers must supply their own API key", cfg.APIKeyEnv)
	}

	return s, nil
}

// Handler returns the routed and wrapped HTTP handler.
func (s *ProxyServer) Handler() http.Handler {
	return s.applyMiddleware(s.setupRoutes())
}

// Start starts the HTTP server
func (s *ProxyServer) Start() error {
	rest.Log().Info().Msgf("Starting proxy server on %s", s.serverCfg.ListenAddr)
	rest.Log().Info().Msgf("Configured %d models, default %s", len(s.config.Models), s.config.DefaultModel)

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *ProxyServer) Shutdown(ctx context.Context) error {
	rest.Log().Info().Msg("Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all HTTP routes
func (s *ProxyServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Observability endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/operation", s.handleOperation)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/models", s.handleModels)

	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.tools
	}, nil))

	return mux
}

// applyMiddleware applies middleware chain
func (s *ProxyServer) applyMiddleware(h http.Handler) http.Handler {
	// Apply in reverse order (last middleware wraps first)
	h = RateLimitMiddleware(s.limiter)(h)
	h = CORSMiddleware(s.config.CORS.AllowedOrigins)(h)
	h = RecoveryMiddleware()(h)
	h = LoggingMiddleware()(h)
	h = RequestIDMiddleware(h)
	return h
}

// handleHealth handles the /health endpoint
func (s *ProxyServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]any{
		"status":             "healthy",
		"models":             len(s.config.Models),
		"default_model":      s.dispatcher.DefaultModel(),
		"tracked_operations": s.tracker.Len(),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}

	json.NewEncoder(w).Encode(response)
}
