package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/quantflow/pushhub"
	"github.com/quantflow/pushhub/types"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address     string
	PollTimeout time.Duration
	IdleTimeout time.Duration

	// Metrics receives transport-level events such as dropped deliveries.
	// Nil discards them.
	Metrics types.MetricsCollector
}

// DefaultServerConfig returns default configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:     ":8080",
		PollTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}

// Server is the HTTP long-polling server.
type Server struct {
	config  *ServerConfig
	manager *pushhub.Manager
	logger  types.Logger
	router  *Router
	server  *http.Server
}

// NewServer creates the HTTP server for a manager.
func NewServer(cfg *ServerConfig, manager *pushhub.Manager, logger types.Logger) *Server {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}

	h := NewHandlers(manager, logger, cfg.Metrics, cfg.PollTimeout)

	router := NewRouter()
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))

	router.GET("/handshake", h.HandleHandshake)
	router.GET("/updates/{clientId}", h.HandlePoll)
	router.POST("/updates/{clientId}", h.HandleSubscribe)
	router.DELETE("/updates/{clientId}", h.HandleClose)
	router.POST("/viewports", h.HandleCreateViewport)
	router.GET("/viewports/{id}/gridStructure", h.HandleGridStructure)
	router.GET("/viewports/{id}/data", h.HandleData)
	router.POST("/viewports/{id}/running", h.HandleSetRunning)
	router.POST("/viewports/{id}/mode", h.HandleSetMode)
	router.POST("/viewports/{id}/activate", h.HandleActivate)

	return &Server{
		config:  cfg,
		manager: manager,
		logger:  logger,
		router:  router,
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       cfg.IdleTimeout,
			// The write timeout must outlive a full poll cycle or parked
			// requests would be cut off mid-wait.
			WriteTimeout: cfg.PollTimeout + 15*time.Second,
		},
	}
}

// Handler returns the server's root handler, useful with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server and blocks until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "address", s.config.Address)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
