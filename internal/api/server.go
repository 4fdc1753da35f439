// Package api provides the HTTP registration API and the WebSocket
// broadcast channel for NodeX Core.
//
// It exposes device lifecycle operations (register, unregister,
// reactivate), read-only snapshot and history endpoints, and the
// full-snapshot broadcast channel observers subscribe to.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
	"github.com/nerrad567/nodex-core/internal/infrastructure/logging"
	"github.com/nerrad567/nodex-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/nodex-core/internal/infrastructure/telemetry"
	"github.com/nerrad567/nodex-core/internal/registry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Broadcast config.BroadcastConfig
	Logger    *logging.Logger
	Registry  *registry.Registry
	History   *registry.History  // optional: history endpoint returns 404 when nil
	Telemetry *telemetry.Client  // optional: reading telemetry
	MQTT      *mqtt.Client       // optional: snapshot export
	Version   string
}

// Server is the HTTP API server for NodeX Core.
//
// It manages the HTTP listener, routes, middleware, the WebSocket hub,
// and the broadcast loop. The server is created with New() and started
// with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	bcCfg     config.BroadcastConfig
	logger    *logging.Logger
	registry  *registry.Registry
	history   *registry.History
	telemetry *telemetry.Client
	mqtt      *mqtt.Client
	version   string
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	// History, telemetry, and MQTT are optional; the broadcast loop and
	// registration endpoints work without them.

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		bcCfg:     deps.Broadcast,
		logger:    deps.Logger,
		registry:  deps.Registry,
		history:   deps.History,
		telemetry: deps.Telemetry,
		mqtt:      deps.MQTT,
		version:   deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub and the broadcast
// loop, and launches the HTTP listener in a background goroutine.
// The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	broadcaster := NewBroadcaster(BroadcasterDeps{
		Config:    s.bcCfg,
		Hub:       s.hub,
		Registry:  s.registry,
		History:   s.history,
		Telemetry: s.telemetry,
		MQTT:      s.mqtt,
		Logger:    s.logger,
	})
	go broadcaster.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, broadcaster)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
