// Package api provides the HTTP REST API and WebSocket event hub for
// Zafiri CMS Core.
//
// It exposes authentication (login, token refresh, profile), generic CRUD
// for every registered content collection, uploaded media serving, and a
// WebSocket channel that announces content changes to connected consoles.
//
// The server follows the same lifecycle pattern as the other infrastructure
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

	"github.com/zafiri/cms-core/internal/auth"
	"github.com/zafiri/cms-core/internal/content"
	"github.com/zafiri/cms-core/internal/infrastructure/config"
	"github.com/zafiri/cms-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Events   config.EventsConfig
	Security config.SecurityConfig
	Uploads  config.UploadsConfig
	Logger   *logging.Logger
	Users    auth.UserRepository
	Tokens   auth.TokenRepository
	Records  content.Repository
	Version  string
}

// Server is the HTTP API server for Zafiri CMS Core.
//
// It manages the HTTP listener, routes, middleware, and the content-change
// event hub. The server is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	evCfg   config.EventsConfig
	secCfg  config.SecurityConfig
	uploads config.UploadsConfig
	logger  *logging.Logger
	users   auth.UserRepository
	tokens  auth.TokenRepository
	records content.Repository
	version string
	server  *http.Server
	hub     *Hub
	cancel  context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token repository is required")
	}
	if deps.Records == nil {
		return nil, fmt.Errorf("record repository is required")
	}

	return &Server{
		cfg:     deps.Config,
		evCfg:   deps.Events,
		secCfg:  deps.Security,
		uploads: deps.Uploads,
		logger:  deps.Logger,
		users:   deps.Users,
		tokens:  deps.Tokens,
		records: deps.Records,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the event hub, builds the router, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.evCfg, s.logger)
	go s.hub.Run(srvCtx)

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

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

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
