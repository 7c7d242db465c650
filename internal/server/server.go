package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	_ "github.com/broadsheet-archive/broadsheet/docs/swagger" // embedded OpenAPI spec
	"github.com/broadsheet-archive/broadsheet/internal/api"
	"github.com/broadsheet-archive/broadsheet/internal/config"
	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/ocr"
	"github.com/broadsheet-archive/broadsheet/internal/pipeline"
	"github.com/broadsheet-archive/broadsheet/internal/server/endpoints"
	"github.com/broadsheet-archive/broadsheet/internal/spool"
	"github.com/broadsheet-archive/broadsheet/internal/svcctx"
)

// Server is the main broadsheet HTTP server. It owns the processing
// coordinator lifecycle, starting the worker pool on server start and
// draining it on shutdown.
type Server struct {
	httpServer  *http.Server
	coordinator *pipeline.Coordinator
	engines     *ocr.Registry
	spoolWatch  *spool.Watcher
	homeDir     *home.Dir
	configMgr   *config.Manager
	logger      *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	runCancel context.CancelFunc
	spoolWG   sync.WaitGroup

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default from config, 127.0.0.1)
	Host string
	// Port is the port to listen on (default from config, 8480)
	Port string
	// Home is the broadsheet home directory (required)
	Home *home.Dir
	// Engines holds the registered OCR engines
	Engines *ocr.Registry
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}
	if cfg.Engines == nil {
		cfg.Engines = ocr.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		c = cfg.ConfigManager.Get()
	}
	if cfg.Host == "" {
		cfg.Host = c.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = c.Server.Port
	}

	if err := cfg.Home.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to prepare home directory: %w", err)
	}

	retry := c.RetryPolicy()
	coordinator := pipeline.NewCoordinator(pipeline.Config{
		Workers:          c.Workers.Count,
		QueueCapacity:    c.Queue.Capacity,
		ResultBuffer:     c.Queue.ResultBuffer,
		PollInterval:     time.Duration(c.Workers.PollIntervalMS) * time.Millisecond,
		SnapshotInterval: time.Duration(c.Queue.SnapshotSeconds) * time.Second,
		CleanupSchedule:  c.Queue.CleanupSchedule,
		Retry:            &retry,
		Logger:           cfg.Logger,
	}, cfg.Engines, cfg.Home)

	if err := coordinator.SetDefaultProcessing(c.ProcessingDefaults()); err != nil {
		return nil, fmt.Errorf("invalid processing defaults: %w", err)
	}

	s := &Server{
		coordinator: coordinator,
		engines:     cfg.Engines,
		homeDir:     cfg.Home,
		configMgr:   cfg.ConfigManager,
		logger:      cfg.Logger,
	}

	if c.Spool.Enabled {
		s.spoolWatch = spool.New(cfg.Home, coordinator, cfg.Logger)
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{SwaggerSpecPath: endpoints.GetSwaggerSpecPath()}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// If config manager provided, follow processing default changes.
	// The listen address cannot change without a restart.
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(nc *config.Config) {
			if err := coordinator.SetDefaultProcessing(nc.ProcessingDefaults()); err != nil {
				cfg.Logger.Warn("config reload rejected", "error", err)
				return
			}
			cfg.Logger.Info("processing defaults reloaded from config")
			if nc.ListenAddr() != s.httpServer.Addr {
				cfg.Logger.Warn("listen address change requires restart",
					"current", s.httpServer.Addr,
					"configured", nc.ListenAddr(),
				)
			}
		})
	}

	return s, nil
}

// Start starts the coordinator, the spool watcher and the HTTP server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	s.runCancel = cancel

	// Start the processing pipeline
	s.logger.Info("starting coordinator")
	if err := s.coordinator.Start(runCtx); err != nil {
		cancel()
		s.setNotRunning()
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	if s.spoolWatch != nil {
		s.spoolWG.Add(1)
		go func() {
			defer s.spoolWG.Done()
			if err := s.spoolWatch.Run(runCtx); err != nil {
				s.logger.Error("spool watcher failed", "error", err)
			}
		}()
	}

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Coordinator:   s.coordinator,
		Engines:       s.engines,
		ConfigManager: s.configMgr,
		Home:          s.homeDir,
		Logger:        s.logger,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown() // Drain the pipeline on HTTP error
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown stops the HTTP server first so no new jobs arrive, then drains
// the pipeline and the spool watcher.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.runCancel != nil {
		s.runCancel()
	}
	s.coordinator.Stop()
	s.spoolWG.Wait()

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Coordinator returns the processing coordinator.
func (s *Server) Coordinator() *pipeline.Coordinator {
	return s.coordinator
}

// Engines returns the OCR engine registry.
func (s *Server) Engines() *ocr.Registry {
	return s.engines
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the queue and workers are up.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svcctx.ServicesFrom(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
