// Package http serves the published snapshots. Snapshots are read from disk
// on each request; this package never writes them.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/sheet-snapshot/internal/snapshot"
)

// Logger is satisfied by *zap.SugaredLogger
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
}

// Endpoint maps a URL path to the report snapshot it serves
type Endpoint struct {
	Path   string
	Report snapshot.Info
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	endpoints  []Endpoint
	handlers   *Handlers
	router     *gin.Engine
	httpServer *http.Server
	errCh      chan error
	logger     Logger
}

// NewServer creates a new HTTP server serving the given endpoints
func NewServer(config ServerConfig, endpoints []Endpoint, handlers *Handlers, logger Logger) *Server {
	if config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    config,
		endpoints: endpoints,
		handlers:  handlers,
		router:    gin.New(),
		errCh:     make(chan error, 1),
		logger:    logger,
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.setupRoutes()

	return s
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Infow("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	for _, ep := range s.endpoints {
		s.router.GET(ep.Path, s.handlers.Snapshot(ep.Report))
	}

	api := s.router.Group("/api")
	{
		api.GET("/runs", s.handlers.ListRuns)
	}
}

// Name returns the worker name for identification
func (s *Server) Name() string {
	return "HTTPServer"
}

// Start binds the listener and serves in the background. A bind failure is
// returned directly; later serve errors are delivered on Err.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	s.logger.Infow("HTTP server listening", "address", listener.Addr().String())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("HTTP server error", "error", err)
			s.errCh <- err
		}
	}()
	return nil
}

// Stop stops accepting new requests and waits for in-flight ones
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorw("HTTP server shutdown error", "error", err)
		return err
	}
	s.logger.Infow("HTTP server stopped")
	return nil
}

// Err delivers errors that stop the server after Start returned
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
