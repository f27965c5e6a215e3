package ui

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vardrill/internal/errors"
	"vardrill/internal/session"
	"vardrill/ui/middleware"
)

// ServerOptions configure the HTTP server.
type ServerOptions struct {
	Port            string
	GinMode         string
	PublicURL       string // prefix for share links; defaults to the request host
	ShutdownTimeout time.Duration
}

// Server serves the JSON drill API, the embed view and /metrics.
type Server struct {
	router  *gin.Engine
	manager *session.Manager
	opts    ServerOptions
	http    *http.Server
}

// NewServer wires routes for manager.
func NewServer(manager *session.Manager, opts ServerOptions) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		router:  gin.New(),
		manager: manager,
		opts:    opts,
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/dataset", s.handleDataset)
	api.POST("/sessions", s.handleCreateSession)

	sess := api.Group("/sessions/:id", middleware.LoadSession(s.manager))
	sess.GET("", s.handleGetSession)
	sess.DELETE("", s.handleDeleteSession)
	sess.POST("/drill", s.handleDrill)
	sess.POST("/highlight", s.handleHighlight)
	sess.POST("/back", s.handleBack)
	sess.POST("/navigate", s.handleNavigate)
	sess.POST("/clear", s.handleClear)
	sess.POST("/history/:direction", s.handleHistory)
	sess.PUT("/filters/:factor", s.handleSetFilterValues)
	sess.DELETE("/filters/:factor", s.handleRemoveFactor)
	sess.GET("/share", s.handleShare)
	sess.GET("/report", s.handleReport)
	sess.GET("/factors/:factor", s.handleFactor)
	sess.PUT("/settings", s.handleUpdateSettings)

	// Everything else (the embed view) is served by the chi app.
	s.router.NoRoute(gin.WrapH(NewApp(s.manager).Handler()))
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              ":" + s.opts.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] listening on :%s", s.opts.Port)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Printf("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	ds := s.manager.Dataset()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"rows":     ds.Len(),
		"version":  ds.Version.Short(),
		"sessions": s.manager.Len(),
	})
}

// respondError writes err with the status its code maps to.
func respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(errors.Wrap(err, "request failed"))})
}
