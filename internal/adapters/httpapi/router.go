package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"signalDesk/internal/ports"
)

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/healthz", Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/modes", h.Modes)
		v1.POST("/analyze", h.Analyze)
		v1.POST("/analyze/batch", h.AnalyzeBatch)
		v1.POST("/playbook", h.Playbook)
		v1.GET("/signals/:ticker", h.Signals)
		v1.PUT("/users/:id/alerts", h.SetAlertPreference)
		v1.DELETE("/cache/:ticker", h.InvalidateCache)
	}
	return r
}

// Server runs the router on an http.Server so it can be shut down gracefully.
type Server struct {
	srv    *http.Server
	logger ports.Logger
}

// NewServer binds h to addr.
func NewServer(addr string, h *Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: h.logger,
	}
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "HTTP server listening", map[string]interface{}{"addr": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
