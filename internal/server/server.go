// Package server exposes the simulation service over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"valuation-lab/internal/logging"
	"valuation-lab/internal/observability"
	"valuation-lab/internal/service"
)

var log = logging.Component("server")

const shutdownTimeout = 15 * time.Second

// Server routes API requests to a service.Service.
type Server struct {
	svc      *service.Service
	metrics  *observability.Metrics
	router   *gin.Engine
	upgrader websocket.Upgrader
}

// New builds the router. metrics may be nil, in which case /metrics is not served.
func New(svc *service.Service, metrics *observability.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		svc:     svc,
		metrics: metrics,
		router:  gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/health", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	api.POST("/simulations", s.handleSubmit)
	api.GET("/simulations", s.handleList)
	api.GET("/simulations/:id", s.handleStatus)
	api.DELETE("/simulations/:id", s.handleStop)
	api.GET("/simulations/:id/outcomes", s.handleOutcomes)
	api.GET("/simulations/:id/ws", s.handleProgressStream)
	api.GET("/report", s.handleReport)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("request")
	}
}
