package status

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/hdmirx/internal/observability"
	"github.com/danmuck/hdmirx/internal/receiver"
	"github.com/danmuck/hdmirx/internal/video"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Snapshot is what /status serves.
type Snapshot struct {
	Node     string          `json:"node"`
	Locked   bool            `json:"locked"`
	Ready    bool            `json:"ready"`
	Receiver receiver.Status `json:"receiver"`
	Frames   video.Stats     `json:"frames"`
	Updated  time.Time       `json:"updated"`
}

type Server struct {
	node    string
	addr    string
	started time.Time
	router  *gin.Engine

	mu   sync.RWMutex
	snap Snapshot
}

func New(node, addr string, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, node))
	r.Use(observability.RequestMetricsMiddleware(node))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		node:    node,
		addr:    addr,
		started: time.Now(),
		router:  r,
		snap:    Snapshot{Node: node},
	}
	s.registerRoutes()
	return s
}

// Publish replaces the served snapshot.
func (s *Server) Publish(st receiver.Status, frames video.Stats) {
	s.mu.Lock()
	s.snap = Snapshot{
		Node:     s.node,
		Locked:   st.Locked(),
		Ready:    st.Ready(),
		Receiver: st,
		Frames:   frames,
		Updated:  time.Now(),
	}
	s.mu.Unlock()
}

func (s *Server) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"node":   s.node,
			"uptime": time.Since(s.started).String(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Snapshot())
	})

	s.router.GET("/ready", func(c *gin.Context) {
		snap := s.Snapshot()
		code := http.StatusOK
		if !snap.Ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"ready": snap.Ready, "locked": snap.Locked, "node": s.node})
	})
}

// Serve runs until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("node", s.node).Str("addr", s.addr).Msg("status server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Str("node", s.node).Msg("status server stopped")
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
