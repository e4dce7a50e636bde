// Package status exposes the running simulator over HTTP: liveness, a JSON status view and prometheus metrics.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"marketmaker-go/internal/aggregator"
	"marketmaker-go/internal/market"
	"marketmaker-go/internal/metrics"
	"marketmaker-go/internal/paper"
)

// Prices is the aggregator surface the status view reads.
type Prices interface {
	Snapshot() (market.Snapshot, error)
	Sources() []aggregator.SourceStatus
}

// Stats is the PnL tracker surface the status view reads.
type Stats interface {
	Summary() paper.Summary
	Recent(n int) []market.ExecutedTrade
}

// Progress reports cycles left in the run.
type Progress interface {
	Remaining() int
}

// Config describes the server dependencies.
type Config struct {
	Addr     string
	Mode     string
	Prices   Prices
	Stats    Stats
	Progress Progress
	Log      zerolog.Logger
}

// Server serves /healthz, /status and /metrics.
type Server struct {
	addr    string
	mode    string
	prices  Prices
	stats   Stats
	prog    Progress
	router  *gin.Engine
	started time.Time
	log     zerolog.Logger
}

// Response is the /status payload.
type Response struct {
	Mode      string                    `json:"mode"`
	Uptime    string                    `json:"uptime"`
	Remaining int                       `json:"remaining_cycles"`
	Available bool                      `json:"available"`
	Snapshot  *market.Snapshot          `json:"snapshot,omitempty"`
	SpreadBps float64                   `json:"spread_bps,omitempty"`
	Sources   []aggregator.SourceStatus `json:"sources"`
	Summary   paper.Summary             `json:"summary"`
	Recent    []market.ExecutedTrade    `json:"recent"`
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Prices == nil || cfg.Stats == nil {
		return nil, errors.New("status server requires prices and stats")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Log))

	s := &Server{
		addr:    cfg.Addr,
		mode:    cfg.Mode,
		prices:  cfg.Prices,
		stats:   cfg.Stats,
		prog:    cfg.Progress,
		router:  router,
		started: time.Now(),
		log:     cfg.Log,
	}
	s.registerRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/status", s.handleStatus)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Status())
}

// Status assembles the current view.
func (s *Server) Status() Response {
	resp := Response{
		Mode:    s.mode,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
		Sources: s.prices.Sources(),
		Summary: s.stats.Summary(),
		Recent:  s.stats.Recent(5),
	}
	if s.prog != nil {
		resp.Remaining = s.prog.Remaining()
	}
	if snap, err := s.prices.Snapshot(); err == nil && snap.Valid() {
		resp.Available = true
		resp.Snapshot = &snap
		resp.SpreadBps = snap.SpreadBps()
	}
	return resp
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info().Str("addr", s.addr).Msg("status server listening")

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
