// Package status serves the bot's operational endpoints: liveness, bridge
// health, loaded commands, background jobs and Prometheus metrics.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/keshon/bridge-bot/internal/bridge"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	bridgeCheckTimeout = 3 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// CommandInfo describes one loaded command.
type CommandInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Dynamic      bool     `json:"dynamic"`
	Placeholders []string `json:"placeholders,omitempty"`
}

// HealthChecker reports the bridge health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (*bridge.Health, error)
}

// JobLister reports the running background jobs.
type JobLister interface {
	List() []string
	Status() string
}

type Options struct {
	Addr     string
	Bridge   HealthChecker
	Commands func() []CommandInfo
	Jobs     JobLister
	Logger   zerolog.Logger
}

type Server struct {
	opts    Options
	started time.Time
	engine  *gin.Engine
}

func New(opts Options) *Server {
	s := &Server{opts: opts, started: time.Now()}
	s.engine = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.health)
	router.GET("/health/bridge", s.bridgeHealth)
	router.GET("/commands", s.commands)
	router.GET("/jobs", s.jobs)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) jobs(c *gin.Context) {
	if s.opts.Jobs == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []string{}, "summary": "No jobs are running."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": s.opts.Jobs.List(), "summary": s.opts.Jobs.Status()})
}

func (s *Server) bridgeHealth(c *gin.Context) {
	if s.opts.Bridge == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bridge not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), bridgeCheckTimeout)
	defer cancel()

	h, err := s.opts.Bridge.CheckHealth(ctx)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("bridge health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unreachable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) commands(c *gin.Context) {
	list := []CommandInfo{}
	if s.opts.Commands != nil {
		list = append(list, s.opts.Commands()...)
	}
	c.JSON(http.StatusOK, gin.H{"commands": list, "count": len(list)})
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", s.opts.Addr).Msg("status server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
