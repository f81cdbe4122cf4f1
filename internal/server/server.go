package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/eduforge/internal/logging"
	"github.com/abhisek/eduforge/internal/observability"
	"github.com/abhisek/eduforge/internal/pipeline"
	"github.com/abhisek/eduforge/internal/store"
)

// Config controls the HTTP surface.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	CORSOrigins    []string
	ServiceName    string
	Version        string
}

// Options carries the collaborators of a Server. Runs may be nil, in which
// case nothing is persisted and /runs answers 404.
type Options struct {
	Recorder *pipeline.Recorder
	Runs     store.RunRepo
	Log      *logging.Logger
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
}

// Server is the HTTP API in front of the pipeline.
type Server struct {
	cfg     Config
	rec     *pipeline.Recorder
	runs    store.RunRepo
	log     *logging.Logger
	metrics *observability.Metrics
	engine  *gin.Engine
}

// New builds a Server and its routes.
func New(cfg Config, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "eduforge"
	}

	s := &Server{
		cfg:     cfg,
		rec:     opts.Recorder,
		runs:    opts.Runs,
		log:     opts.Log,
		metrics: opts.Metrics,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.CustomRecovery(s.recoverPanic))
	engine.Use(otelgin.Middleware(cfg.ServiceName))
	engine.Use(requestLogger(s.log))
	engine.Use(observeHTTP(s.metrics))
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	engine.POST("/generate",
		rateLimit(cfg.RateLimit, cfg.RateBurst),
		requestTimeout(cfg.RequestTimeout),
		s.handleGenerate,
	)

	runs := engine.Group("/runs")
	{
		runs.GET("", s.handleListRuns)
		runs.GET("/:id", s.handleGetRun)
	}

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to the request timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	grace := s.cfg.RequestTimeout
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	s.log.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.ExposeHeaders = []string{runIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.log.Error("panic while serving request", "path", c.Request.URL.Path, "panic", recovered)
	respondError(c, http.StatusInternalServerError, "internal", "internal error")
}
