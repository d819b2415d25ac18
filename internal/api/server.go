package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nerrad567/terrain-web/internal/embedpage"
	"github.com/nerrad567/terrain-web/internal/infrastructure/config"
	"github.com/nerrad567/terrain-web/internal/infrastructure/influxdb"
	"github.com/nerrad567/terrain-web/internal/infrastructure/logging"
	"github.com/nerrad567/terrain-web/internal/infrastructure/mqtt"
	"github.com/nerrad567/terrain-web/internal/launchlog"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// LaunchStatsProvider reports async recorder counters for /metrics.
type LaunchStatsProvider interface {
	Stats() launchlog.AsyncStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	Site   config.SiteConfig
	Logger *logging.Logger
	Page   *embedpage.Assembler

	// Assets serves static files at the site root. Optional.
	Assets http.Handler

	// Recorder receives one event per rendered page. Optional.
	Recorder launchlog.Recorder

	// Launches backs GET /api/v1/launches. Optional; nil answers 404.
	Launches launchlog.Lister

	// LaunchStats adds recorder counters to /metrics. Optional.
	LaunchStats LaunchStatsProvider

	DB       *sql.DB
	MQTT     *mqtt.Client
	InfluxDB *influxdb.Client
	Version  string
}

// Server is the HTTP server for Terrain Web.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	site        config.SiteConfig
	logger      *logging.Logger
	page        *embedpage.Assembler
	assets      http.Handler
	recorder    launchlog.Recorder
	launches    launchlog.Lister
	launchStats LaunchStatsProvider
	db          *sql.DB
	mqtt        *mqtt.Client
	influx      *influxdb.Client
	version     string
	startTime   time.Time
	server      *http.Server

	renders atomic.Uint64
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Page == nil {
		return nil, fmt.Errorf("page assembler is required")
	}

	recorder := deps.Recorder
	if recorder == nil {
		recorder = launchlog.Nop{}
	}

	return &Server{
		cfg:         deps.Config,
		site:        deps.Site,
		logger:      deps.Logger,
		page:        deps.Page,
		assets:      deps.Assets,
		recorder:    recorder,
		launches:    deps.Launches,
		launchStats: deps.LaunchStats,
		db:          deps.DB,
		mqtt:        deps.MQTT,
		influx:      deps.InfluxDB,
		version:     deps.Version,
		startTime:   time.Now(),
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
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

// Renders returns the number of pages rendered since start.
func (s *Server) Renders() uint64 {
	return s.renders.Load()
}
