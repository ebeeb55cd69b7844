package server

import (
	"context"
	"log/slog"
	"net/http"

	"dota-events-service/internal/announce"
	"dota-events-service/internal/clients"
	"dota-events-service/internal/config"
	"dota-events-service/internal/dispatch"
	"dota-events-service/internal/feed"
	httpserver "dota-events-service/internal/http"
	"dota-events-service/internal/kv"
	"dota-events-service/internal/lifecycle"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/metrics"
	"dota-events-service/internal/notify"
	"dota-events-service/internal/objectives"
	"dota-events-service/internal/resolver"
	"dota-events-service/internal/session"
	"dota-events-service/internal/sweeper"
	"dota-events-service/internal/wager"
)

var metricsSetup = metrics.Setup

// Server owns the wired service: feed ingestion over HTTP, the market
// lifecycle machinery behind it, and the sweeper that cleans up after dead
// feeds.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder

	httpServer    httpServer
	metricsServer httpServer
	sweeper       *sweeper.Sweeper
	metricsStop   func(context.Context) error
	closers       []func()
}

// New constructs a server from configuration, dialing Redis and NATS when
// configured and falling back to in-process implementations otherwise.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	rec, metricsSrv, metricsShutdown := buildMetrics(cfg, logger)
	s.metrics = rec
	s.metricsServer = metricsSrv
	s.metricsStop = metricsShutdown

	store, err := s.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	notifier, err := s.buildNotifier()
	if err != nil {
		return nil, err
	}
	platform := buildPlatform(cfg)
	upstream := buildUpstream(cfg, logger, rec)

	s.assemble(store, notifier, platform, upstream)
	return s, nil
}

// assemble wires the domain components onto the chosen infrastructure.
// Split out so tests can assemble a server on in-memory pieces.
func (s *Server) assemble(store kv.Store, notifier notify.Notifier, platform wager.Platform, upstream clients.Full) {
	res := resolver.New(upstream, upstream, store, s.logger, resolver.Options{})
	sched := announce.NewScheduler()
	s.closers = append(s.closers, sched.Stop)

	ctrl := lifecycle.New(store, platform, upstream, res, sched, notifier, s.logger, s.metrics, lifecycle.Options{})

	directory := buildDirectory(s.cfg)
	registry := session.NewRegistry(directory, s.logger)

	bus := dispatch.NewBus(s.logger, s.metrics)
	pipeline := feed.NewPipeline(registry, bus, ctrl, s.logger, s.metrics, nil)
	pipeline.RegisterHandlers(feed.HandlerDeps{
		Objectives: objectives.NewTracker(store, notifier, s.logger, nil),
		Announcer:  sched,
		Notifier:   notifier,
		Logger:     s.logger,
	})

	s.sweeper = sweeper.New(pipeline, ctrl, s.logger, s.cfg.SweepInterval, s.cfg.StaleAfter, nil)

	handler := httpserver.NewHandler(pipeline, s.logger, nil)
	router := httpserver.NewRouter(handler, nil)
	wrapped := httpserver.MetricsMiddleware(s.metrics, router)
	wrapped = httpserver.LoggingMiddleware(s.logger, wrapped)

	s.httpServer = newNetServer(s.cfg.Port, wrapped)
}

func (s *Server) buildStore(ctx context.Context) (kv.Store, error) {
	if s.cfg.Redis.Addr == "" {
		logging.Warn(s.logger, "no redis configured, match state will not survive restarts")
		return kv.NewMemoryStore(), nil
	}
	client, err := kv.DialRedis(ctx, s.cfg.Redis.Addr, s.cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { client.Close() })
	return kv.NewRedisStore(client), nil
}

func (s *Server) buildNotifier() (notify.Notifier, error) {
	if s.cfg.Nats.URL == "" {
		logging.Warn(s.logger, "no nats configured, overlay notifications stay in process")
		return notify.NewMemoryNotifier(), nil
	}
	conn, err := notify.Dial(s.cfg.Nats.URL)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, conn.Close)
	return notify.NewNATSNotifier(conn, s.cfg.Nats.SubjectPrefix), nil
}

func buildPlatform(cfg config.Config) wager.Platform {
	if cfg.Wager.BaseURL == "" {
		return wager.NewMemoryPlatform()
	}
	return wager.NewHTTPPlatform(wager.HTTPConfig{
		BaseURL:   cfg.Wager.BaseURL,
		AuthToken: cfg.Wager.AuthToken,
	})
}

func buildDirectory(cfg config.Config) session.UserDirectory {
	entries := make([]session.Entry, 0, len(cfg.Sessions))
	for _, entry := range cfg.Sessions {
		entries = append(entries, session.Entry{
			Token:     entry.Token,
			Name:      entry.Name,
			AccountID: entry.AccountID,
		})
	}
	return session.NewStaticDirectory(entries...)
}

func buildMetrics(cfg config.Config, logger *slog.Logger) (*metrics.Recorder, httpServer, func(context.Context) error) {
	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "error", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = newNetServer(recCfg.Port, handler)
	}
	return rec, metricsSrv, shutdown
}

// Run starts the sweeper and HTTP server, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.sweeper.Start(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	if s.sweeper != nil {
		if err := s.sweeper.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop sweeper", err)
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	for _, closeFn := range s.closers {
		closeFn()
	}

	logging.Info(s.logger, "shutdown complete")
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
