package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/cadence/internal/adapters/export"
	"github.com/okian/cadence/internal/adapters/http/api"
	"github.com/okian/cadence/internal/adapters/http/swagger"
	"github.com/okian/cadence/internal/adapters/storeclient"
	service "github.com/okian/cadence/internal/app"
	"github.com/okian/cadence/internal/config"
	"github.com/okian/cadence/pkg/logger"
	"github.com/okian/cadence/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second // exports relay the store's calendar
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Our collectors live on a custom registry; keep the default one empty.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return errors.Join(errors.New("failed to load config"), err)
	}

	if err := logger.InitWithOptions(logger.WithFormat(cfg.LogFormat)); err != nil {
		return errors.Join(errors.New("failed to initialize logging"), err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	session := newSession(cfg)
	if n, err := session.Refresh(ctx); err != nil {
		log.Warn(ctx, "initial refresh failed; starting with an empty working set", logger.Error(err))
	} else {
		log.Info(ctx, "working set loaded", logger.Int("events", n))
	}

	job, err := newExportJob(cfg, session)
	if err != nil {
		return err
	}
	if job != nil {
		if err := job.Start(ctx); err != nil {
			return err
		}
		defer job.Stop()
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, session),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return errors.Join(errors.New("HTTP server failed"), err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newSession builds the store client and the session over it.
func newSession(cfg *config.Config) *service.Session {
	client := storeclient.New(cfg.StoreBaseURL,
		storeclient.WithToken(cfg.StoreToken),
		storeclient.WithEmployerID(cfg.EmployerID),
		storeclient.WithTimeout(cfg.RequestTimeout()),
		storeclient.WithLogger(logger.Named("storeclient")),
	)
	return service.New(client,
		service.WithLogger(logger.Named("session")),
		service.WithLocation(cfg.Location()),
		service.WithICSDomain(cfg.ICSDomain),
	)
}

// newMux registers the API and docs routes.
func newMux(ctx context.Context, cfg *config.Config, session *service.Session) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(session, session, api.WithLocation(cfg.Location())).Register(ctx, mux)
	return mux
}

// newExportJob returns nil when scheduled export is disabled.
func newExportJob(cfg *config.Config, session *service.Session) (*export.Job, error) {
	if !cfg.ExportEnabled() {
		return nil, nil
	}
	return export.NewJob(cfg.ExportCron, session.ExportBlob, export.NewWriter(cfg.ExportDir),
		export.WithLocation(cfg.Location()),
		export.WithLogger(logger.Named("export")),
		export.WithRunTimeout(cfg.RequestTimeout()*2),
	)
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
