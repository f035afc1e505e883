package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/shotline/internal/adapters/http/api"
	"github.com/okian/shotline/internal/adapters/http/swagger"
	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/adapters/storage/postgres"
	"github.com/okian/shotline/internal/adapters/storage/sqlite"
	app "github.com/okian/shotline/internal/app"
	"github.com/okian/shotline/internal/config"
	"github.com/okian/shotline/pkg/logger"
	"github.com/okian/shotline/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// envFileVar names the optional dotenv file loaded before configuration.
const envFileVar = "SHOTLINE_ENV_FILE"

// storeHandle is the record store chosen by configuration. closer is nil
// when the service owns the store.
type storeHandle struct {
	store  repository.Store
	source repository.ShotSource
	closer io.Closer
}

func main() {
	// We collect our own system metrics instead of the default collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loadEnvFile(); err != nil {
		loggerInstance.Warn(ctx, "failed to load env file", logger.Error(err))
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	handle, err := openStore(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open store", logger.String("driver", cfg.StoreDriver), logger.Error(err))
		return
	}
	if handle.closer != nil {
		defer func() {
			if err := handle.closer.Close(); err != nil {
				loggerInstance.Error(ctx, "failed to close store", logger.Error(err))
			}
		}()
	}

	svc := app.New(serviceOptions(cfg, handle, loggerInstance)...)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// loadEnvFile loads SHOTLINE_ENV_FILE (default .env) into the process
// environment. A missing file is not an error.
func loadEnvFile() error {
	path := os.Getenv(envFileVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// openStore opens the record store selected by cfg.StoreDriver. The memory
// driver returns an empty handle and lets the service create its own store.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (storeHandle, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return storeHandle{}, nil
	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath, sqlite.WithLogger(log.Named("sqlite")))
		if err != nil {
			return storeHandle{}, err
		}
		return storeHandle{store: st, source: st, closer: st}, nil
	case config.DriverPostgres:
		st, err := postgres.Open(ctx, cfg.PostgresURL, postgres.WithLogger(log.Named("postgres")))
		if err != nil {
			return storeHandle{}, err
		}
		return storeHandle{store: st, closer: st}, nil
	default:
		return storeHandle{}, fmt.Errorf("%w: unknown store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

func serviceOptions(cfg *config.Config, handle storeHandle, log logger.Logger) []app.Option {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithThresholds(cfg.Thresholds()),
	}
	if handle.store != nil {
		opts = append(opts, app.WithStore(handle.store))
	}
	if handle.source != nil {
		opts = append(opts, app.WithShotSource(handle.source))
	}
	return opts
}

// newMux registers the business API and the API docs on a fresh mux.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.SummaryMinSample).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics pulls stats from the service. GetStats already
// refreshes the stored-record and worker gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
		if size, ok := stats["queueSize"].(int); ok && size > 0 {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(size))
		}
	}
}
