package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/campus-reservation/internal/application"
	"github.com/example/campus-reservation/internal/config"
	httptransport "github.com/example/campus-reservation/internal/http"
	"github.com/example/campus-reservation/internal/lock"
	"github.com/example/campus-reservation/internal/logging"
	"github.com/example/campus-reservation/internal/persistence"
	"github.com/example/campus-reservation/internal/persistence/memory"
	"github.com/example/campus-reservation/internal/persistence/sqlite"
	"github.com/example/campus-reservation/internal/persistence/sqlite/migration"
	"github.com/example/campus-reservation/internal/telemetry"
)

const serviceName = "campus-reservation"

// store is the union of repositories and lifecycle hooks the services need.
type store interface {
	application.ReservationStore
	persistence.KeyManagerRepository
	httptransport.Pinger
	Close() error
}

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		bootstrap.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.OTELEndpoint,
		Enabled:     cfg.TracingEnabled(),
	})
	if err != nil {
		return fmt.Errorf("configure tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	storage, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	locker, closeLocker, err := newLocker(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(cfg, storage, locker, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening",
		"addr", server.Addr,
		"storage", cfg.StorageDriver,
		"lock_backend", cfg.LockBackend,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; reservations are lost on restart")
		return memory.New(), nil
	default:
		sqliteCfg := migration.DefaultSQLiteConfig(cfg.SQLitePath)
		if cfg.SQLiteBusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.SQLiteBusyTimeout
		}
		storage, err := sqlite.Open(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return storage, nil
	}
}

// newLocker returns the admission locker and a function releasing its resources.
func newLocker(cfg config.Config, logger *slog.Logger) (lock.Locker, func(), error) {
	if cfg.LockBackend != config.LockRedis {
		return lock.NewLocal(), func() {}, nil
	}
	if cfg.RedisAddr == "" {
		return nil, nil, errors.New("redis lock backend requires an address")
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	locker := lock.NewRedis(client, lock.RedisOptions{TTL: cfg.LockTTL, Logger: logger})
	return locker, func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}, nil
}

func newHandler(cfg config.Config, storage store, locker lock.Locker, logger *slog.Logger) http.Handler {
	idGenerator := uuid.NewString
	now := time.Now

	reservationService := application.NewReservationServiceWithLogger(storage, locker, idGenerator, now, logger)
	blackoutService := application.NewBlackoutServiceWithLogger(storage, idGenerator, now, logger)
	keyManagerService := application.NewKeyManagerServiceWithLogger(storage, idGenerator, now, logger)
	campusService := application.NewCampusServiceWithLogger(storage, cfg.CampusCacheTTL, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Blackouts:    httptransport.NewBlackoutHandler(blackoutService, logger),
		KeyManagers:  httptransport.NewKeyManagerHandler(keyManagerService, logger),
		Campuses:     httptransport.NewCampusHandler(campusService, logger),
		Health:       httptransport.NewHealthHandler(storage, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Localize(),
			httptransport.RequireIdentity(logger, httptransport.HealthPath),
		},
	})
}
