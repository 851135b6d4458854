package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tunedash-backend/api/routes"
	"github.com/angelmondragon/tunedash-backend/internal/dashboard"
	"github.com/angelmondragon/tunedash-backend/internal/localstore"
	"github.com/angelmondragon/tunedash-backend/internal/notifications"
	"github.com/angelmondragon/tunedash-backend/pkg/config"
	"github.com/angelmondragon/tunedash-backend/pkg/db"
	"github.com/angelmondragon/tunedash-backend/pkg/instance"
	"github.com/angelmondragon/tunedash-backend/pkg/logger"
	"github.com/angelmondragon/tunedash-backend/pkg/metrics"
	"github.com/angelmondragon/tunedash-backend/pkg/migrate"
	"github.com/angelmondragon/tunedash-backend/pkg/notifapi"
	"github.com/angelmondragon/tunedash-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	factory, err := feedSourceFactory(cfg.Feed, notificationsService, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to configure feed source", err)
		os.Exit(1)
	}

	manager, err := dashboard.NewManager(factory, dashboard.SessionOptions{
		Logger:         logg,
		Metrics:        metrics.NewFeedMetrics(prometheus.DefaultRegisterer),
		PersistTimeout: cfg.Feed.PersistTimeout,
		IdleTTL:        cfg.Feed.SessionTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create feed manager", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"instance":    instance.GetID("local"),
		"feed_source": cfg.Feed.SourceKind(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, notificationsService, manager, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go manager.RunEviction(sigCtx, time.Minute)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = multierr.Combine(
		runErr,
		server.Shutdown(shutdownCtx),
		closeManager(shutdownCtx, manager),
		redisClient.Close(),
		dbClient.Close(),
	)
	if err != nil {
		logg.Error(ctx, "api server stopped with errors", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

// feedSourceFactory builds the per-account source for the configured backend.
func feedSourceFactory(cfg config.FeedConfig, svc notifications.Service, redisClient *redis.Client) (dashboard.SourceFactory, error) {
	switch cfg.SourceKind() {
	case config.FeedSourceRemote:
		client, err := notifapi.New(cfg.RemoteBaseURL, notifapi.Options{
			Timeout:  cfg.RemoteTimeout,
			PageSize: cfg.RemotePageSize,
		})
		if err != nil {
			return nil, err
		}
		return func(string) (dashboard.Source, error) {
			return dashboard.NewRemoteSource(client)
		}, nil
	case config.FeedSourceRedis:
		return func(accountID string) (dashboard.Source, error) {
			store, err := localstore.New(redisClient, accountID)
			if err != nil {
				return nil, err
			}
			seed, err := dashboard.NewServiceSource(svc, accountID)
			if err != nil {
				return nil, err
			}
			return dashboard.NewSeededSource(store, seed)
		}, nil
	default:
		return func(accountID string) (dashboard.Source, error) {
			return dashboard.NewServiceSource(svc, accountID)
		}, nil
	}
}

// closeManager waits for pending read-state writes, giving up at the
// shutdown deadline.
func closeManager(ctx context.Context, manager *dashboard.Manager) error {
	done := make(chan struct{})
	go func() {
		manager.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
