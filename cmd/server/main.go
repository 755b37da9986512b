package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/tabsplit/internal/auth"
	"github.com/mmynk/tabsplit/internal/config"
	"github.com/mmynk/tabsplit/internal/locker"
	"github.com/mmynk/tabsplit/internal/metrics"
	"github.com/mmynk/tabsplit/internal/middleware"
	"github.com/mmynk/tabsplit/internal/receipt"
	"github.com/mmynk/tabsplit/internal/service"
	"github.com/mmynk/tabsplit/internal/storage"
	"github.com/mmynk/tabsplit/internal/storage/memory"
	"github.com/mmynk/tabsplit/internal/storage/sqlite"
	"github.com/mmynk/tabsplit/pkg/api"
	"github.com/mmynk/tabsplit/pkg/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	lockTTL         = 15 * time.Second
)

func main() {
	logger := logging.Setup()
	if err := run(logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "backend", cfg.Store, "database", cfg.DBPath)

	locks, closeLocks, err := openLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocks()

	var extractor receipt.Extractor
	if cfg.ExtractorURL != "" {
		extractor = receipt.NewHTTPExtractor(cfg.ExtractorURL, cfg.ExtractorAPIKey, cfg.ExtractorTimeout)
	} else {
		logger.Warn("EXTRACTOR_URL not set, receipt scanning disabled")
	}

	m := metrics.New()
	deps := routerDeps{
		store:     store,
		metrics:   m,
		staticDir: cfg.StaticPath,
		logger:    logger,
	}

	// Outermost first: metrics see every call, logging sees the caller.
	interceptors := []connect.Interceptor{middleware.MetricsInterceptor(m)}
	if cfg.AuthEnabled() {
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager))

		authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger)
		path, handler := api.NewAuthServiceHandler(authSvc, connect.WithInterceptors(
			middleware.MetricsInterceptor(m),
			middleware.OptionalAuth(jwtManager),
			middleware.LoggingInterceptor(logger),
		))
		deps.services = append(deps.services, mount{path, handler})
	} else {
		interceptors = append(interceptors, middleware.FixedUser(config.DevUserID))
	}
	interceptors = append(interceptors, middleware.LoggingInterceptor(logger))
	opts := connect.WithInterceptors(interceptors...)

	sessionPath, sessionHandler := api.NewSessionServiceHandler(service.NewSessionService(store, locks, m, logger), opts)
	receiptPath, receiptHandler := api.NewReceiptServiceHandler(service.NewReceiptService(extractor, cfg.MaxUploadBytes, m, logger), opts)
	deps.services = append(deps.services, mount{sessionPath, sessionHandler}, mount{receiptPath, receiptHandler})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(newRouter(deps), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Connect server starting", "address", srv.Addr, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), nil
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	return store, nil
}

func openLocker(ctx context.Context, cfg *config.Config) (locker.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return locker.NewLocal(), func() {}, nil
	}
	client, err := locker.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Using Redis session locks")
	return locker.NewRedis(client, lockTTL), func() { client.Close() }, nil
}
