package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/cache"
	"github.com/glowscan/skincare-admin/internal/config"
	"github.com/glowscan/skincare-admin/internal/database"
	"github.com/glowscan/skincare-admin/internal/handler"
	"github.com/glowscan/skincare-admin/internal/llm"
	"github.com/glowscan/skincare-admin/internal/logging"
	"github.com/glowscan/skincare-admin/internal/metrics"
	"github.com/glowscan/skincare-admin/internal/middleware"
	"github.com/glowscan/skincare-admin/internal/repository"
	"github.com/glowscan/skincare-admin/internal/router"
	"github.com/glowscan/skincare-admin/internal/service"
	"github.com/glowscan/skincare-admin/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mc, err := cfg.MySQL()
	if err != nil {
		return err
	}
	if cfg.DBAutoMigrate {
		if err := database.RunMigrations(mc, logger.Named("migrate")); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db, err := database.Open(ctx, mc, logger.Named("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Redis is optional: without it rate limiting and the routine cache are off.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unreachable, rate limiting and routine cache disabled", zap.String("addr", cfg.Redis.Address()))
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gen, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}
	routines := service.NewRoutineService(gen,
		cache.NewRoutineCache(cfg.RoutineCache, rdb, logger),
		m,
		service.RoutineOptions{Timeout: cfg.LLM.Timeout, MaxRetries: cfg.LLM.MaxRetries},
		logger)

	dummyHash, err := utils.NewDummyHash(cfg.BcryptCost)
	if err != nil {
		return err
	}

	adminRepo := repository.NewAdminRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	userRepo := repository.NewUserRepo(db)
	scanRepo := repository.NewScanRepo(db)
	recRepo := repository.NewRecommendationRepo(db)

	handlers := router.AdminHandlers{
		Auth: handler.NewAuthHandler(handler.AuthSettings{
			JWTSecret:      cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
		}, adminRepo, tokenRepo, dummyHash, logger),
		Dashboard: handler.NewDashboardHandler(userRepo, scanRepo, time.Now, logger),
		Scans: handler.NewScanHandler(scanRepo, recRepo,
			service.NewAuditPublisher(cfg.RabbitMQ, logger), m, cfg.LLM.ModelVersion, logger),
		Routine: handler.NewRoutineHandler(routines, logger),
	}

	authLimit := cfg.RateLimit
	authLimit.KeyStrategy = "ip_route"
	routineLimit := cfg.RateLimit
	routineLimit.KeyStrategy = "admin_route"
	limiters := router.Limiters{
		Auth:    middleware.NewTokenBucket(authLimit, rdb, logger),
		Routine: middleware.NewTokenBucket(routineLimit, rdb, logger),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger.Named("http"))
	router.RegisterMiddleware(e, cfg.APIPrefix, logger.Named("http"), m)
	router.RegisterRoutes(e, handler.NewReadyHandler(db, rdb, logger), handler.NewUploadsHandler(cfg.UploadsDir), reg)
	router.RegisterAdmin(e, cfg.APIPrefix, handlers, cfg.JWTSecret, limiters)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("prefix", cfg.APIPrefix))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
