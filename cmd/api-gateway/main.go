package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-proxy-api/api/swagger"
	"github.com/noah-isme/sma-proxy-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-proxy-api/internal/middleware"
	"github.com/noah-isme/sma-proxy-api/internal/repository"
	"github.com/noah-isme/sma-proxy-api/internal/service"
	"github.com/noah-isme/sma-proxy-api/pkg/cache"
	"github.com/noah-isme/sma-proxy-api/pkg/config"
	"github.com/noah-isme/sma-proxy-api/pkg/database"
	"github.com/noah-isme/sma-proxy-api/pkg/export"
	"github.com/noah-isme/sma-proxy-api/pkg/jobs"
	"github.com/noah-isme/sma-proxy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-proxy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-proxy-api/pkg/middleware/requestid"
)

// @title SMA Proxy API
// @version 1.0.0
// @description Substitute teacher recommendation and assignment registry
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.RosterCache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, roster cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.RosterCache.TTL, logr, redisClient != nil)

	audit := service.NewAuditDispatcher(repository.NewAuditRepository(db), jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	audit.Start(ctx)
	defer audit.Stop()

	proxyRepo := repository.NewProxyRepository(db)
	proxySvc := service.NewProxyService(
		repository.NewTeacherRepository(db),
		repository.NewPeriodRepository(db),
		repository.NewScheduleSlotRepository(db),
		repository.NewAbsenceRepository(db),
		proxyRepo,
		cacheSvc,
		audit,
		metrics,
		validate,
		logr,
		service.ProxyServiceConfig{
			CommitTimeout: cfg.Proxy.CommitTimeout,
			MaxBatch:      cfg.Proxy.MaxBatch,
			RosterTTL:     cfg.RosterCache.TTL,
		},
	)

	deps := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		deps["redis"] = cacheRepo
	}

	routes := handler.Routes{
		Proxy:   handler.NewProxyHandler(proxySvc),
		Metrics: handler.NewMetricsHandler(metrics, deps),
		Auth:    internalmiddleware.JWT(service.NewTokenService(cfg.JWT)),
	}
	if cfg.Register.Enabled {
		registerSvc := service.NewRegisterService(proxySvc, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Register.Title, validate, logr)
		routes.Register = handler.NewRegisterHandler(registerSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.Mount(r, cfg.APIPrefix, routes)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
