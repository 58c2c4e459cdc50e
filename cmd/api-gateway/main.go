package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-substitute-api/api/swagger"
	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-substitute-api/internal/middleware"
	"github.com/noah-isme/sma-substitute-api/internal/repository"
	"github.com/noah-isme/sma-substitute-api/internal/service"
	"github.com/noah-isme/sma-substitute-api/pkg/cache"
	"github.com/noah-isme/sma-substitute-api/pkg/config"
	"github.com/noah-isme/sma-substitute-api/pkg/database"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
	"github.com/noah-isme/sma-substitute-api/pkg/jobs"
	"github.com/noah-isme/sma-substitute-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-substitute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-substitute-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-substitute-api/pkg/storage"
)

// @title Substitute Teacher API
// @version 1.0.0
// @description Assigns substitute teachers to periods left vacant by absent staff.
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Substitute.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, substitute cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	timetableRepo := repository.NewTimetableRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	recordRepo := repository.NewSubstituteRecordRepository(db)
	runRepo := repository.NewSubstituteRunRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Substitute.CacheTTL, logr, cfg.Substitute.CacheEnabled && redisClient != nil)
	substituteSvc := service.NewSubstituteService(
		timetableRepo, rosterRepo, leaveRepo, recordRepo, runRepo, db,
		cacheSvc, metricsSvc, validate, logr,
		service.SubstituteServiceConfig{
			Engine:   service.NewEngineConfig(cfg.Substitute),
			Seed:     cfg.Substitute.RandomSeed,
			TermID:   cfg.Substitute.TermID,
			CacheTTL: cfg.Substitute.CacheTTL,
		},
	)
	leaveSvc := service.NewLeaveService(timetableRepo, leaveRepo, db, validate, logr, cfg.Substitute.TermID)

	runQueue := jobs.NewQueue[dto.SubstituteRunRequest]("substitute-runs", substituteSvc.ProcessQueued, jobs.QueueConfig{
		Workers:    cfg.Jobs.WorkerConcurrency,
		MaxRetries: cfg.Jobs.WorkerRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	runQueue.OnExhausted(substituteSvc.FailQueued)
	runQueue.Start(ctx)
	defer runQueue.Stop()
	substituteSvc.AttachQueue(runQueue)

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(
		substituteSvc, files, signer,
		export.NewCSVExporter(), export.NewPDFExporter(cfg.Reports.PDFFontPath),
		cacheSvc, validate, logr,
		service.ReportConfig{
			APIPrefix:       cfg.APIPrefix,
			CleanupInterval: cfg.Reports.CleanupInterval,
			RetentionTTL:    cfg.Reports.RetentionTTL,
		},
	)
	reportSvc.StartCleanup(ctx)

	checks := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: cacheRepo.Ping})
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks...)
	substituteHandler := handler.NewSubstituteHandler(substituteSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)

	substitutes := api.Group("/substitutes")
	substitutes.GET("", substituteHandler.List)
	substitutes.POST("/preview", substituteHandler.Preview)
	substitutes.POST("/runs", substituteHandler.Run)
	substitutes.GET("/runs/:id", substituteHandler.RunStatus)
	substitutes.POST("/candidates", substituteHandler.Candidates)
	substitutes.GET("/report", reportHandler.Summary)
	substitutes.POST("/report/export", reportHandler.Export)
	substitutes.GET("/report/download", reportHandler.Download)

	leaves := api.Group("/leaves")
	leaves.POST("", leaveHandler.Create)
	leaves.GET("", leaveHandler.List)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
