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
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-ops-api/api/swagger"
	"github.com/noah-isme/tutor-ops-api/internal/handler"
	"github.com/noah-isme/tutor-ops-api/internal/middleware"
	"github.com/noah-isme/tutor-ops-api/internal/models"
	"github.com/noah-isme/tutor-ops-api/internal/repository"
	"github.com/noah-isme/tutor-ops-api/internal/service"
	"github.com/noah-isme/tutor-ops-api/pkg/cache"
	"github.com/noah-isme/tutor-ops-api/pkg/config"
	"github.com/noah-isme/tutor-ops-api/pkg/database"
	"github.com/noah-isme/tutor-ops-api/pkg/jobs"
	"github.com/noah-isme/tutor-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-ops-api/pkg/middleware/requestid"
	"github.com/noah-isme/tutor-ops-api/pkg/notify"
	"github.com/noah-isme/tutor-ops-api/pkg/storage"
)

// @title Tutor Ops API
// @version 0.1.0
// @description Financial impact and reporting aggregation service for tutoring operations
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// Redis is optional; previews fall through to the aggregation engine
	// when it is unavailable.
	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, preview cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	downloadSigner := storage.NewDownloadTokenSigner(cfg.Reports.DownloadSecret, cfg.Reports.DownloadTTL)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logr)
	}

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	aggSvc := service.NewAggregationService(logr)
	refundSvc := service.NewRefundService(enrollmentRepo, metricsSvc, logr)
	exportSvc := service.NewExportService(exportStore, downloadSigner, metricsSvc, logr)

	var reportSvc *service.ReportService
	queue := jobs.NewQueue("report-builds", func(ctx context.Context, job jobs.Job) error {
		return reportSvc.HandleJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc = service.NewReportService(service.ReportServiceParams{
		Reports:     reportRepo,
		Enrollments: enrollmentRepo,
		Attendance:  attendanceRepo,
		Payments:    paymentRepo,
		Agg:         aggSvc,
		Queue:       queue,
		Cache:       cacheSvc,
		Notifier:    notifier,
		Metrics:     metricsSvc,
		Logger:      logr,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(rootCtx)
	defer queue.Stop()

	go runCleanup(rootCtx, exportSvc, reportSvc, logr, cfg.Reports.CleanupInterval, cfg.Reports.ResultTTL)

	feeRule := models.AdminFeeRule{
		PercentageOfRefund: cfg.Refunds.AdminFeePercent,
		MinimumFlatAmount:  decimal.NewFromFloat(cfg.Refunds.AdminFeeMinimum),
	}
	refundHandler := handler.NewRefundHandler(refundSvc, feeRule)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	handler.RegisterValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group(cfg.APIPrefix)
	{
		refunds := v1.Group("/refunds")
		refunds.POST("/preview", refundHandler.Preview)
		refunds.POST("/batch", refundHandler.Batch)
		refunds.GET("/policies", refundHandler.Policies)

		reports := v1.Group("/reports")
		reports.POST("", reportHandler.Create)
		reports.POST("/preview", reportHandler.Preview)
		reports.GET("", reportHandler.List)
		reports.GET("/download", reportHandler.Download)
		reports.GET("/:id", reportHandler.Get)
		reports.DELETE("/:id", reportHandler.Delete)
		reports.POST("/:id/export", reportHandler.Export)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// runCleanup periodically removes expired export files and purges finalized
// reports past their retention window.
func runCleanup(ctx context.Context, exports *service.ExportService, reports *service.ReportService, logr *zap.Logger, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exports.Cleanup(ttl)
			if _, err := reports.PurgeFinalizedBefore(ctx, time.Now().Add(-ttl), 100); err != nil {
				logr.Warn("report purge failed", zap.Error(err))
			}
		}
	}
}
