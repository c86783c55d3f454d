package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/corecapital/autoreports-api/api/swagger"
	"github.com/corecapital/autoreports-api/internal/handler"
	"github.com/corecapital/autoreports-api/internal/ingest"
	"github.com/corecapital/autoreports-api/internal/middleware"
	"github.com/corecapital/autoreports-api/internal/repository"
	"github.com/corecapital/autoreports-api/internal/service"
	"github.com/corecapital/autoreports-api/pkg/cache"
	"github.com/corecapital/autoreports-api/pkg/config"
	"github.com/corecapital/autoreports-api/pkg/database"
	"github.com/corecapital/autoreports-api/pkg/jobs"
	"github.com/corecapital/autoreports-api/pkg/logger"
	corsmiddleware "github.com/corecapital/autoreports-api/pkg/middleware/cors"
	reqidmiddleware "github.com/corecapital/autoreports-api/pkg/middleware/requestid"
	"github.com/corecapital/autoreports-api/pkg/storage"

	"github.com/redis/go-redis/v9"
)

// @title Automatic Reports Consolidation API
// @version 1.0.0
// @description Roster reconciliation, schedule history, and teacher efficiency reporting
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, reports served uncached", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	staging, err := storage.NewStaging(cfg.Consolidation.StagingDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare staging directory", "error", err)
	}

	teacherRepo := repository.NewTeacherRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	layout := ingest.RosterLayout{
		HeaderRows: cfg.Ingest.HeaderRows,
		FooterRows: cfg.Ingest.FooterRows,
	}

	metricsSvc := service.NewMetricsService()
	consolidationSvc := service.NewConsolidationService(teacherRepo, scheduleRepo, invoiceRepo, staging, layout, logr)
	reportSvc := service.NewReportService(scheduleRepo, invoiceRepo, redisClient, cfg.Reports.CacheTTL, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, logr)

	queue := jobs.NewQueue(consolidationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Consolidation.WorkerConcurrency,
		MaxRetries: cfg.Consolidation.WorkerRetries,
		RetryDelay: cfg.Consolidation.RetryDelay,
		Logger:     logr,
	})
	queue.Start(context.Background())
	defer queue.Stop()

	consolidationSvc.SetQueue(queue)
	consolidationSvc.SetMetrics(metricsSvc)
	consolidationSvc.SetCacheInvalidator(reportSvc.InvalidateCache)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/metrics", metricsHandler.Scrape)

	consolidationHandler := handler.NewConsolidationHandler(consolidationSvc, cfg.Consolidation.MaxUploadBytes)
	reportHandler := handler.NewReportHandler(reportSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/consolidations", consolidationHandler.UploadAndProcess)
		api.GET("/consolidations/:date", consolidationHandler.Status)
		api.GET("/reports/efficiency", reportHandler.Efficiency)
		api.GET("/reports/consolidated", reportHandler.Consolidated)
		api.GET("/schedules", scheduleHandler.List)
		api.GET("/shift-groups", scheduleHandler.ShiftGroups)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
