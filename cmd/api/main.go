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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/yenja7/onboarding-api/api/swagger"
	"github.com/yenja7/onboarding-api/internal/handler"
	"github.com/yenja7/onboarding-api/internal/middleware"
	"github.com/yenja7/onboarding-api/internal/models"
	"github.com/yenja7/onboarding-api/internal/repository"
	"github.com/yenja7/onboarding-api/internal/service"
	"github.com/yenja7/onboarding-api/pkg/cache"
	"github.com/yenja7/onboarding-api/pkg/config"
	"github.com/yenja7/onboarding-api/pkg/database"
	"github.com/yenja7/onboarding-api/pkg/geocode"
	"github.com/yenja7/onboarding-api/pkg/jobs"
	"github.com/yenja7/onboarding-api/pkg/logger"
	corsmiddleware "github.com/yenja7/onboarding-api/pkg/middleware/cors"
	reqidmiddleware "github.com/yenja7/onboarding-api/pkg/middleware/requestid"
	"github.com/yenja7/onboarding-api/pkg/storage"
)

// @title Yenja7 Onboarding API
// @version 1.0.0
// @description Business onboarding wizard and admin review API
// @BasePath /api/v1
// @schemes http https

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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	changeRequestRepo := repository.NewChangeRequestRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	draftRepo := repository.NewDraftRepository(redisClient, cfg.Drafts.TTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "onboarding-api",
	})

	geocoder := geocode.NewClient(geocode.ClientConfig{
		BaseURL:   cfg.Geocode.BaseURL,
		UserAgent: cfg.Geocode.UserAgent,
		Timeout:   cfg.Geocode.Timeout,
	})

	wizardSvc := service.NewWizardService(draftRepo, nil, logr)
	addressSvc := service.NewAddressService(draftRepo, geocoder, metricsSvc, logr)

	assemblerSvc := service.NewAssemblerService(draftRepo, submissionRepo, uploadStore, nil, cacheSvc, metricsSvc, service.AssemblerConfig{
		MaxImages:         cfg.Uploads.MaxImages,
		CompressThreshold: cfg.Uploads.CompressThreshold,
		MaxDimension:      cfg.Uploads.MaxDimension,
		JPEGQuality:       cfg.Uploads.JPEGQuality,
		PublicBaseURL:     cfg.Uploads.PublicBaseURL,
	}, logr)

	reviewSvc := service.NewReviewService(submissionRepo, userRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	businessSvc := service.NewBusinessService(submissionRepo, changeRequestRepo, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background queues. The cleanup queue deletes orphaned upload objects
	// after a failed assembly; the export queue renders submission exports.
	cleanupQueue := jobs.NewQueue("upload-cleanup", assemblerSvc.HandleCleanup, jobs.QueueConfig{
		Workers: 1,
		Logger:  logr,
	})
	cleanupQueue.Start(rootCtx)
	defer cleanupQueue.Stop()
	assemblerSvc.SetCleanupQueue(cleanupQueue)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		var exportQueue *jobs.Queue
		exportSvc = service.NewExportService(exportJobRepo, submissionRepo, exportStore, signer, jobs.EnqueuerFunc(func(job jobs.Job) error {
			return exportQueue.Enqueue(job)
		}), cfg.APIPrefix+"/admin/exports/download", logr)
		exportQueue = jobs.NewQueue("exports", exportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(rootCtx)
		defer exportQueue.Stop()

		go exportSvc.RunCleanup(rootCtx, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	wizardHandler := handler.NewWizardHandler(wizardSvc, addressSvc, assemblerSvc)
	geocodeHandler := handler.NewGeocodeHandler(addressSvc)
	businessHandler := handler.NewBusinessHandler(businessSvc)
	adminHandler := handler.NewAdminHandler(reviewSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static("/uploads", cfg.Uploads.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	wizard := api.Group("/wizard", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleOwner))
	{
		wizard.POST("/start", wizardHandler.Start)
		wizard.GET("", wizardHandler.Get)
		wizard.POST("/category", wizardHandler.SubmitCategory)
		wizard.POST("/identity", wizardHandler.SubmitIdentity)
		wizard.POST("/address", wizardHandler.SubmitAddress)
		wizard.POST("/device-location", wizardHandler.UseDeviceLocation)
		wizard.POST("/hours", wizardHandler.SubmitHours)
		wizard.POST("/contact", wizardHandler.SubmitContact)
		wizard.POST("/back", wizardHandler.Back)
		wizard.POST("/finish", wizardHandler.Finish)
	}

	api.GET("/geocode/reverse", middleware.JWT(authSvc), geocodeHandler.Reverse)

	my := api.Group("/my", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleOwner))
	{
		my.GET("/submissions", businessHandler.ListMySubmissions)
		my.GET("/business", businessHandler.MyBusiness)
		my.GET("/business/change-requests", businessHandler.ListChangeRequests)
		my.POST("/business/change-requests",
			middleware.Audit(auditRepo, models.AuditActionChangeRequest, "change_request"),
			businessHandler.SubmitChangeRequest)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), middleware.WithResponseMeta())
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.PATCH("/submissions/:id/status",
			middleware.Audit(auditRepo, models.AuditActionStatusUpdate, "submission"),
			adminHandler.UpdateStatus)
		if cfg.Exports.Enabled {
			admin.POST("/exports",
				middleware.Audit(auditRepo, models.AuditActionExportEnqueue, "export_job"),
				adminHandler.EnqueueExport)
			admin.GET("/exports/:id", adminHandler.ExportStatus)
			admin.GET("/exports/download/:token", adminHandler.DownloadExport)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
