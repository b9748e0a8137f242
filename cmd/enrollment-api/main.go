package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ebta/enrollment-api/api/swagger"
	"github.com/ebta/enrollment-api/internal/handler"
	"github.com/ebta/enrollment-api/internal/middleware"
	"github.com/ebta/enrollment-api/internal/repository"
	"github.com/ebta/enrollment-api/internal/service"
	"github.com/ebta/enrollment-api/pkg/cache"
	"github.com/ebta/enrollment-api/pkg/config"
	"github.com/ebta/enrollment-api/pkg/database"
	"github.com/ebta/enrollment-api/pkg/jobs"
	"github.com/ebta/enrollment-api/pkg/logger"
	corsmiddleware "github.com/ebta/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ebta/enrollment-api/pkg/middleware/requestid"
	"github.com/ebta/enrollment-api/pkg/notifier"
	"github.com/ebta/enrollment-api/pkg/qrtoken"
	"github.com/ebta/enrollment-api/pkg/storage"
)

// @title EBTA Enrollment API
// @version 1.0.0
// @description Paid subject enrollment, status pages and QR attendance check-in
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, settings cache disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}

	// repositories
	students := repository.NewStudentRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	subjects := repository.NewSubjectRepository(db)
	registrations := repository.NewRegistrationRepository(db)
	sessions := repository.NewSessionRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	users := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()
	settingsSvc := service.NewSettingsService(settingsRepo, cacheRepo, cfg.Settings.CacheTTL, logr)
	feeSvc := service.NewFeeService()
	registrarSvc := service.NewRegistrationService(
		students, enrollments, subjects, registrations, settingsSvc, feeSvc, store,
		service.RegistrationConfig{
			AllowedExtensions: cfg.Uploads.AllowedExtensions,
			StatusBaseURL:     cfg.Portal.BaseURL,
		}, nil, logr)
	statusSvc := service.NewStatusService(enrollments, cfg.Portal.GroupInvite, logr)
	authSvc := service.NewAuthService(users, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	adminSvc := service.NewAdminService(enrollments, registrations, logr)
	subjectSvc := service.NewSubjectService(subjects, logr)

	sender := notifier.New(cfg.Notifier, logr)
	queue := jobs.NewQueue("notifications", service.NewNotificationHandler(sender, metricsSvc, logr), jobs.QueueConfig{
		Workers:    cfg.Notifier.Workers,
		MaxRetries: cfg.Notifier.MaxRetries,
		Logger:     logr,
	})
	queue.Start(context.Background())
	defer queue.Stop()

	approvalSvc := service.NewApprovalService(enrollments, students, queue, cfg.Portal.BaseURL, cfg.Portal.LoginURL, logr)
	signer := qrtoken.NewSigner(cfg.CheckIn.TokenSecret, cfg.CheckIn.TokenTTL)
	checkInSvc := service.NewCheckInService(sessions, students, enrollments, attendance, settingsSvc, signer,
		cfg.Portal.BaseURL, cfg.CheckIn.QRSize, logr)

	if err := subjectSvc.SeedCatalog(context.Background()); err != nil {
		logr.Sugar().Warnw("subject catalog seeding failed", "error", err)
	}

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	registrationHandler := handler.NewRegistrationHandler(registrarSvc, metricsSvc)
	statusHandler := handler.NewStatusHandler(statusSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(adminSvc, approvalSvc, metricsSvc)
	sessionHandler := handler.NewSessionHandler(checkInSvc, metricsSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
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
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

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
	r.GET("/metrics", metricsHandler.Scrape)

	// public surface
	r.GET("/subjects", subjectHandler.List)
	r.GET("/fees/quote", registrationHandler.Quote)
	r.POST("/register", registrationHandler.Register)
	r.GET("/status/:id", statusHandler.Status)
	r.GET("/attend", sessionHandler.Describe)
	r.POST("/attend", sessionHandler.CheckIn)
	r.Static("/uploads", store.BaseDir())

	r.POST("/auth/login", authHandler.Login)

	// admin surface
	admin := r.Group("/admin", middleware.JWT(authSvc))
	admin.GET("/me", authHandler.Me)
	admin.GET("/enrollments", enrollmentHandler.List)
	admin.GET("/enrollments/export", enrollmentHandler.Export)
	admin.POST("/enrollments/:id/approve", enrollmentHandler.Approve)
	admin.POST("/enrollments/:id/lapse", enrollmentHandler.Lapse)
	admin.GET("/registrations", enrollmentHandler.Registrations)
	admin.GET("/sessions", sessionHandler.List)
	admin.GET("/sessions/:id/qr", sessionHandler.QR)
	admin.GET("/attendance", sessionHandler.Attendance)
	admin.GET("/settings", settingsHandler.Get)
	admin.PUT("/settings", settingsHandler.Update)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
