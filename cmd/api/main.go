package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/smounat/ecole-plus-api/api/swagger"
	"github.com/smounat/ecole-plus-api/internal/handler"
	"github.com/smounat/ecole-plus-api/internal/middleware"
	"github.com/smounat/ecole-plus-api/internal/repository"
	"github.com/smounat/ecole-plus-api/internal/service"
	"github.com/smounat/ecole-plus-api/pkg/cache"
	"github.com/smounat/ecole-plus-api/pkg/config"
	"github.com/smounat/ecole-plus-api/pkg/database"
	"github.com/smounat/ecole-plus-api/pkg/export"
	"github.com/smounat/ecole-plus-api/pkg/jobs"
	"github.com/smounat/ecole-plus-api/pkg/logger"
	corsmiddleware "github.com/smounat/ecole-plus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smounat/ecole-plus-api/pkg/middleware/requestid"
	"github.com/smounat/ecole-plus-api/pkg/notify"
	"github.com/smounat/ecole-plus-api/pkg/storage"
)

// @title École+ API
// @version 1.0.0
// @description School management backend: roles, progress, rewards, transport, payments
// @BasePath /api/v1
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Cached dashboards and game sessions degrade, the API stays up.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	parentRepo := repository.NewParentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	transportRepo := repository.NewTransportRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	gameSessions := repository.NewGameSessionRepository(redisClient, cfg.Games.SessionTTL)
	chatSessions := repository.NewChatSessionRepository(redisClient, cfg.Chatbot.SessionTTL)

	// Outbound delivery workers.
	emailSender := notify.NewSendgridSender(cfg.Notifications.SendgridKey, cfg.Notifications.FromName, cfg.Notifications.FromEmail)
	smsSender := notify.NewTwilioSender(cfg.Notifications.TwilioAccountSID, cfg.Notifications.TwilioAuthToken, cfg.Notifications.TwilioFromNumber)
	deliveryQueue := jobs.NewQueue("deliveries", service.NewDeliveryHandler(emailSender, smsSender, logr), jobs.Options{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		Logger:     logr,
	})

	files, err := storage.NewLocalStorage(cfg.Materials.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init material storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Materials.SignedURLSecret, cfg.Materials.SignedURLTTL)

	// Services.
	accessSvc := service.NewAccessService(logr)
	authSvc := service.NewAuthService(userRepo, accessSvc, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "ecole-plus-api",
	})
	notificationSvc := service.NewNotificationService(notificationRepo, deliveryQueue, logr)
	progressSvc := service.NewProgressService(gradeRepo, quizRepo, absenceRepo, badgeRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, teacherRepo, accessSvc, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, nil, logr)
	parentSvc := service.NewParentService(parentRepo, nil, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)
	gradeSvc := service.NewGradeService(gradeRepo, studentRepo, notificationSvc, export.NewCSVExporter(), nil, logr)
	absenceSvc := service.NewAbsenceService(absenceRepo, studentRepo, notificationSvc, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, quizRepo, files, signer, nil, logr)
	quizSvc := service.NewQuizService(quizRepo, courseRepo, badgeRepo, nil, logr)
	gameSvc := service.NewGameService(gameSessions, badgeRepo, studentRepo, courseRepo, problemRepo, cfg.Games.BadgeThreshold, logr)
	transportSvc := service.NewTransportService(transportRepo, studentRepo, notificationSvc, nil, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, notificationSvc, export.NewPDFExporter(), nil, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, nil, logr)
	metricsSvc := service.NewMetricsService()

	chatbotCfg := service.ChatbotConfig{
		Model:       cfg.Chatbot.Model,
		MaxTokens:   cfg.Chatbot.MaxTokens,
		Temperature: float32(cfg.Chatbot.Temperature),
	}
	var chatbotSvc *service.ChatbotService
	if cfg.Chatbot.APIKey != "" {
		chatbotSvc = service.NewChatbotService(openai.NewClient(cfg.Chatbot.APIKey), chatSessions, chatbotCfg, logr)
	} else {
		logr.Warn("chatbot API key missing, assistant disabled")
		chatbotSvc = service.NewChatbotService(nil, chatSessions, chatbotCfg, logr)
	}

	dashboardSvc := service.NewDashboardService(service.DashboardDeps{
		Students:      studentRepo,
		Teachers:      teacherRepo,
		Parents:       parentRepo,
		Grades:        gradeRepo,
		Absences:      absenceRepo,
		Badges:        badgeRepo,
		Transports:    transportRepo,
		Courses:       courseRepo,
		Quizzes:       quizRepo,
		Notifications: notificationRepo,
		Progress:      progressSvc,
	}, cacheRepo, cfg.Dashboard.CacheTTL, logr)

	handlers := handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc, accessSvc),
		Users:         handler.NewUserHandler(userSvc),
		Students:      handler.NewStudentHandler(studentSvc, progressSvc),
		Teachers:      handler.NewTeacherHandler(teacherSvc),
		Parents:       handler.NewParentHandler(parentSvc),
		Grades:        handler.NewGradeHandler(gradeSvc, teacherSvc),
		Absences:      handler.NewAbsenceHandler(absenceSvc, studentSvc, teacherSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Quizzes:       handler.NewQuizHandler(quizSvc, studentSvc),
		Games:         handler.NewGameHandler(gameSvc, studentSvc),
		Transports:    handler.NewTransportHandler(transportSvc, studentSvc),
		Payments:      handler.NewPaymentHandler(paymentSvc),
		Timetable:     handler.NewTimetableHandler(timetableSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Chatbot:       handler.NewChatbotHandler(chatbotSvc),
	}

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

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc, dashboardSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deliveryQueue.Start(ctx)
	defer deliveryQueue.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
