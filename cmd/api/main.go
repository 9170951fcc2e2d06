package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/cache"
	"github.com/noah-isme/aula-go-api/internal/config"
	"github.com/noah-isme/aula-go-api/internal/database"
	"github.com/noah-isme/aula-go-api/internal/handler"
	"github.com/noah-isme/aula-go-api/internal/middleware"
	"github.com/noah-isme/aula-go-api/internal/repository"
	"github.com/noah-isme/aula-go-api/internal/router"
	"github.com/noah-isme/aula-go-api/internal/service"
	cloud "github.com/noah-isme/aula-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database pool: %v", err)
	}
	defer sqlDB.Close()

	probes := map[string]handler.HealthProbe{
		"database": sqlDB.PingContext,
	}

	var store cache.Store = cache.NewMemoryStore()
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		store = cache.NewRedisStore(redisClient, logger)
		probes["redis"] = database.RedisProbe(redisClient)
	} else {
		logger.Warn().Msg("redis url not set; using in-process cache")
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer conn.Close()

		broadcaster := cache.NewBroadcaster(store, conn, cfg.CacheChannel, logger)
		if err := broadcaster.Start(ctx); err != nil {
			log.Fatalf("failed to subscribe to cache invalidations: %v", err)
		}
		store = broadcaster
		probes["nats"] = database.NATSProbe(conn)
	}

	var photos service.PhotoStorage
	if cfg.PhotoUploadsEnabled() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		photos = uploader
	} else {
		logger.Warn().Msg("cloudinary credentials not set; photo uploads disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	diaryRepo := repository.NewDiaryRepository(db)
	observationRepo := repository.NewObservationRepository(db)
	agendaRepo := repository.NewAgendaRepository(db)

	studentService := service.NewStudentService(studentRepo, courseRepo, store, validate, service.StudentServiceConfig{
		CacheTTL:     cfg.CacheTTL,
		DefaultCity:  cfg.DefaultCity,
		PhotoMaxMB:   cfg.UploadMaxMB,
		PhotoStorage: photos,
	}, logger)
	gradeService := service.NewGradeService(studentRepo, store, cfg.CacheTTL, validate, logger)
	courseService := service.NewCourseService(courseRepo, studentRepo, store, cfg.CacheTTL, validate, logger)
	diaryService := service.NewDiaryService(diaryRepo, courseRepo, validate, logger)
	observationService := service.NewObservationService(observationRepo, studentRepo, validate, logger)
	agendaService := service.NewAgendaService(agendaRepo, courseRepo, validate, logger)
	reportService := service.NewReportService(studentRepo, courseRepo, diaryRepo, observationRepo, store, cfg.CacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:     handler.NewStudentHandler(studentService, logger),
		GradeHandler:       handler.NewGradeHandler(gradeService, logger),
		CourseHandler:      handler.NewCourseHandler(courseService, logger),
		DiaryHandler:       handler.NewDiaryHandler(diaryService, logger),
		ObservationHandler: handler.NewObservationHandler(observationService, logger),
		AgendaHandler:      handler.NewAgendaHandler(agendaService, logger),
		ReportHandler:      handler.NewReportHandler(reportService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
		HealthProbes:       probes,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
