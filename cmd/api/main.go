package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cobach/sia-alumnos-api/internal/config"
	"github.com/cobach/sia-alumnos-api/internal/database"
	"github.com/cobach/sia-alumnos-api/internal/handler"
	"github.com/cobach/sia-alumnos-api/internal/middleware"
	"github.com/cobach/sia-alumnos-api/internal/observability"
	"github.com/cobach/sia-alumnos-api/internal/repository"
	"github.com/cobach/sia-alumnos-api/internal/router"
	"github.com/cobach/sia-alumnos-api/internal/service"
	"github.com/cobach/sia-alumnos-api/internal/validation"
	cloud "github.com/cobach/sia-alumnos-api/pkg/cloudinary"
	"github.com/cobach/sia-alumnos-api/pkg/localstorage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)
	observability.RegisterMetrics()

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to connect to database")
	}
	provider := database.NewProvider(db, database.DialectFor(cfg.Database.Driver), logger)
	defer closeQuietly(logger, "database", provider.Close)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, catalog cache and redis events disabled")
		} else {
			defer closeQuietly(logger, "redis", redisClient.Close)
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName), nats.MaxReconnects(-1))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, student events will not be published there")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	storage, err := newDocumentStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to initialise document storage")
	}

	validate := validation.New()

	catalogRepo := repository.NewCatalogRepository(provider, repository.CatalogTables{
		Languages:  cfg.Catalog.LanguagesTable,
		Localities: cfg.Catalog.LocalitiesTable,
		BloodTypes: cfg.Catalog.BloodTypesTable,
	})
	studentRepo := repository.NewStudentRepository(provider)

	stager := service.NewDocumentStager(storage, cfg.MaxUploadBytes(), logger)
	events := service.NewStudentEventPublisher(redisClient, cfg.EventsRedisChannel, natsConn, cfg.EventsSubject, logger)

	catalogService := service.NewCatalogService(catalogRepo, redisClient, cfg.Catalog.CacheTTL, logger)
	studentService := service.NewStudentService(studentRepo, logger)
	writeService := service.NewStudentWriteService(studentRepo, stager, validate, events, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.BodyLimit(),
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AccessLog:      cfg.IsDevelopment(),
	})
	router.Register(app, cfg, router.Dependencies{
		CatalogHandler: handler.NewCatalogHandler(catalogService, logger),
		StudentHandler: handler.NewStudentHandler(studentService, writeService, logger),
		DB:             provider,
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("dialect", string(provider.Dialect())).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
}

func newDocumentStorage(cfg config.Config, logger zerolog.Logger) (service.DocumentStorage, error) {
	if cfg.StorageBackend == "cloudinary" {
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return localstorage.New(cfg.UploadsDir, logger)
}

func closeQuietly(logger zerolog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error().Err(err).Str("resource", name).Msg("failed to close resource")
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
