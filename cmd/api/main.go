package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/sushihost/backend/config"
	"github.com/sushihost/backend/internal/api"
	"github.com/sushihost/backend/internal/database"
	"github.com/sushihost/backend/internal/middleware"
	"github.com/sushihost/backend/internal/router"
	"github.com/sushihost/backend/internal/server"
	"github.com/sushihost/backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}

	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(logLevel())

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Schema guard: the embedded SQLite file ships pre-populated, so the
	// lazy migrations and seeding only run against PostgreSQL.
	if cfg.UsesPostgres() {
		database.EnsureSeeded(db, "postgresql_schema.sql", "postgresql_data.sql")
		if err := database.EnsureAuthColumns(db); err != nil {
			log.WithError(err).Error("Schema migration failed, continuing with current schema")
		}
	}
	caps := database.DetectCapabilities(db)

	// Sessions and rate limiting share one backing choice: Redis when
	// configured, process-local otherwise.
	var (
		sessions service.SessionStore    = service.NewMemorySessionStore()
		counters middleware.CounterStore = middleware.NewMemoryCounterStore()
	)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		sessions = service.NewRedisSessionStore(redisClient)
		counters = middleware.NewRedisCounterStore(redisClient)
	}

	emailService := service.NewEmailService(cfg)
	authService := service.NewAuthService(db, sessions, emailService, cfg.SessionSecret)
	contentService := service.NewContentService(db)
	eventMenuService := service.NewEventMenuService(db, caps)

	authHandler := api.NewAuthHandler(authService, cfg.UsesPostgres())
	contentHandler := api.NewContentHandler(contentService)
	eventMenuHandler := api.NewEventMenuHandler(eventMenuService)
	healthHandler := api.NewHealthHandler(db)

	engine := router.Setup(authHandler, contentHandler, eventMenuHandler, healthHandler, counters)

	srv := server.New(engine, cfg.Port)
	if err := srv.Start(); err != nil {
		log.WithError(err).Fatal("Server exited with error")
	}
}

func logLevel() log.Level {
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
