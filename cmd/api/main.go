package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/medscribe-team/clinical-scribe/pkg/validator"

	"github.com/medscribe-team/clinical-scribe/internal/adapter/handler"
	"github.com/medscribe-team/clinical-scribe/internal/adapter/repository"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/cache"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/database"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/storage"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/pipeline"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/refine"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/roles"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/summary"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/transcription"
	pkgai "github.com/medscribe-team/clinical-scribe/pkg/ai"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
	"github.com/medscribe-team/clinical-scribe/pkg/jwt"
	"github.com/medscribe-team/clinical-scribe/pkg/transcribe"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize object storage
	log.Println("📦 Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize cache: Redis when enabled, in-memory otherwise
	var cacheStore cache.Store
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisStore, err := cache.NewRedisStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		cacheStore = redisStore
	} else {
		log.Println("📦 Using in-memory cache")
		cacheStore = cache.NewMemoryStore()
	}

	// Initialize Database (optional: only completed runs are stored)
	var runRepo *repository.RunRepository
	var runStore pipeline.RunStore
	if cfg.Database.Enabled {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		// Run migrations only when explicitly enabled in config.
		// Production deployments should manage schema via sql-migrate.
		if cfg.Database.AutoMigrate {
			if cfg.Server.Environment == "production" {
				log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
			}
			log.Println("🔄 Applying migrations (development only) ...")
			if err := database.AutoMigrate(db); err != nil {
				log.Fatalf("Failed to apply migrations: %v", err)
			}
		} else {
			log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
		}

		runRepo = repository.NewRunRepository(db)
		runStore = runRepo
	} else {
		log.Println("📦 Run persistence disabled")
	}

	// Initialize transcription components
	log.Println("🎙️  Initializing transcription components...")
	transcribeClient := transcribe.NewClient(&cfg.Transcribe)
	orchestrator := transcription.NewOrchestrator(transcribeClient, &cfg.Transcribe, logger)

	// Initialize inference-backed components
	log.Println("🤖 Initializing inference components...")
	inferenceClient := pkgai.NewInferenceClient(&cfg.Inference)
	classifier := roles.NewClassifier(inferenceClient, logger)
	refiner := refine.NewRefiner(inferenceClient, refine.Strategy(cfg.Inference.RefinerStrategy), cfg.Inference.RefinerBatch, logger)
	summarizer := summary.NewService(inferenceClient, logger)

	// Assemble the pipeline
	pipe := pipeline.NewPipeline(
		minioClient,
		orchestrator,
		classifier,
		refiner,
		summarizer,
		runStore,
		cacheStore,
		cfg,
		logger,
	)

	// Initialize JWT manager (optional bearer guard)
	var jwtManager *jwt.Manager
	if cfg.JWT.Secret != "" {
		log.Println("🔑 Initializing JWT manager...")
		jwtManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	}

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	conversationHandler := handler.NewConversation(pipe, minioClient, cacheStore, runRepo, cfg, logger)
	summaryHandler := handler.NewSummary(summarizer, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, conversationHandler, summaryHandler, jwtManager)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
