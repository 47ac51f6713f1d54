package main

import (
	"complians/internal/agents"
	"complians/internal/config"
	"complians/internal/database"
	"complians/internal/handlers"
	"complians/internal/logging"
	"complians/internal/middleware"
	"complians/internal/preflight"
	"complians/internal/services"
	"complians/pkg/auth"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Complians Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Relational store for workers and aggregate snapshots
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	checker := preflight.NewChecker(db, cfg)
	if preflight.HasFailures(checker.RunAll()) {
		log.Println("\n❌ Pre-flight checks failed. Please fix the issues above before starting the server.")
		os.Exit(1)
	}

	// MongoDB holds compliance records, remediation actions and alerts
	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI environment variable is required")
	}
	log.Println("🔗 Connecting to MongoDB...")
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())
	log.Println("✅ MongoDB connected successfully")

	// Redis is the optional shared second-level narrative cache
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		log.Println("🔗 Connecting to Redis...")
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (narrative cache is in-memory only)", err)
			redisService = nil
		}
	} else {
		log.Println("⚠️ REDIS_URL not set - narrative cache is in-memory only")
	}

	// Agent registry: builtins plus optional YAML overrides, hot-reloaded
	registry := agents.NewRegistry()
	if cfg.AgentsFile != "" {
		if err := registry.LoadFile(cfg.AgentsFile); err != nil {
			log.Fatalf("❌ Failed to load agents file %s: %v", cfg.AgentsFile, err)
		}
		if err := registry.Watch(cfg.AgentsFile); err != nil {
			log.Printf("⚠️ Agents file watch disabled: %v", err)
		}
		defer registry.Close()
	}
	log.Printf("✅ Agent registry initialized (%d rule sets)", registry.Count())

	// Prometheus metrics
	services.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	// Services
	aiClient := services.NewAIClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout, cfg.AIRatePerSec)
	if aiClient.Configured() {
		log.Printf("✅ AI provider configured (model: %s)", cfg.AIModel)
	} else {
		log.Println("⚠️ AI_API_KEY not set - narratives use template fallback only")
	}

	narrativeCache := services.NewNarrativeCache(cfg.CacheTTL, redisService, cfg.CacheRedisTTL)
	narrativeService := services.NewNarrativeService(registry, aiClient, narrativeCache)

	store := services.NewComplianceStore(mongoDB)
	workerService := services.NewWorkerService(db)
	directoryService := services.NewDirectoryService(db)
	aggregatorService := services.NewAggregatorService(db, store, cfg.RiskWeights)
	alertService := services.NewAlertService(mongoDB, registry)
	remediationService := services.NewRemediationService(mongoDB, store)
	exportService := services.NewExportService(directoryService)
	connManager := services.NewConnectionManager()

	assessmentService := services.NewAssessmentService(workerService, narrativeService, store, aggregatorService, alertService, connManager)

	// Mongo indexes (unique record key, alert and remediation lookups)
	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 15*time.Second)
	if err := store.EnsureIndexes(indexCtx); err != nil {
		log.Printf("⚠️ Failed to ensure compliance record indexes: %v", err)
	}
	if err := alertService.EnsureIndexes(indexCtx); err != nil {
		log.Printf("⚠️ Failed to ensure alert indexes: %v", err)
	}
	if err := remediationService.EnsureIndexes(indexCtx); err != nil {
		log.Printf("⚠️ Failed to ensure remediation indexes: %v", err)
	}
	cancelIndexes()

	// Background jobs
	schedulerService, err := services.NewSchedulerService(cfg, directoryService, aggregatorService, alertService)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}

	// Auth
	var jwtAuth *auth.TenantJWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewTenantJWTAuth(cfg.JWTSecret, time.Hour)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT auth initialized")
	} else if os.Getenv("ENVIRONMENT") == "production" {
		log.Fatal("❌ JWT_SECRET is required in production")
	} else {
		log.Println("⚠️ JWT_SECRET not set - auth bypass active (development mode only)")
	}

	// Handlers
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)
	workerHandler := handlers.NewWorkerHandler(workerService, directoryService, aggregatorService, store, exportService)
	remediationHandler := handlers.NewRemediationHandler(remediationService)
	alertHandler := handlers.NewAlertHandler(alertService)
	alertWSHandler := handlers.NewAlertWSHandler(connManager)
	healthHandler := handlers.NewHealthHandler(db, mongoDB, registry, aiClient, narrativeCache)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Complians v1.0",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("complians")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-API-Key",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Routes
	app.Get("/health", healthHandler.Check)

	authRequired := middleware.TenantAuthMiddleware(jwtAuth)

	assessments := app.Group("/api/assessments")
	assessments.Use(middleware.ServiceKeyOrAuthMiddleware(jwtAuth, cfg.ServiceKeyHash, cfg.ServiceKeyTenant))
	assessments.Use(middleware.AssessmentRateLimiter(rateLimitConfig))
	assessments.Post("/", assessmentHandler.Assess)

	workers := app.Group("/api/workers", authRequired)
	workers.Get("/", workerHandler.List)
	workers.Get("/export", middleware.ExportRateLimiter(rateLimitConfig), workerHandler.Export)
	workers.Post("/", workerHandler.Create)
	workers.Get("/:id", workerHandler.Get)
	workers.Get("/:id/aggregate", workerHandler.GetAggregate)
	workers.Get("/:id/records", workerHandler.GetRecords)

	remediation := app.Group("/api/remediation-actions", authRequired)
	remediation.Post("/", remediationHandler.Create)
	remediation.Get("/", remediationHandler.List)
	remediation.Put("/:id", remediationHandler.Update)
	remediation.Delete("/:id", remediationHandler.Delete)

	alerts := app.Group("/api/alerts", authRequired)
	alerts.Get("/", alertHandler.List)
	alerts.Post("/", alertHandler.Create)
	alerts.Put("/:id", alertHandler.UpdateStatus)

	// WebSocket alert feed (token query param auth)
	app.Use("/ws/alerts", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws/alerts", middleware.WebSocketRateLimiter(rateLimitConfig))
	app.Use("/ws/alerts", authRequired)
	app.Get("/ws/alerts", websocket.New(alertWSHandler.Handle))

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := schedulerService.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down scheduler: %v", err)
		}

		if redisService != nil {
			if err := redisService.Close(); err != nil {
				log.Printf("⚠️ Error closing Redis: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("🌐 Server listening on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}
