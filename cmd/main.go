package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"claims-service/internal/ai/gemini"
	"claims-service/internal/config"
	"claims-service/internal/database/minio"
	"claims-service/internal/database/postgres"
	"claims-service/internal/database/redis"
	"claims-service/internal/event"
	"claims-service/internal/extraction"
	"claims-service/internal/handlers"
	"claims-service/internal/lock"
	"claims-service/internal/policy"
	"claims-service/internal/repository"
	"claims-service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.New()
	ctx := context.Background()

	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		slog.Error("Failed to load policy configuration", "path", cfg.PolicyPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Policy loaded", "policy_id", pol.PolicyID(), "annual_limit", pol.AnnualLimit())

	// The repository captures the handle at construction, so a missing database
	// at boot is fatal rather than retried in the background.
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Error("Failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	// Redis backs the cross-instance claim lock; without it the service falls
	// back to a process-local lock.
	var locker lock.Locker
	redisClient, err := redis.NewRedisClient(cfg.RedisCfg)
	if err != nil {
		slog.Warn("Redis unavailable, using in-process claim locks", "error", err)
		locker = lock.NewMemoryLocker()
	} else {
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient.GetClient(), 5*time.Minute)
	}

	var llm extraction.StructuredExtractor
	if len(cfg.GeminiAPICfg.APIKeys) > 0 {
		clients := make([]*gemini.Client, 0, len(cfg.GeminiAPICfg.APIKeys))
		for _, key := range cfg.GeminiAPICfg.APIKeys {
			client, err := gemini.NewClient(ctx, key, cfg.GeminiAPICfg.FlashName)
			if err != nil {
				slog.Warn("Failed to initialize Gemini client, skipping key", "error", err)
				continue
			}
			clients = append(clients, client)
		}
		if len(clients) > 0 {
			selector := gemini.NewClientSelector(clients)
			defer selector.Close()
			llm = selector
			slog.Info("Gemini extraction enabled", "clients", len(clients))
		}
	}
	if llm == nil {
		slog.Info("Gemini extraction disabled, regex fallback only")
	}

	var ocr extraction.TextRecognizer
	if client := extraction.NewOCRClient(cfg.OCRCfg.Endpoint,
		time.Duration(cfg.OCRCfg.TimeoutSeconds)*time.Second); client != nil {
		ocr = client
		slog.Info("OCR engine enabled", "endpoint", cfg.OCRCfg.Endpoint)
	}

	merger := extraction.NewMerger(ocr, llm,
		cfg.ExtractionCfg.LLMConfidenceThreshold,
		time.Duration(cfg.ExtractionCfg.TimeoutSeconds)*time.Second)

	var publisher *event.DecisionPublisher
	if cfg.RabbitMQCfg.Username != "" {
		rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
		if err != nil {
			slog.Warn("RabbitMQ unavailable, decision events disabled", "error", err)
		} else {
			defer rabbitConn.Close()
			publisher = event.NewDecisionPublisher(rabbitConn)
		}
	}

	claimRepository := repository.NewClaimRepository(db)
	claimService := services.NewClaimService(claimRepository, minioClient, merger, pol, locker, publisher)
	claimHandler := handlers.NewClaimHandler(claimService, cfg.UploadCfg.MaxFileSizeMB)

	app := fiber.New(fiber.Config{
		BodyLimit: (cfg.UploadCfg.MaxFileSizeMB + 1) << 20,
	})

	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"database":  db.Ping() == nil,
			"publisher": publisher.HealthCheck(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	claimHandler.Register(app)

	go func() {
		slog.Info("Starting claims-service", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down claims-service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
