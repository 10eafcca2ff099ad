package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"samguk-server/internal/config"
	"samguk-server/internal/database"
	"samguk-server/internal/handler"
	"samguk-server/internal/interfaces"
	"samguk-server/internal/logger"
	"samguk-server/internal/messaging"
	"samguk-server/internal/middleware"
	"samguk-server/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// Конфиг загружаем до логгера, ошибки пишем стандартным log
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger)

	appLogger.Info("Starting samguk server",
		zap.String("env", cfg.Env),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("ai_client", cfg.AIClientType),
		zap.String("ai_model", cfg.AIModel),
	)

	// --- Хранилище стран ---
	repo, closeStore, err := setupCountryStore(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize country store", zap.Error(err))
	}
	defer closeStore()

	if cfg.SeedOnStartup {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		seeded, err := database.SeedIfEmpty(seedCtx, repo, database.DefaultSeedCountries(), appLogger)
		seedCancel()
		if err != nil {
			appLogger.Fatal("Failed to seed countries", zap.Error(err))
		}
		appLogger.Info("Seed step finished", zap.Int("inserted", seeded))
	}

	// --- Генераторы ---
	aiClient, err := service.NewAIClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create AI client", zap.Error(err))
	}
	temperature := cfg.AITemperature
	maxTokens := cfg.AIMaxTokens
	narrative := service.NewNarrativeGenerator(aiClient, service.NarrativeGeneratorConfig{
		Language:    cfg.NarrativeLanguage,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}, appLogger)
	images := service.NewImageGeneratorFromConfig(service.ImageClientConfig{
		BaseURL:     cfg.ImageServiceBaseURL,
		Path:        cfg.ImageServicePath,
		Timeout:     cfg.ImageTimeout,
		StyleSuffix: cfg.ImagePromptStyleSuffix,
	}, appLogger)

	// --- События ходов ---
	publisher, closePublisher := setupTurnEventPublisher(cfg, appLogger)
	defer closePublisher()

	turnService := service.NewTurnService(repo, narrative, images, publisher, appLogger)

	if err := handler.RegisterValidators(); err != nil {
		appLogger.Fatal("Failed to register validators", zap.Error(err))
	}
	gameHandler := handler.NewGameHandler(turnService, appLogger)

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.GinZapLogger(appLogger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) == 0 {
		appLogger.Info("CORS allows all origins")
	}
	router.Use(cors.New(middleware.NewCORSConfig(allowedOrigins)))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	gameHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Ход включает вызов модели и генерацию изображения
		WriteTimeout: cfg.AITimeout + cfg.ImageTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Shutting down server...", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exiting")
}

// setupCountryStore выбирает бэкенд хранилища по STORE_BACKEND.
func setupCountryStore(cfg *config.Config, logger *zap.Logger) (interfaces.CountryRepository, func(), error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Successfully connected to Redis", zap.String("addr", cfg.RedisAddr))
		return database.NewRedisCountryRepository(client, logger), func() { _ = client.Close() }, nil
	default:
		pool, err := database.NewPgPool(context.Background(), cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.ApplyMigrations(pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return database.NewPgCountryRepository(pool, logger), pool.Close, nil
	}
}

// setupTurnEventPublisher подключается к RabbitMQ с повторами.
// Без RABBITMQ_URL или при недоступном брокере события не публикуются.
func setupTurnEventPublisher(cfg *config.Config, logger *zap.Logger) (interfaces.TurnEventPublisher, func()) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, turn events are disabled")
		return messaging.NewNoopTurnEventPublisher(logger), func() {}
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, turn events are disabled", zap.Error(err))
		return messaging.NewNoopTurnEventPublisher(logger), func() {}
	}
	publisher, err := messaging.NewRabbitMQTurnEventPublisher(conn, cfg.TurnEventsQueue, logger)
	if err != nil {
		_ = conn.Close()
		logger.Error("Failed to create turn event publisher, turn events are disabled", zap.Error(err))
		return messaging.NewNoopTurnEventPublisher(logger), func() {}
	}
	logger.Info("Turn event publisher ready", zap.String("queue", cfg.TurnEventsQueue))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close turn event publisher", zap.Error(err))
		}
		_ = conn.Close()
	}
}

func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
