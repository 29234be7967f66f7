package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gostore/internal/cache"
	"gostore/internal/config"
	"gostore/internal/handlers"
	"gostore/internal/middleware"
	"gostore/internal/models"
	"gostore/internal/repositories"
	"gostore/internal/services"
	"gostore/pkg/rabbitmq"
	"gostore/pkg/storage"
)

func main() {
	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}

	// --- Session cache ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: time.Second,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()
	sessions := cache.NewRedisStore(redisClient)

	// --- Image store ---
	images, err := storage.NewMinioStore(context.Background(), storage.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		logrus.Fatalf("failed to connect to image store: %v", err)
	}

	// --- Message broker (optional) ---
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ unavailable, catalog events disabled")
		mqClient = nil
	} else {
		defer mqClient.Close()
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, sessions, cfg.JWTSecret, cfg.TokenTTL)
	productService := services.NewProductService(productRepo, images, mqClient)
	cartService := services.NewCartService(userRepo, productRepo, images)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)

	// --- Middleware ---
	requireAuth := middleware.RequiresAuth(authService)
	requireAdmin := middleware.RequiresAdmin()

	app := fiber.New()
	app.Use(logger.New())

	authHandler.RegisterRoutes(app, requireAuth)
	productHandler.RegisterRoutes(app, requireAuth, requireAdmin)
	cartHandler.RegisterRoutes(app, requireAuth)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			logrus.Fatalf("server failed to start: %v", err)
		}
	}()
	logrus.Infof("server running on %s", cfg.AppPort)

	<-quit
	logrus.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		logrus.WithError(err).Error("error during server shutdown")
	}
	if err := redisClient.Close(); err != nil {
		logrus.WithError(err).Error("error closing Redis client")
	}

	logrus.Info("server gracefully stopped")
}
