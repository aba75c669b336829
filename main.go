package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sweetshop-backend/controllers"
	"sweetshop-backend/database"
	"sweetshop-backend/kafka"
	"sweetshop-backend/logger"
	"sweetshop-backend/middleware"
	"sweetshop-backend/repository"
	"sweetshop-backend/routes"
	"sweetshop-backend/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		panic("invalid configuration: " + err.Error())
	}

	log, err := logger.Initialize(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	db, err := database.Connect(cfg.PostgresDSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	sweetRepo := repository.NewGormSweetRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	otpRepo := repository.NewGormOtpRepository(db)
	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)

	var publisher services.OrderEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer producer.Close()
		publisher = producer
		log.Info("kafka producer enabled",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		log.Info("kafka producer disabled, order events will not be published")
	}

	var emailSender services.EmailSender
	if cfg.SMTPHost != "" {
		emailSender = services.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		emailSender = services.NewLogSender(log)
	}

	tokenService := services.NewJWTTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	sweetService := services.NewSweetService(sweetRepo, log)
	orderService := services.NewOrderService(orderRepo, sweetRepo, publisher, log)
	cartService := services.NewCartService(cartRepo, sweetRepo, orderService, log)
	authService := services.NewAuthService(userRepo, otpRepo, tokenService, emailSender, cfg.OTPExpiry, log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
	)

	routes.Register(r, routes.Controllers{
		Auth:   controllers.NewAuthController(authService),
		Sweets: controllers.NewSweetController(sweetService),
		Orders: controllers.NewOrderController(orderService),
		Cart:   controllers.NewCartController(cartService),
	}, tokenService)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
