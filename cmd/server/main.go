package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Parastud/ParkEase/internal/application"
	"github.com/Parastud/ParkEase/internal/config"
	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	bookingEvents "github.com/Parastud/ParkEase/internal/events"
	"github.com/Parastud/ParkEase/internal/handler"
	"github.com/Parastud/ParkEase/internal/pkg/auth"
	"github.com/Parastud/ParkEase/internal/pkg/database"
	"github.com/Parastud/ParkEase/internal/pkg/health"
	"github.com/Parastud/ParkEase/internal/pkg/kafka"
	"github.com/Parastud/ParkEase/internal/pkg/logger"
	"github.com/Parastud/ParkEase/internal/pkg/middleware"
	"github.com/Parastud/ParkEase/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-parking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-parking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.SpotModel{},
			&repository.BookingModel{},
			&repository.OwnerProfileModel{},
			&repository.NotificationModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := cfg.DBConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTTL,
		cfg.JWTConfig.RefreshTTL,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	spotRepo := repository.NewGormSpotRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	ownerRepo := repository.NewGormOwnerProfileRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)
	ledger := repository.NewGormAvailabilityLedger(db, log)

	// Initialize pricing strategy and event emitter
	pricingStrategy := bookingDomain.NewHourlyPricingStrategy()
	emitter := application.NewKafkaNotificationEmitter(kafkaProducer, log)

	clock := time.Now

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		spotRepo,
		ledger,
		pricingStrategy,
		emitter,
		log,
		clock,
	)
	spotService := application.NewSpotService(spotRepo, bookingRepo, ownerRepo, log, clock)
	ownerService := application.NewOwnerService(ownerRepo, log, clock)
	notificationService := application.NewNotificationService(notificationRepo, log)
	sweeper := application.NewExpirySweeper(
		bookingRepo,
		ledger,
		emitter,
		log,
		clock,
		cfg.SweeperConfig.Interval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background expiry sweeper
	go sweeper.Run(ctx)

	// Initialize and start the booking event consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "parking-service"
	bookingConsumer := bookingEvents.NewBookingEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		notificationRepo,
		log,
		clock,
	)
	defer func() { _ = bookingConsumer.Close() }()

	go func() {
		log.Info("starting booking event consumer")
		if err := bookingConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("booking event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, sweeper, log)
	spotHandler := handler.NewSpotHandler(spotService)
	ownerHandler := handler.NewOwnerHandler(ownerService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	adminHandler := handler.NewAdminHandler(sweeper, ownerService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-parking")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	spotHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	ownerHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	notificationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-parking...")

	// Cancel the sweeper and consumer contexts
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-parking stopped")
}
