package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/darshanhv296/Flight-Management-System/api"
	"github.com/darshanhv296/Flight-Management-System/config"
	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/bootstrap"
	"github.com/darshanhv296/Flight-Management-System/internal/cache"
	"github.com/darshanhv296/Flight-Management-System/internal/kafka"
	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/darshanhv296/Flight-Management-System/internal/service/flights"
	"github.com/darshanhv296/Flight-Management-System/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("configure logging: %v", err)
	}
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer storage.Close()

	var (
		flightCache flights.FlightCache
		idempotency api.IdempotencyStore
	)
	if cfg.Redis.Addr != "" {
		redisClient := cache.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		flightCache = cache.NewRedisCache(redisClient, cfg.Booking.FlightsCacheDuration())
		idempotency = cache.NewIdempotencyStore(redisClient, cfg.Booking.IdempotencyTTL())
	} else {
		logger.Warn("redis not configured, flights cache and idempotency replay disabled")
	}

	bookingOpts := []booking.BookingServiceOption{booking.WithLogger(logger)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logger.WithError(err).Warn("kafka unreachable, events will be retried per publish")
		}
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer.Retrying(cfg.Kafka.PublishRetries), cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	} else {
		logger.Warn("kafka not configured, booking events disabled")
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	bookingService := booking.NewBookingService(storage.Ledger, bookingOpts...)
	flightService := flights.NewFlightService(storage.Flights, flightCache, logger)
	userService := users.NewUserService(storage.Users, tokens, logger,
		users.WithAdminUsername(cfg.Auth.AdminUsername),
	)

	router := api.NewRouter(api.RouterDeps{
		Bookings:       bookingService,
		Flights:        flightService,
		Users:          userService,
		Sessions:       tokens,
		Idempotency:    idempotency,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            logger,
		Health:         storage.Ping,
	})

	if err := bootstrap.Run(ctx, cfg.HTTP, router, logger); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
