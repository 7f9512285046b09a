package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darshanhv296/Flight-Management-System/config"
	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/bootstrap"
	"github.com/darshanhv296/Flight-Management-System/internal/kafka"
	"github.com/darshanhv296/Flight-Management-System/internal/notify"
	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// sweeper is the identity the scheduled sanitize runs under.
var sweeper = auth.Admin("worker")

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer storage.Close()

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		topic := cfg.Kafka.NotificationsTopic
		if topic == "" {
			topic = cfg.Kafka.BookingTopic
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic)
		defer consumer.Close()

		notifier := notify.NewNotifier(storage.Users, nil, logger)
		g.Go(func() error {
			logger.WithField("topic", topic).Info("notification consumer started")
			return consumer.Consume(ctx, notifier.Handle)
		})
	} else {
		logger.Warn("kafka not configured, notifications disabled")
	}

	if interval := cfg.Worker.SanitizeInterval(); interval > 0 {
		bookingService := booking.NewBookingService(storage.Ledger, booking.WithLogger(logger))
		g.Go(func() error {
			sanitizeLoop(ctx, bookingService, interval, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("worker stopped")
	}
	logger.Info("worker stopped")
}

// sanitizeLoop clamps negative ledger values on every tick until ctx is done.
func sanitizeLoop(ctx context.Context, svc booking.BookingUseCase, interval time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Sanitize(ctx, sweeper); err != nil {
				log.WithError(err).Warn("scheduled sanitize failed")
			}
		}
	}
}
