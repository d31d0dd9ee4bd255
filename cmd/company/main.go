package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/companies/internal/company/config"
	"github.com/gartstein/companies/internal/company/controller"
	gorm "github.com/gartstein/companies/internal/company/db"
	"github.com/gartstein/companies/internal/company/events"
	"github.com/gartstein/companies/internal/company/handlers"
	"github.com/gartstein/companies/internal/company/metrics"
	"github.com/gartstein/companies/internal/company/notify"
	"github.com/gartstein/companies/internal/company/seed"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// eventProducer is what main needs from either the Kafka or the no-op producer.
type eventProducer interface {
	controller.EventProducer
	Close()
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := gorm.Connect(ctx, initDatabase(cfg), logger.Named("db"))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	producer := initProducer(ctx, cfg, logger)
	defer producer.Close()

	mailer, err := initMailer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize mailer", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	companySvc := controller.NewCompanyService(repo, mailer, producer, m, controller.Config{
		Recipients: cfg.NotifyEmails,
		MaxLimit:   cfg.MaxLimit,
	}, logger)

	checker := handlers.NewHealthChecker(repo, logger)
	go checker.Watch(ctx, 15*time.Second)

	router, err := handlers.NewRouter(
		handlers.NewCompanyHandler(companySvc, seed.NewSeeder(companySvc, logger), logger),
		handlers.NewStatusHandler(checker, cfg.Version, logger),
		handlers.RouterConfig{
			ClientURL: cfg.ClientURL,
			Metrics:   m,
			Gatherer:  prometheus.DefaultGatherer,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to register HTTP routes", zap.Error(err))
	}

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, router, checker, logger,
		grpc.UnaryInterceptor(handlers.UnaryInterceptor(logger)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	waitForShutdown(ctx, server, errCh, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// initDatabase maps the service config onto the repository config.
func initDatabase(cfg *config.Config) *gorm.Config {
	return &gorm.Config{
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		Logging:        cfg.DBLogging,
		ConnectTimeout: time.Minute,
	}
}

// initProducer publishes lifecycle events to Kafka when brokers are configured.
func initProducer(ctx context.Context, cfg *config.Config, logger *zap.Logger) eventProducer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("No Kafka brokers configured, lifecycle events are disabled")
		return events.NopProducer{}
	}
	producer, err := events.NewProducer(ctx, cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	return producer
}

// initMailer sends over SMTP when MAIL_HOST is set and logs messages otherwise.
func initMailer(cfg *config.Config, logger *zap.Logger) (*notify.Mailer, error) {
	renderer, err := notify.NewRenderer(notify.DefaultTemplates())
	if err != nil {
		return nil, err
	}

	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.MailHost != "" {
		sender, err = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			User:     cfg.MailUser,
			Password: cfg.MailPassword,
			Secure:   cfg.MailSecure,
		})
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("MAIL_HOST not set, notifications are logged instead of sent")
	}

	return notify.NewMailer(renderer, sender, cfg.MailFrom, cfg.Unsubscribe, logger), nil
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, or a
// server fails, then shuts down servers.
func waitForShutdown(ctx context.Context, server *handlers.Server, errCh <-chan error, logger *zap.Logger) {
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
}
