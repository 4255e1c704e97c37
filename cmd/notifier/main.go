package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/internal/notifier"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/config"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/prefs"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/server"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "notifier",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("notifier service initializing", zap.String("env", cfg.Environment))

	loc, err := cfg.Location()
	if err != nil {
		l.Error("failed to load timezone", err)
		os.Exit(1)
	}

	// 3. Initialize MongoDB
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), cfg.MongoDB.ConnectTimeout)
	defer mongoCancel()
	client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		l.Error("failed to connect to mongodb", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)

	// 4. Initialize components
	ledgerStore := ledger.NewMongoStore(db, cfg.MongoDB.OpTimeout)
	reminderStore := prefs.NewMongoReminderStore(db, cfg.MongoDB.OpTimeout)

	publisher := outbound.NewKafkaPublisher(outbound.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OutboundTopic,
	})
	defer publisher.Close()

	// 5. Create service
	svc := notifier.NewService(l, ledgerStore, reminderStore, publisher, loc, cfg.Notifier.TickInterval)

	// 6. Start observability server
	obsServer := server.New(":8080", l, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Run sweep loop
	l.Info("notifier service starting")
	if err := svc.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("notifier service stopping")
		} else {
			l.Error("notifier service failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	obsServer.Shutdown(shutdownCtx)
}
