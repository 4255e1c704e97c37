package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/internal/bot"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/config"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ocr"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/prefs"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/server"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/whatsapp"

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
		ServiceName: "bot",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("bot service initializing", zap.String("env", cfg.Environment))

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
	motivationStore := prefs.NewMongoMotivationStore(db, cfg.MongoDB.OpTimeout)

	publisher := outbound.NewKafkaPublisher(outbound.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OutboundTopic,
	})
	defer publisher.Close()

	waClient := whatsapp.NewClient(whatsapp.Config{
		APIBase: cfg.WhatsApp.APIBase,
		Token:   cfg.WhatsApp.Token,
		PhoneID: cfg.WhatsApp.PhoneID,
	})
	extractor := ocr.NewTesseract(cfg.Bot.Tesseract)

	// 5. Create service and webhook
	svc := bot.NewService(l, ledgerStore, reminderStore, motivationStore, publisher, waClient, extractor, loc)
	webhook := bot.NewWebhook(l, svc, cfg.WhatsApp.VerifyToken)

	// 6. Start HTTP server with the webhook mounted next to health and metrics
	srv := server.New(cfg.Bot.ListenAddr, l, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	srv.Handle("/webhook", webhook)

	go func() {
		if err := srv.Start(); err != nil {
			l.Error("http server failed", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("bot service started", zap.String("addr", cfg.Bot.ListenAddr))
	<-ctx.Done()

	l.Info("bot service stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
