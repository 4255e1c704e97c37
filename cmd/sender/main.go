package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/internal/sender"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/config"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/dispatch"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/server"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/whatsapp"

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
		ServiceName: "sender",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("sender service initializing", zap.String("env", cfg.Environment))

	// 3. Initialize components
	consumer := outbound.NewKafkaConsumer(outbound.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OutboundTopic,
		GroupID: cfg.Kafka.GroupID,
	})

	waClient := whatsapp.NewClient(whatsapp.Config{
		APIBase: cfg.WhatsApp.APIBase,
		Token:   cfg.WhatsApp.Token,
		PhoneID: cfg.WhatsApp.PhoneID,
	})

	pool := dispatch.NewPool(l, waClient, consumer, runtime.NumCPU())

	// 4. Create service
	svc := sender.NewService(l, consumer, pool)

	// 5. Start observability server
	obsServer := server.New(":8080", l, nil)
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Start consumption loop
	l.Info("sender service starting")
	if err := svc.Start(ctx); err != nil {
		l.Error("sender service failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	obsServer.Shutdown(shutdownCtx)
}
