package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/internal/archiver"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/archive"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/config"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
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
		ServiceName: "archiver",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("archiver service initializing", zap.String("env", cfg.Environment))

	loc, err := cfg.Location()
	if err != nil {
		l.Error("failed to load timezone", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	// 4. Initialize PostgreSQL writer
	pgWriter, err := archive.NewPGWriter(ctx, archive.PostgresConfig{
		URI:      cfg.Postgres.URI,
		MinConns: int32(cfg.Postgres.MinConns),
		MaxConns: int32(cfg.Postgres.MaxConns),
	}, l)
	if err != nil {
		l.Error("failed to connect to postgres", err)
		os.Exit(1)
	}

	// 5. Resume token store: redis when configured, file otherwise
	tokens, err := archive.NewTokenStore(archive.TokenConfig{
		RedisAddr: cfg.Archiver.RedisAddr,
		RedisKey:  cfg.Archiver.RedisKey,
		FilePath:  cfg.Archiver.ResumeTokenPath,
	})
	if err != nil {
		l.Error("failed to build token store", err)
		os.Exit(1)
	}

	tailer := archive.NewMongoTailer(db)
	buffer := archive.NewBuffer(cfg.Archiver.BatchSize)

	// 6. Create service
	svc := archiver.NewService(l, tailer, tokens, pgWriter, buffer, loc, cfg.Archiver.FlushInterval)

	// 7. Start observability server
	obsServer := server.New(":8080", l, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()

	// 8. Run the tail loop
	l.Info("archiver service starting")
	if err := svc.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("archiver service stopping")
		} else {
			l.Error("archiver service failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	obsServer.Shutdown(shutdownCtx)
}
