package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"wallet-ledger/config"
	"wallet-ledger/internal/adapter/broker"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("projector", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("group", cfg.Broker.Group).
		Str("consumer", cfg.Broker.Consumer).
		Msg("Starting Wallet Ledger projector")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	readModel := redisStorage.NewReadModelStore(rdb)
	projectionSvc := service.NewProjectionService(readModel, log)

	subscriber := broker.NewSubscriber(rdb, cfg.Broker.Group, cfg.Broker.Consumer, cfg.Broker.Block, log)

	// One consumer loop per topic; both stop when the context is cancelled.
	var wg sync.WaitGroup
	topics := map[string]func(context.Context, []byte) error{
		domain.TopicWalletCreated:  projectionSvc.HandleWalletCreated,
		domain.TopicBalanceChanged: projectionSvc.HandleBalanceChanged,
	}
	for topic, handler := range topics {
		wg.Add(1)
		go func(topic string, handler func(context.Context, []byte) error) {
			defer wg.Done()
			if err := subscriber.Subscribe(ctx, topic, handler); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("topic", topic).Msg("subscriber stopped")
			}
		}(topic, handler)
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down projector...")
	wg.Wait()
	log.Info().Msg("Projector exited")
}
