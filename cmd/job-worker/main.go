// Package main 异步入库任务执行器入口
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"video-rag-api/internal/config"
	"video-rag-api/internal/infrastructure/messaging"
	einoobs "video-rag-api/internal/observability/eino"
	"video-rag-api/internal/wire"
	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/tracer"
)

const dlqAlertThreshold = 10

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(context.Background(), "job-worker exited", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName:    "job-worker",
		ServiceVersion: cfg.App.Version,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SampleRate:     cfg.Observability.Tracing.SampleRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	einoobs.Init()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize worker: %w", err)
	}
	defer cleanup()

	streamCfg := cfg.Messaging.RedisStream
	consumer := messaging.NewConsumer(worker.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamVideoIngest,
		Group:        messaging.ConsumerGroupIngestWorker,
		ConsumerName: wire.ConsumerName(),
		BlockTimeout: streamCfg.BlockTimeout,
		RetryLimit:   streamCfg.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    streamCfg.RetryBackoff.Initial,
			Max:        streamCfg.RetryBackoff.Max,
			Multiplier: streamCfg.RetryBackoff.Multiplier,
		},
	})
	consumer.RegisterHandler(messaging.MessageTypeVideoIngest, messaging.NewIngestHandler(worker.Jobs))

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	go consumer.MonitorDLQ(ctx, dlqAlertThreshold)

	logger.Info(ctx, "job-worker started",
		"stream", string(messaging.StreamVideoIngest),
		"index_store", cfg.Index.Store,
	)

	<-ctx.Done()
	logger.Info(context.Background(), "job-worker shutting down")
	consumer.Stop()
	return nil
}
