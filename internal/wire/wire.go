//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"video-rag-api/internal/application/ingest"
	"video-rag-api/internal/application/retrieval"
	"video-rag-api/internal/config"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/internal/infrastructure/llm"
	"video-rag-api/internal/infrastructure/messaging"
	"video-rag-api/internal/infrastructure/persistence/postgres"
	"video-rag-api/internal/infrastructure/persistence/redis"
	"video-rag-api/internal/interfaces/http/handler"
	"video-rag-api/internal/interfaces/http/middleware"
	"video-rag-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 api-gateway（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MessagingSet,
		IndexSet,
		QuerySet,
		IngestSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化 job-worker
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MessagingSet,
		IndexSet,
		IngestSet,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化离线入库
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, func(), error) {
	wire.Build(
		PostgresSet,
		IndexSet,
		ProvidePipeline,
		wire.Struct(new(Bootstrap), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewIngestJobRepository,
	wire.Bind(new(repository.IngestJobRepository), new(*postgres.IngestJobRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(ingest.JobPublisher), new(*messaging.Producer)),
)

// IndexSet 索引存储与 embedding
var IndexSet = wire.NewSet(
	ProvideIndexBackend,
	ProvideEmbedder,
)

// QuerySet 查询链路
var QuerySet = wire.NewSet(
	ProvideIndex,
	ProvideRetriever,
	llm.NewEinoFactory,
	ProvideDisambiguator,
	ProvideQueryService,
)

// IngestSet 入库链路
var IngestSet = wire.NewSet(
	ProvidePipeline,
	ingest.NewJobService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewQueryHandler,
	handler.NewIngestHandler,
	handler.NewIndexHandler,
	wire.Bind(new(handler.Matcher), new(*retrieval.QueryService)),
	wire.Bind(new(handler.IngestJobs), new(*ingest.JobService)),
	wire.Bind(new(handler.IndexManager), new(*retrieval.Index)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
