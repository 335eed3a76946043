// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"os"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"video-rag-api/internal/application/ingest"
	"video-rag-api/internal/application/retrieval"
	"video-rag-api/internal/config"
	"video-rag-api/internal/domain/repository"
	infraembedding "video-rag-api/internal/infrastructure/embedding"
	"video-rag-api/internal/infrastructure/llm"
	"video-rag-api/internal/infrastructure/messaging"
	"video-rag-api/internal/infrastructure/persistence/cassandra"
	"video-rag-api/internal/infrastructure/persistence/file"
	"video-rag-api/internal/infrastructure/persistence/milvus"
	"video-rag-api/internal/infrastructure/persistence/postgres"
	"video-rag-api/internal/infrastructure/persistence/redis"
	"video-rag-api/internal/interfaces/http/handler"
	"video-rag-api/internal/interfaces/http/router"
	"video-rag-api/pkg/logger"
)

// IndexBackend 按 index.store 选中的索引存储
type IndexBackend struct {
	Store repository.IndexStore
	// Check 存储探活，file 与 postgres（已单独探活）为 nil
	Check handler.HealthChecker
	// Prepare 创建集合或表
	Prepare func(ctx context.Context) error
}

// App api-gateway 依赖
type App struct {
	Router *router.Router
	Index  *retrieval.Index
}

// Worker job-worker 依赖
type Worker struct {
	Jobs        *ingest.JobService
	RedisClient *redis.Client
}

// Bootstrap 离线入库与建表依赖
type Bootstrap struct {
	PgClient *postgres.Client
	Backend  *IndexBackend
	Pipeline *ingest.Pipeline
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), maxLen)
}

// ProvideIndexBackend 按配置创建索引存储
func ProvideIndexBackend(ctx context.Context, cfg *config.Config, pg *postgres.Client) (*IndexBackend, func(), error) {
	switch cfg.Index.Store {
	case "", "postgres":
		return &IndexBackend{
			Store:   postgres.NewIndexEntryRepository(pg),
			Prepare: pg.AutoMigrate,
		}, func() {}, nil

	case "milvus":
		client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
		if err != nil {
			return nil, nil, err
		}
		store := milvus.NewIndexStore(client, cfg.Embedding.Dimension)
		cleanup := func() {
			_ = client.Close()
		}
		return &IndexBackend{Store: store, Check: client, Prepare: store.EnsureCollection}, cleanup, nil

	case "cassandra":
		client, err := cassandra.NewClient(&cfg.Database.Cassandra)
		if err != nil {
			return nil, nil, err
		}
		store := cassandra.NewIndexStore(client)
		return &IndexBackend{Store: store, Check: client, Prepare: store.EnsureSchema}, client.Close, nil

	case "file":
		store := file.NewIndexStore(cfg.Index.FilePath)
		return &IndexBackend{Store: store, Prepare: func(context.Context) error { return nil }}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown index store %q", cfg.Index.Store)
	}
}

// ProvideEmbedder 提供 embedding 客户端
func ProvideEmbedder(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	return infraembedding.New(ctx, &cfg.Embedding)
}

// ProvideIndex 提供内存索引快照持有者
func ProvideIndex(backend *IndexBackend) *retrieval.Index {
	return retrieval.NewIndex(backend.Store, backend.Store.Name())
}

// ProvideRetriever 提供检索器
func ProvideRetriever(cfg *config.Config, embedder einoembedding.Embedder, index *retrieval.Index) *retrieval.Retriever {
	return retrieval.NewRetriever(embedder, index, cfg.Retrieval.TopK)
}

// ProvideDisambiguator 提供裁决器；对话模型不可用时退化为取排名第一的候选
func ProvideDisambiguator(ctx context.Context, cfg *config.Config, factory *llm.EinoFactory) *retrieval.Disambiguator {
	provider := factory.Resolve(cfg.Retrieval.JudgeProvider)
	chatModel, err := factory.Get(ctx, provider)
	if err != nil {
		logger.Warn(ctx, "judge model not available, falling back to top candidate", "provider", provider, "error", err.Error())
		return retrieval.NewDisambiguator(nil, provider, cfg.Retrieval.JudgeTimeout)
	}
	return retrieval.NewDisambiguator(chatModel, provider, cfg.Retrieval.JudgeTimeout)
}

// ProvideQueryService 提供查询服务
func ProvideQueryService(cfg *config.Config, retriever *retrieval.Retriever, judge *retrieval.Disambiguator, index *retrieval.Index, cache *redis.Cache) *retrieval.QueryService {
	return retrieval.NewQueryService(retriever, judge, index, cfg.Retrieval.WatchURL,
		retrieval.WithAnswerCache(redis.NewAnswerCache(cache), cfg.Retrieval.CacheTTL))
}

// ProvidePipeline 提供入库流水线
func ProvidePipeline(cfg *config.Config, embedder einoembedding.Embedder, backend *IndexBackend) *ingest.Pipeline {
	return ingest.NewPipeline(embedder, backend.Store, ingest.Options{
		Chunking: retrieval.ChunkOptions{
			Duration: cfg.Chunking.Duration,
			Overlap:  cfg.Chunking.Overlap,
		},
		Concurrency:     cfg.Ingest.Concurrency,
		EmbedMaxRetries: cfg.Ingest.EmbedMaxRetries,
		EmbedBackoff:    cfg.Ingest.EmbedBackoff,
	})
}

// ProvideHealthHandler 提供健康检查处理器，就绪检查覆盖全部已配置的存储
func ProvideHealthHandler(cfg *config.Config, index *retrieval.Index, backend *IndexBackend, pg *postgres.Client, rc *redis.Client) *handler.HealthHandler {
	checks := map[string]handler.HealthChecker{
		"postgres": pg,
		"redis":    rc,
	}
	if backend.Check != nil {
		checks[backend.Store.Name()] = backend.Check
	}
	return handler.NewHealthHandler(index, checks, cfg.App.Version)
}

// ConsumerName 消费者名称，同组内各实例需唯一
func ConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
