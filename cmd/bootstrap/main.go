// Package main 离线初始化：创建存储结构并批量导入转写目录
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"video-rag-api/internal/application/ingest"
	"video-rag-api/internal/config"
	"video-rag-api/internal/infrastructure/transcript"
	einoobs "video-rag-api/internal/observability/eino"
	"video-rag-api/internal/wire"
	"video-rag-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	einoobs.Init()

	ctx := context.Background()

	// 2. 初始化依赖
	deps, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize bootstrap: %v", err)
	}
	defer cleanup()

	// 3. 建表：ingest_jobs 总在 PostgreSQL，索引存储按配置
	if err := deps.PgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate postgres: %v", err)
	}
	if err := deps.Backend.Prepare(ctx); err != nil {
		log.Fatalf("failed to prepare %s store: %v", deps.Backend.Store.Name(), err)
	}
	fmt.Printf("Index store %s ready.\n", deps.Backend.Store.Name())

	// 4. 批量导入
	if skip := strings.ToLower(os.Getenv("BOOTSTRAP_SKIP_INGEST")); skip == "1" || skip == "true" {
		fmt.Println("Ingestion skipped.")
		return
	}
	dir := cfg.Ingest.SourceDir
	if _, err := os.Stat(dir); err != nil {
		fmt.Printf("Transcript directory %q not found, nothing to ingest.\n", dir)
		return
	}

	videos, err := transcript.LoadDir(dir)
	if err != nil {
		log.Fatalf("failed to load transcripts: %v", err)
	}
	fmt.Printf("Ingesting %d videos from %s...\n", len(videos), dir)

	reports := deps.Pipeline.IngestAll(ctx, videos)
	for _, r := range reports {
		if r.Err() != nil {
			fmt.Printf("  %s: failed: %s\n", r.VideoID, r.Error)
			continue
		}
		fmt.Printf("  %s: %d/%d chunks indexed, %d skipped\n", r.VideoID, r.Indexed, r.Chunks, len(r.Skipped))
	}

	summary := ingest.Summarize(reports)
	out, _ := json.Marshal(summary)
	fmt.Printf("Summary: %s\n", out)

	if summary.Failed > 0 {
		os.Exit(1)
	}
	fmt.Println("Bootstrap completed successfully.")
}
