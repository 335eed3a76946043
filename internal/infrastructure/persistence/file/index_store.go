// Package file 提供基于本地 JSON 文件的索引记录存储，用于单机部署与离线预计算索引
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
)

// IndexStore 整个索引保存为一个 JSON 数组：[{"video_id","timestamp","text","embedding"}]
type IndexStore struct {
	path string
	mu   sync.Mutex
}

var _ repository.IndexStore = (*IndexStore)(nil)

// NewIndexStore 创建文件索引存储
func NewIndexStore(path string) *IndexStore {
	return &IndexStore{path: path}
}

// Name 存储名称
func (s *IndexStore) Name() string { return "file" }

// LoadEntries 读取文件；文件不存在时返回空索引
func (s *IndexStore) LoadEntries(_ context.Context) ([]*entity.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// ReplaceVideo 读改写整个文件，写入临时文件后 rename
func (s *IndexStore) ReplaceVideo(ctx context.Context, videoID string, entries []*entity.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := s.read()
	if err != nil {
		return err
	}

	kept := existing[:0]
	for _, e := range existing {
		if e.VideoID != videoID {
			kept = append(kept, e)
		}
	}
	kept = append(kept, entries...)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].VideoID < kept[j].VideoID })

	return s.write(kept)
}

func (s *IndexStore) read() ([]*entity.IndexEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*entity.IndexEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}

	var entries []*entity.IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode index file %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *IndexStore) write(entries []*entity.IndexEntry) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".index-*.json")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(entries); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
