package transcript

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"video-rag-api/internal/domain/entity"
)

// LoadFile 按扩展名解析单个转写文件，文件名（去扩展名）作为默认 video_id
func LoadFile(path string) (*entity.Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		segs, err := ParseSRT(stem, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &entity.Video{ID: stem, Segments: segs}, nil
	case ".json":
		v, err := ParseJSON(stem, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s: unsupported transcript extension", path)
	}
}

// LoadDir 读取目录下所有 .srt / .json 转写，按文件名排序
func LoadDir(dir string) ([]entity.Video, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".srt", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	videos := make([]entity.Video, 0, len(names))
	for _, name := range names {
		v, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, nil
}
