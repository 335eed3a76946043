package retrieval

import (
	"errors"
	"fmt"
)

// ErrIndexNotLoaded 表示尚未加载任何索引快照。
var ErrIndexNotLoaded = errors.New("index snapshot not loaded")

// InvalidInputError 切片输入不合法（乱序、重叠、start > end、混合视频）。
type InvalidInputError struct {
	VideoID string
	Index   int
	Reason  string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid segments for video %q at %d: %s", e.VideoID, e.Index, e.Reason)
}

// ConfigError 切片或检索参数不合法。
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// EmbeddingError embedding 服务调用失败。
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// LoadError 索引加载失败，当前快照保持不变。
type LoadError struct {
	Entry  int
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "index load failed"
	if e.Entry >= 0 {
		msg = fmt.Sprintf("%s at entry %d", msg, e.Entry)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// DimensionMismatchError 查询向量维度与索引维度不一致。
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("query dimension %d does not match index dimension %d", e.Got, e.Want)
}

// NoCandidatesError 检索没有返回任何候选。
type NoCandidatesError struct {
	Query string
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no candidates for query %q", e.Query)
}
