package retrieval

import (
	"strings"
	"time"

	"video-rag-api/internal/domain/entity"
)

// ChunkOptions 时间窗口参数，要求 0 <= Overlap < Duration
type ChunkOptions struct {
	Duration time.Duration
	Overlap  time.Duration
}

func (o ChunkOptions) validate() error {
	if o.Duration <= 0 {
		return &ConfigError{Field: "duration", Reason: "must be positive"}
	}
	if o.Overlap < 0 {
		return &ConfigError{Field: "overlap", Reason: "must not be negative"}
	}
	if o.Overlap >= o.Duration {
		return &ConfigError{Field: "overlap", Reason: "must be less than duration"}
	}
	return nil
}

// ChunkVideo 将单个视频的有序片段合并为定长、相互重叠的时间窗口。
//
// 窗口从首个片段起点开始，每次前进 Duration-Overlap；窗口起点到达最后一个片段终点时停止。
// 片段与窗口 [w, w+Duration) 相交即整段并入，不做切分，因此落在重叠区的片段会同时出现在相邻两个窗口中。
// 没有片段落入的窗口仍然输出（Text 为空）。
func ChunkVideo(videoID string, segments []entity.Segment, opts ChunkOptions) ([]entity.Chunk, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := validateSegments(videoID, segments); err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, nil
	}

	first := segments[0].Start
	last := segments[len(segments)-1].End
	step := opts.Duration - opts.Overlap

	chunks := make([]entity.Chunk, 0, int((last-first)/step)+1)
	lo := 0
	for w := first; ; w += step {
		end := w + opts.Duration

		// 片段有序且不重叠，终点落在窗口之前的片段之后不会再命中
		for lo < len(segments) && segments[lo].End <= w && !zeroLengthAt(segments[lo], w) {
			lo++
		}
		texts := make([]string, 0, 4)
		for i := lo; i < len(segments) && segments[i].Start < end; i++ {
			if intersects(segments[i], w, end) {
				if t := strings.TrimSpace(segments[i].Text); t != "" {
					texts = append(texts, t)
				}
			}
		}

		chunkEnd := end
		if chunkEnd > last {
			chunkEnd = last
		}
		chunks = append(chunks, entity.Chunk{
			VideoID: videoID,
			Start:   w,
			End:     chunkEnd,
			Text:    strings.Join(texts, " "),
		})

		if w+step >= last {
			break
		}
	}
	return chunks, nil
}

// intersects 判断片段与半开窗口 [lo, hi) 是否相交；零长片段以起点是否落在窗口内为准
func intersects(s entity.Segment, lo, hi time.Duration) bool {
	if s.Start == s.End {
		return s.Start >= lo && s.Start < hi
	}
	return s.Start < hi && s.End > lo
}

func zeroLengthAt(s entity.Segment, w time.Duration) bool {
	return s.Start == s.End && s.Start >= w
}

func validateSegments(videoID string, segments []entity.Segment) error {
	for i, s := range segments {
		if s.VideoID != "" && s.VideoID != videoID {
			return &InvalidInputError{VideoID: videoID, Index: i, Reason: "mixed video ids: " + s.VideoID}
		}
		if s.Start < 0 {
			return &InvalidInputError{VideoID: videoID, Index: i, Reason: "negative start"}
		}
		if s.Start > s.End {
			return &InvalidInputError{VideoID: videoID, Index: i, Reason: "start after end"}
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1]
		if s.Start < prev.Start {
			return &InvalidInputError{VideoID: videoID, Index: i, Reason: "segments not ordered by start"}
		}
		if s.Start < prev.End {
			return &InvalidInputError{VideoID: videoID, Index: i, Reason: "segment overlaps previous"}
		}
	}
	return nil
}
