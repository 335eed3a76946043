// Package transcript 解析视频转写文件（SRT / JSON）
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/pkg/timecode"
)

// ParseSRT 解析 SRT 字幕：
//
//	1
//	00:00:00,000 --> 00:00:01,830
//	I'm happy to
//	have you here today.
//
// 同一 cue 的多行文本以空格拼接为一个片段。
func ParseSRT(videoID string, r io.Reader) ([]entity.Segment, error) {
	var (
		segments []entity.Segment
		cur      *entity.Segment
		lines    []string
		lineNo   int
	)

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(lines, " ")
			segments = append(segments, *cur)
		}
		cur = nil
		lines = lines[:0]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))

		if line == "" {
			flush()
			continue
		}

		// HH:MM:SS,mmm --> HH:MM:SS,mmm
		if strings.Contains(line, "-->") {
			flush()
			startRaw, endRaw, _ := strings.Cut(line, "-->")
			start, err := timecode.Parse(startRaw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			// 结束时间后可能带位置参数，如 "X1:40 X2:600"
			endFields := strings.Fields(endRaw)
			if len(endFields) == 0 {
				return nil, fmt.Errorf("line %d: missing cue end", lineNo)
			}
			end, err := timecode.Parse(endFields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cur = &entity.Segment{VideoID: videoID, Start: start, End: end}
			continue
		}

		// cue 序号
		if cur == nil && isDigitOnly(line) {
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("line %d: text outside of a cue", lineNo)
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	flush()

	return segments, nil
}

func isDigitOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
