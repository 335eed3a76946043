// Package timecode 提供转写时间戳的解析、规范化与深链格式化
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatError 时间戳格式错误
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %s", e.Input, e.Reason)
}

// Format 将 HH:MM:SS / MM:SS 转为视频深链使用的时长串（如 1h05m30s）。
//
// 小时为 0 时省略小时段；分、秒保留原始数字，不做补零或去零。
// HH:MM:SS 形式下首个输出段按数值输出（"00:05:30" -> "5m30s"）。
func Format(ts string) (string, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	for _, p := range parts {
		if !isDigits(p) {
			return "", &FormatError{Input: ts, Reason: "expected HH:MM:SS or MM:SS"}
		}
	}

	var sb strings.Builder
	switch len(parts) {
	case 3:
		hours := trimLeadingZeros(parts[0])
		if hours != "0" {
			sb.WriteString(hours)
			sb.WriteString("h")
			sb.WriteString(parts[1])
		} else {
			sb.WriteString(trimLeadingZeros(parts[1]))
		}
		sb.WriteString("m")
	case 2:
		sb.WriteString(parts[0])
		sb.WriteString("m")
	default:
		return "", &FormatError{Input: ts, Reason: "expected HH:MM:SS or MM:SS"}
	}
	sb.WriteString(parts[len(parts)-1])
	sb.WriteString("s")
	return sb.String(), nil
}

// Canonical 将偏移量渲染为零填充的 HH:MM:SS（向下取整到秒）。
func Canonical(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Parse 解析 HH:MM:SS / MM:SS / 纯秒数，秒段可带 ",mmm" 或 ".mmm" 小数。
func Parse(s string) (time.Duration, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, &FormatError{Input: s, Reason: "empty"}
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, &FormatError{Input: s, Reason: "too many components"}
	}

	secPart := strings.Replace(parts[len(parts)-1], ",", ".", 1)
	whole, frac, _ := strings.Cut(secPart, ".")
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return 0, &FormatError{Input: s, Reason: "invalid seconds"}
	}
	secs, err := strconv.ParseFloat(secPart, 64)
	if err != nil {
		return 0, &FormatError{Input: s, Reason: "invalid seconds"}
	}
	if len(parts) > 1 && secs >= 60 {
		return 0, &FormatError{Input: s, Reason: "seconds out of range"}
	}

	total := time.Duration(math.Round(secs * float64(time.Second)))
	unit := time.Minute
	for i := len(parts) - 2; i >= 0; i-- {
		if !isDigits(parts[i]) {
			return 0, &FormatError{Input: s, Reason: "invalid component"}
		}
		n, _ := strconv.Atoi(parts[i])
		if unit == time.Minute && len(parts) == 3 && n >= 60 {
			return 0, &FormatError{Input: s, Reason: "minutes out of range"}
		}
		total += time.Duration(n) * unit
		unit = time.Hour
	}
	return total, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimLeadingZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}
