// Package logger 基于 log/slog 的结构化日志，自动附带 context 中的追踪字段
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// ContextKey 日志字段在 context 中的键
type ContextKey string

const (
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	RequestIDKey ContextKey = "request_id"
	JobIDKey     ContextKey = "job_id"
	VideoIDKey   ContextKey = "video_id"
)

// contextKeys 决定注入字段的顺序
var contextKeys = [...]ContextKey{TraceIDKey, SpanIDKey, RequestIDKey, JobIDKey, VideoIDKey}

var current atomic.Pointer[slog.Logger]

// Init 初始化日志器，输出到 stdout
func Init(level, format string) {
	InitWithWriter(os.Stdout, level, format)
}

// InitWithWriter 初始化日志器并指定输出；format 为 json 时输出 JSON，否则为 text
func InitWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: true}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h)
	current.Store(l)
	slog.SetDefault(l)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Default 当前日志器，未初始化时按 info/json 初始化
func Default() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init("info", "json")
	return current.Load()
}

// FromContext 返回附带 context 追踪字段的日志器
func FromContext(ctx context.Context) *slog.Logger {
	l := Default()
	if ctx == nil {
		return l
	}
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		l = l.With(attrs...)
	}
	return l
}

func contextAttrs(ctx context.Context) []any {
	var attrs []any
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			attrs = append(attrs, slog.Any(string(key), v))
		}
	}
	return attrs
}

// WithContext 把日志字段写入 context
func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

func Debug(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelDebug, msg, args) }

func Info(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelInfo, msg, args) }

func Warn(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelWarn, msg, args) }

// Error 记录错误，err 以 error 字段输出
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	emit(ctx, slog.LevelError, msg, args)
}

// Fatal 记录错误后退出进程
func Fatal(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	emit(ctx, slog.LevelError, msg, args)
	os.Exit(1)
}

// emit 以调用方位置作为 source 输出，跳过本包的封装层
func emit(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := Default()
	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(contextAttrs(ctx)...)
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}
