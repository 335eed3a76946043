// Package service 定义跨层共享的调用上下文约定
package service

import (
	"context"
	"strings"
)

// UnknownLabel 上下文缺失标签时的取值
const UnknownLabel = "unknown"

type labelKey int

const (
	workflowKey labelKey = iota
	providerKey
)

// WithWorkflow 标记本次模型调用所属环节（query_embedding / ingest_embedding / disambiguate），
// eino 回调据此给指标打标签
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return withLabel(ctx, workflowKey, workflow)
}

// WithProvider 标记本次调用使用的 LLM provider
func WithProvider(ctx context.Context, provider string) context.Context {
	return withLabel(ctx, providerKey, provider)
}

// WithWorkflowProvider 同时标记环节与 provider
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return WithProvider(WithWorkflow(ctx, workflow), provider)
}

// WorkflowFromContext 读取环节标签
func WorkflowFromContext(ctx context.Context) string {
	return labelFrom(ctx, workflowKey)
}

// ProviderFromContext 读取 provider 标签
func ProviderFromContext(ctx context.Context) string {
	return labelFrom(ctx, providerKey)
}

func withLabel(ctx context.Context, key labelKey, v string) context.Context {
	if ctx == nil {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func labelFrom(ctx context.Context, key labelKey) string {
	if ctx == nil {
		return UnknownLabel
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	return UnknownLabel
}
