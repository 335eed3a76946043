// Package llm 管理候选裁决用的 Eino ChatModel
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"video-rag-api/internal/config"
)

// EinoFactory 按 provider 惰性创建 ChatModel，同一 provider 只创建一次
type EinoFactory struct {
	defaultProvider string
	providers       map[string]config.ProviderConfig

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// NewEinoFactory 创建工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		defaultProvider: cfg.LLM.DefaultProvider,
		providers:       cfg.LLM.Providers,
		models:          map[string]model.BaseChatModel{},
	}
}

// Resolve 空名称解析为默认 provider
func (f *EinoFactory) Resolve(name string) string {
	if name != "" {
		return name
	}
	return f.defaultProvider
}

// Get 返回 provider 对应的 ChatModel
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	name = f.Resolve(name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.models[name]; ok {
		return m, nil
	}
	pc, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm provider %q is not configured", name)
	}
	m, err := newChatModel(ctx, name, pc)
	if err != nil {
		return nil, err
	}
	f.models[name] = m
	return m, nil
}

// newChatModel 通过 OpenAI 兼容协议创建模型
func newChatModel(ctx context.Context, name string, pc config.ProviderConfig) (model.BaseChatModel, error) {
	if pc.APIKey == "" {
		return nil, fmt.Errorf("llm provider %q has no api_key", name)
	}

	temperature := float32(pc.Temperature)
	mc := &openai.ChatModelConfig{
		APIKey:      pc.APIKey,
		BaseURL:     pc.BaseURL,
		Model:       pc.Model,
		Temperature: &temperature,
		Timeout:     pc.Timeout,
	}
	if pc.MaxTokens > 0 {
		maxTokens := pc.MaxTokens
		mc.MaxTokens = &maxTokens
	}

	m, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("create chat model for %q: %w", name, err)
	}
	return m, nil
}
