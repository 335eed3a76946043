package eino

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"video-rag-api/internal/domain/service"
	"video-rag-api/pkg/metrics"
)

// startTimeKey 调用开始时间，OnEnd/OnError 用于计算耗时
type startTimeKey struct{}

// callLabels 一次调用的指标标签
type callLabels struct {
	workflow string
	provider string
	model    string
}

func labelsFrom(ctx context.Context, modelName string) callLabels {
	return callLabels{
		workflow: service.WorkflowFromContext(ctx),
		provider: service.ProviderFromContext(ctx),
		model:    modelName,
	}
}

func startSpan(ctx context.Context, name string, l callLabels, info *einocb.RunInfo) context.Context {
	ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

	attrs := []attribute.KeyValue{
		attribute.String("eino.workflow", l.workflow),
		attribute.String("llm.provider", l.provider),
		attribute.String("llm.model", l.model),
	}
	if info != nil {
		attrs = append(attrs,
			attribute.String("eino.node_name", info.Name),
			attribute.String("eino.type", info.Type),
		)
	}

	ctx, _ = otel.Tracer("eino").Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx
}

func finish(ctx context.Context, l callLabels, status string, prompt, completion int, err error) {
	metrics.LLMCallTotal.WithLabelValues(l.workflow, l.provider, l.model, status).Inc()
	if d := elapsedSeconds(ctx); d > 0 {
		metrics.LLMCallDuration.WithLabelValues(l.workflow, l.provider, l.model).Observe(d)
	}
	if prompt > 0 {
		metrics.LLMTokensUsed.WithLabelValues(l.workflow, l.provider, l.model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		metrics.LLMTokensUsed.WithLabelValues(l.workflow, l.provider, l.model, "completion").Add(float64(completion))
	}

	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if prompt > 0 || completion > 0 {
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", prompt),
			attribute.Int("llm.completion_tokens", completion),
		)
	}
	span.End()
}

// newChatModelCallbackHandler 裁决模型调用的 span、调用次数、耗时与 token
func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			return startSpan(ctx, "llm.generate", labelsFrom(ctx, modelNameFromInput(input)), info)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			var prompt, completion int
			if output != nil && output.TokenUsage != nil {
				prompt = output.TokenUsage.PromptTokens
				completion = output.TokenUsage.CompletionTokens
			}
			finish(ctx, labelsFrom(ctx, modelNameFromOutput(output)), "success", prompt, completion, nil)
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			finish(ctx, labelsFrom(ctx, runInfoType(info)), "error", 0, 0, err)
			return ctx
		},
	}
}

// newEmbeddingCallbackHandler 查询与入库 embedding 调用
func newEmbeddingCallbackHandler() *cbtemplate.EmbeddingCallbackHandler {
	return &cbtemplate.EmbeddingCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *embedding.CallbackInput) context.Context {
			name := ""
			if input != nil && input.Config != nil {
				name = input.Config.Model
			}
			return startSpan(ctx, "embedding.embed", labelsFrom(ctx, name), info)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *embedding.CallbackOutput) context.Context {
			name, prompt := "", 0
			if output != nil {
				if output.Config != nil {
					name = output.Config.Model
				}
				if output.TokenUsage != nil {
					prompt = output.TokenUsage.PromptTokens
				}
			}
			finish(ctx, labelsFrom(ctx, name), "success", prompt, 0, nil)
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			finish(ctx, labelsFrom(ctx, runInfoType(info)), "error", 0, 0, err)
			return ctx
		},
	}
}

func elapsedSeconds(ctx context.Context) float64 {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

func runInfoType(info *einocb.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Type
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
