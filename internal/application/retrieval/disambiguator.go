package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/service"
	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
)

const judgeWorkflow = "disambiguate"

// 回退原因
const (
	ReasonJudged           = "judged"
	ReasonSingleCandidate  = "single_candidate"
	ReasonNoModel          = "no_model"
	ReasonModelError       = "model_error"
	ReasonTimeout          = "timeout"
	ReasonParseError       = "parse_error"
	ReasonUnknownCandidate = "unknown_candidate"
)

// Judgment 裁决结果，Candidate 一定来自输入候选集
type Judgment struct {
	Candidate  entity.MatchCandidate
	AnswerText string
	Fallback   bool
	Reason     string
}

type judgeReply struct {
	VideoID   string `json:"video_id"`
	Timestamp string `json:"timestamp"`
	Answer    string `json:"answer"`
}

// Disambiguator 用对话模型在候选中挑选一个，模型不可用或输出不可信时回退到排名第一的候选
type Disambiguator struct {
	model    model.BaseChatModel
	provider string
	timeout  time.Duration
}

// NewDisambiguator 创建裁决器，chatModel 可为 nil
func NewDisambiguator(chatModel model.BaseChatModel, provider string, timeout time.Duration) *Disambiguator {
	return &Disambiguator{model: chatModel, provider: provider, timeout: timeout}
}

// Choose 从候选中选出一个
func (d *Disambiguator) Choose(ctx context.Context, query string, cands []entity.MatchCandidate) (*Judgment, error) {
	if len(cands) == 0 {
		return nil, &NoCandidatesError{Query: query}
	}
	if len(cands) == 1 {
		return d.fallback(ctx, cands, ReasonSingleCandidate, nil), nil
	}
	if d == nil || d.model == nil {
		return d.fallback(ctx, cands, ReasonNoModel, nil), nil
	}

	callCtx := service.WithWorkflowProvider(ctx, judgeWorkflow, d.provider)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, d.timeout)
		defer cancel()
	}

	msg, err := d.model.Generate(callCtx, []*schema.Message{
		schema.SystemMessage(judgeSystemPrompt),
		schema.UserMessage(BuildJudgePrompt(query, cands)),
	})
	if err != nil {
		reason := ReasonModelError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return d.fallback(ctx, cands, reason, err), nil
	}
	if msg == nil {
		return d.fallback(ctx, cands, ReasonParseError, errors.New("nil model message")), nil
	}

	var reply judgeReply
	if err := json.Unmarshal([]byte(extractJSONObject(msg.Content)), &reply); err != nil {
		return d.fallback(ctx, cands, ReasonParseError, err), nil
	}

	vid := strings.TrimSpace(reply.VideoID)
	ts := strings.TrimSpace(reply.Timestamp)
	for _, c := range cands {
		if c.VideoID == vid && c.Timestamp == ts {
			metrics.DisambiguationTotal.WithLabelValues("judged", ReasonJudged).Inc()
			return &Judgment{Candidate: c, AnswerText: strings.TrimSpace(reply.Answer), Reason: ReasonJudged}, nil
		}
	}
	return d.fallback(ctx, cands, ReasonUnknownCandidate, nil), nil
}

func (d *Disambiguator) fallback(ctx context.Context, cands []entity.MatchCandidate, reason string, cause error) *Judgment {
	metrics.DisambiguationTotal.WithLabelValues("fallback", reason).Inc()
	if cause != nil {
		logger.Warn(ctx, "disambiguation fell back to top candidate", "reason", reason, "error", cause.Error())
	} else if reason != ReasonSingleCandidate {
		logger.Debug(ctx, "disambiguation fell back to top candidate", "reason", reason)
	}
	return &Judgment{Candidate: cands[0], Fallback: true, Reason: reason}
}

// extractJSONObject 截取模型输出中的第一个 JSON 对象，兼容 ```json 代码块与前后说明文字
func extractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	start := strings.Index(raw, "{")
	if start < 0 {
		return raw
	}
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	var obj json.RawMessage
	if err := dec.Decode(&obj); err == nil {
		return string(obj)
	}
	if end := strings.LastIndex(raw, "}"); end > start {
		return raw[start : end+1]
	}
	return raw
}
