package retrieval

import (
	"fmt"
	"strings"

	"video-rag-api/internal/domain/entity"
)

const maxExcerptRunes = 600

const judgeSystemPrompt = `You match a user's question to the single video moment that best answers it.
You are given numbered candidates, each with a video_id, a timestamp and a transcript excerpt.
Pick exactly one candidate. Reply with one JSON object and nothing else:
{"video_id": "<video_id of the chosen candidate>", "timestamp": "<timestamp of the chosen candidate>", "answer": "<one or two sentences answering the question from the excerpt>"}
Copy video_id and timestamp exactly as given. Never invent values that are not listed.`

// BuildJudgePrompt 将候选格式化为编号列表
func BuildJudgePrompt(query string, cands []entity.MatchCandidate) string {
	lines := make([]string, 0, len(cands)+3)
	lines = append(lines, "Question: "+compactOneLine(query), "", "Candidates:")
	for i, c := range cands {
		txt := truncateRunes(compactOneLine(c.Text), maxExcerptRunes)
		lines = append(lines, fmt.Sprintf("[%d] video_id=%s timestamp=%s\n%s", i+1, c.VideoID, c.Timestamp, txt))
	}
	return strings.Join(lines, "\n")
}

func compactOneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
