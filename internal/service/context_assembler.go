package service

import (
	"strings"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
)

// DefaultRelevanceThreshold 是进入生成上下文的最低相关度（不含）。
const DefaultRelevanceThreshold = 0.5

// AssembleContext 按输入顺序保留相关度高于阈值且内容首次出现的片段，
// 渲染为每行一条的 "- 内容" 文本块。没有任何片段保留时返回 NoRelevantContext。
func AssembleContext(matches []model.RetrievalMatch, threshold float64) (string, error) {
	seen := make(map[string]struct{}, len(matches))
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.RelevanceScore <= threshold {
			continue
		}
		if _, dup := seen[m.Content]; dup {
			continue
		}
		seen[m.Content] = struct{}{}
		lines = append(lines, "- "+m.Content)
	}
	if len(lines) == 0 {
		return "", apperror.NoRelevantContext("no sufficiently relevant content found")
	}
	return strings.Join(lines, "\n"), nil
}
