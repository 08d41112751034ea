package pipeline

import "strings"

// CategoryGeneral 是所有分类得分都为 0 时的兜底分类。
const CategoryGeneral = "general"

// CategoryAuto 表示由 Categorizer 自动为每个切块打分类。
const CategoryAuto = "auto"

type categoryRule struct {
	label    string
	keywords []string
}

// 顺序即平局时的优先级，先声明者胜出。
var categoryRules = []categoryRule{
	{"education", []string{"university", "college", "degree", "bachelor", "master", "phd", "gpa"}},
	{"experience", []string{"company", "worked", "position", "role", "responsibilities", "achieved", "led"}},
	{"skills", []string{"proficient", "experienced in", "skills:", "technologies:", "programming", "languages:"}},
	{"projects", []string{"project", "developed", "built", "created", "implemented", "github"}},
	{"certifications", []string{"certified", "certification", "certificate", "credential"}},
}

// Categories 返回固定顺序的分类标签，不含 general。
func Categories() []string {
	labels := make([]string, len(categoryRules))
	for i, r := range categoryRules {
		labels[i] = r.label
	}
	return labels
}

// Categorize 按关键词命中数为文本打分类：每个关键词以子串方式匹配，命中计 1 分。
func Categorize(content string) string {
	lower := strings.ToLower(content)
	best, bestScore := CategoryGeneral, 0
	for _, rule := range categoryRules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = rule.label, score
		}
	}
	return best
}
