package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/config"
	"resume-smart-go/internal/model"
	"resume-smart-go/pkg/llm"
	"resume-smart-go/pkg/log"
)

// resumeKeys 是模型输出中必须出现且不能为 null 的顶层字段。
var resumeKeys = []string{"SUMMARY", "SKILLS", "WORK_EXPERIENCE", "EDUCATION", "PROJECTS"}

const resumePromptTemplate = `
You are a professional resume writer creating an ATS-optimized resume in JSON format.
Use ONLY the provided "Candidate Data" to fill out the JSON structure. Do not invent information.
Tailor the content to the "Target Job Description". If no data exists for a field, use an empty string or array.
Your entire output must be a single, valid JSON object.

**Candidate Data:**
---
%s
---

**Target Job Description:**
---
%s
---

**Required JSON Output Structure:**
{
  "SUMMARY": "A 2-3 sentence professional summary.",
  "SKILLS": {
    "Languages": "Comma-separated list.", "AI_ML": "Comma-separated list.", "Tools": "Comma-separated list.",
    "Database": "Comma-separated list.", "Cloud": "Comma-separated list.", "Web_Development": "Comma-separated list.",
    "Certifications": "Comma-separated list."
  },
  "WORK_EXPERIENCE": [{
      "Company": "Company Name", "Location": "City, State", "Title": "Job Title",
      "Dates": "Month Year - Month Year", "Bullets": ["Achievement-focused bullet point."]
  }],
  "EDUCATION": [{
      "Degree": "Degree and Major", "University": "University Name",
      "Relevant_Courses": ["Course 1"], "GPA": "X.X/4.0", "Dates": "Month Year"
  }],
  "PROJECTS": [{
      "Name": "Project Name", "Technologies": "Comma-separated list.",
      "Bullets": ["Description of project."], "Live_Demo": "URL"
  }]
}
`

// ResumeService 负责基于检索结果生成结构化简历。
type ResumeService interface {
	// Generate 检索、组装上下文并生成简历。
	Generate(ctx context.Context, userID, jobDescription string) (*model.ResumeResult, error)
	// Synthesize 直接以给定上下文调用模型生成简历，不做重试。
	Synthesize(ctx context.Context, contextBlock, jobDescription string) (*model.ResumeDraft, error)
}

type resumeService struct {
	searchService SearchService
	llmClient     llm.Client
	cfg           config.ResumeConfig
}

// NewResumeService 创建一个新的 ResumeService 实例。生成参数在进程生命周期内固定。
func NewResumeService(searchService SearchService, llmClient llm.Client, cfg config.ResumeConfig) ResumeService {
	return &resumeService{searchService: searchService, llmClient: llmClient, cfg: cfg}
}

func (s *resumeService) Generate(ctx context.Context, userID, jobDescription string) (*model.ResumeResult, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, apperror.Validation("job description is required")
	}
	log.Infof("[ResumeService] 开始生成简历, user_id: %s, context_limit: %d", userID, s.cfg.ContextLimit)

	// 1. 以职位描述作为查询检索相关片段
	matches, err := s.searchService.Search(ctx, userID, jobDescription, s.cfg.ContextLimit, "")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperror.NotFound("no relevant documents found to build a resume")
	}
	log.Infof("[ResumeService] 步骤1: 检索到 %d 个候选片段", len(matches))

	// 2. 过滤、去重并组装上下文
	contextBlock, err := AssembleContext(matches, s.cfg.RelevanceThreshold)
	if err != nil {
		log.Warnf("[ResumeService] 没有超过阈值 %.2f 的片段, user_id: %s", s.cfg.RelevanceThreshold, userID)
		return nil, err
	}

	// 3. 调用模型生成
	draft, err := s.Synthesize(ctx, contextBlock, jobDescription)
	if err != nil {
		return nil, err
	}
	log.Infof("[ResumeService] 简历生成成功, user_id: %s", userID)

	return &model.ResumeResult{
		Resume:   draft,
		Metadata: model.NewResumeMetadata(userID, len(matches)),
	}, nil
}

func (s *resumeService) Synthesize(ctx context.Context, contextBlock, jobDescription string) (*model.ResumeDraft, error) {
	prompt := buildResumePrompt(contextBlock, jobDescription)
	raw, err := s.llmClient.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	draft, err := parseResumeDraft(raw)
	if err != nil {
		log.Errorf("[ResumeService] 模型输出不符合简历结构: %v", err)
		return nil, err
	}
	return draft, nil
}

func buildResumePrompt(contextBlock, jobDescription string) string {
	return fmt.Sprintf(resumePromptTemplate, contextBlock, jobDescription)
}

// parseResumeDraft 严格解析模型输出：必须是单个 JSON 对象，且五个顶层字段都存在且非 null。
func parseResumeDraft(raw string) (*model.ResumeDraft, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return nil, apperror.Generation("model returned malformed JSON", err)
	}
	for _, key := range resumeKeys {
		v, ok := top[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, apperror.Generation(fmt.Sprintf("model output is missing required field %s", key), nil)
		}
	}

	var draft model.ResumeDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, apperror.Generation("model output does not match the resume schema", err)
	}
	draft.Normalize()
	return &draft, nil
}
