// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"context"
	"strings"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/config"
	"resume-smart-go/pkg/log"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client defines the interface for an LLM client.
type Client interface {
	// Generate 发送单条 user 消息并返回模型输出的完整文本。
	Generate(ctx context.Context, prompt string, gen GenerationParams) (string, error)
}

// GenerationParams 控制生成行为
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool // 要求模型只输出一个 JSON 对象
}

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	client openai.Client
}

// NewClient creates a new LLM client for any OpenAI-compatible chat completions endpoint.
func NewClient(cfg config.LLMConfig) Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openAICompatibleClient{
		cfg:    cfg,
		client: openai.NewClient(opts...),
	}
}

func (c *openAICompatibleClient) Generate(ctx context.Context, prompt string, gen GenerationParams) (string, error) {
	log.Infof("[LLMClient] 开始调用 Chat API, model: %s, prompt_len: %d, json_mode: %t", c.cfg.Model, len(prompt), gen.JSONMode)
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(gen.Temperature),
	}
	if gen.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(gen.MaxTokens))
	}
	if gen.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Errorf("[LLMClient] 调用 Chat API 失败, error: %v", err)
		return "", apperror.Unavailable("generative model call failed", err)
	}
	if len(completion.Choices) == 0 {
		return "", apperror.Generation("generative model returned no choices", nil)
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	log.Infof("[LLMClient] Chat API 调用完成, output_len: %d, total_tokens: %d", len(content), completion.Usage.TotalTokens)
	return content, nil
}
