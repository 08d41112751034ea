// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"context"
	"fmt"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/config"
	"resume-smart-go/pkg/log"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// maxBatchSize 是 OpenAI 兼容接口单次请求允许的最大输入条数。
const maxBatchSize = 100

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client openai.Client
}

// NewClient creates a new embedding client for any OpenAI-compatible endpoint.
// 重试交给上层传输策略，这里关闭 SDK 自带的重试。
func NewClient(cfg config.EmbeddingConfig) Client {
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

func (c *openAICompatibleClient) Model() string {
	return c.cfg.Model
}

// CreateEmbedding 获取单条文本的向量。
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings 按批次获取多条文本的向量，返回顺序与输入一致。
func (c *openAICompatibleClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (c *openAICompatibleClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	log.Infof("[EmbeddingClient] 开始调用 Embedding API, model: %s, batch: %d", c.cfg.Model, len(texts))
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.cfg.Model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if c.cfg.Dimensions > 0 {
		params.Dimensions = openai.Int(int64(c.cfg.Dimensions))
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, apperror.Unavailable("embedding service call failed", err)
	}
	if len(resp.Data) != len(texts) {
		log.Warnf("[EmbeddingClient] Embedding API 返回的向量数量不匹配, want: %d, got: %d", len(texts), len(resp.Data))
		return nil, apperror.Unavailable("embedding service returned incomplete data",
			fmt.Errorf("want %d vectors, got %d", len(texts), len(resp.Data)))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(texts) || len(data.Embedding) == 0 {
			return nil, apperror.Unavailable("embedding service returned invalid data",
				fmt.Errorf("bad embedding at index %d", data.Index))
		}
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		vectors[data.Index] = vector
	}

	log.Infof("[EmbeddingClient] 成功从 Embedding API 获取向量, 数量: %d, 维度: %d", len(vectors), len(vectors[0]))
	return vectors, nil
}
