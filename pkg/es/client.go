// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resume-smart-go/internal/config"
	"resume-smart-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Client 封装了单个索引上的写入、过滤、删除、向量检索与计数操作。
type Client struct {
	es    *elasticsearch.Client
	index string
	dims  int
}

// Hit 是一条检索命中，Source 为原始 _source。
type Hit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// BulkItem 是批量写入中的一条文档。
type BulkItem struct {
	ID  string
	Doc interface{}
}

// NewClient 初始化 Elasticsearch 客户端，dims 为向量字段的维度。
func NewClient(esCfg config.ElasticsearchConfig, dims int) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{es: client, index: esCfg.IndexName, dims: dims}, nil
}

// Index 返回客户端操作的索引名。
func (c *Client) Index() string { return c.index }

// EnsureIndex 检查索引是否存在，如果不存在则创建它。
// 只有 content 参与向量化，其余字段原样存储。
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	res.Body.Close()
	// 如果 res.StatusCode 是 200，说明索引已存在
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.index)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", c.index, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"user_id": { "type": "keyword" },
				"document_id": { "type": "keyword" },
				"filename": { "type": "keyword" },
				"content": { "type": "text" },
				"chunk_index": { "type": "integer" },
				"category": { "type": "keyword" },
				"metadata": { "type": "keyword", "index": false },
				"uploaded_at": { "type": "date" },
				"model_version": { "type": "keyword" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`, c.dims)

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", c.index, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.index, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", c.index)
	return nil
}

// IndexDocument 将单个文档写入索引。
func (c *Client) IndexDocument(ctx context.Context, id string, doc interface{}) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: id,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}
	return nil
}

// BulkIndex 在一次请求中写入多个文档，并在返回前等待刷新。
// 任何一条失败都会返回错误，调用方负责清理已写入的部分。
func (c *Client) BulkIndex(ctx context.Context, items []BulkItem) error {
	if len(items) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, item := range items {
		meta := map[string]map[string]string{"index": {"_index": c.index, "_id": item.ID}}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return err
		}
		if err := json.NewEncoder(&buf).Encode(item.Doc); err != nil {
			return err
		}
	}

	res, err := c.es.Bulk(
		bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk request failed: %s", res.String())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !bulkRes.Errors {
		return nil
	}
	var failed []string
	for _, item := range bulkRes.Items {
		for _, result := range item {
			if result.Error != nil {
				failed = append(failed, fmt.Sprintf("%s: %s", result.ID, result.Error.Reason))
			}
		}
	}
	log.Errorf("批量写入 Elasticsearch 部分失败, failed: %d/%d", len(failed), len(items))
	return fmt.Errorf("bulk insert failed for %d of %d documents: %s", len(failed), len(items), strings.Join(failed, "; "))
}

// Fetch 按过滤条件取回文档，按上传时间与 chunk_index 排序，不返回向量字段。
func (c *Client) Fetch(ctx context.Context, filter Filter, limit int) ([]Hit, error) {
	body := map[string]interface{}{
		"size":    limit,
		"query":   filter.Source(),
		"_source": map[string]interface{}{"excludes": []string{"vector"}},
		"sort": []map[string]string{
			{"uploaded_at": "asc"},
			{"chunk_index": "asc"},
		},
	}
	return c.search(ctx, body)
}

// KNN 在过滤条件下执行近似最近邻检索，返回的 Score 为 Elasticsearch 的相似度得分。
func (c *Client) KNN(ctx context.Context, vector []float32, filter Filter, k int) ([]Hit, error) {
	numCandidates := k * 10
	if numCandidates < 100 {
		numCandidates = 100
	}
	knn := map[string]interface{}{
		"field":          "vector",
		"query_vector":   vector,
		"k":              k,
		"num_candidates": numCandidates,
	}
	if !filter.IsEmpty() {
		knn["filter"] = filter.Source()
	}
	body := map[string]interface{}{
		"size":    k,
		"knn":     knn,
		"_source": map[string]interface{}{"excludes": []string{"vector"}},
	}
	return c.search(ctx, body)
}

func (c *Client) search(ctx context.Context, body map[string]interface{}) ([]Hit, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return esResponse.Hits.Hits, nil
}

// DeleteByQuery 删除所有匹配过滤条件的文档，返回删除的数量。
func (c *Client) DeleteByQuery(ctx context.Context, filter Filter) (int64, error) {
	body, err := json.Marshal(map[string]interface{}{"query": filter.Source()})
	if err != nil {
		return 0, err
	}
	res, err := c.es.DeleteByQuery(
		[]string{c.index},
		bytes.NewReader(body),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("delete by query failed: %s", res.String())
	}

	var delRes struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&delRes); err != nil {
		return 0, fmt.Errorf("decode delete response: %w", err)
	}
	return delRes.Deleted, nil
}

// Count 返回匹配过滤条件的文档数量。
func (c *Client) Count(ctx context.Context, filter Filter) (int64, error) {
	body, err := json.Marshal(map[string]interface{}{"query": filter.Source()})
	if err != nil {
		return 0, err
	}
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
		c.es.Count.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("count failed: %s", res.String())
	}

	var countRes struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countRes); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return countRes.Count, nil
}

// Ping 检查集群是否可达。
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.IsError() {
		return fmt.Errorf("ping failed: %s", res.Status())
	}
	return nil
}

// RelevanceFromScore 将 cosine 相似度的 kNN 得分换算为 1 - 余弦距离。
// Elasticsearch 对 cosine 返回 (1 + cos) / 2，因此相关度等于 2*score - 1，不做截断。
func RelevanceFromScore(score float64) float64 {
	return 2*score - 1
}
