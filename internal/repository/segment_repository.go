package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
	"resume-smart-go/pkg/embedding"
	"resume-smart-go/pkg/es"
	"resume-smart-go/pkg/log"
)

// VectorIndex 是片段仓库依赖的向量索引能力，由 *es.Client 实现。
type VectorIndex interface {
	IndexDocument(ctx context.Context, id string, doc interface{}) error
	BulkIndex(ctx context.Context, items []es.BulkItem) error
	Fetch(ctx context.Context, filter es.Filter, limit int) ([]es.Hit, error)
	KNN(ctx context.Context, vector []float32, filter es.Filter, k int) ([]es.Hit, error)
	DeleteByQuery(ctx context.Context, filter es.Filter) (int64, error)
	Count(ctx context.Context, filter es.Filter) (int64, error)
}

// SegmentRepository 定义了文档片段的持久化与检索操作。所有操作都限定在单个 user_id 之内。
type SegmentRepository interface {
	// BatchCreate 一次性写入同一文档的全部片段，失败时尽力删除已写入的部分。
	BatchCreate(ctx context.Context, segments []model.Segment) error
	FindByUser(ctx context.Context, userID string, limit int) ([]model.Segment, error)
	DeleteByDocument(ctx context.Context, userID, documentID string) (int64, error)
	// SearchNearText 按语义相似度检索，category 为空时不按分类过滤。
	SearchNearText(ctx context.Context, userID, query string, limit int, category string) ([]model.RetrievalMatch, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type segmentRepository struct {
	index    VectorIndex
	embedder embedding.Client
}

// NewSegmentRepository 创建一个新的 SegmentRepository 实例。
func NewSegmentRepository(index VectorIndex, embedder embedding.Client) SegmentRepository {
	return &segmentRepository{index: index, embedder: embedder}
}

func ownerFilter(userID string) es.Filter {
	return es.Eq("user_id", userID)
}

func (r *segmentRepository) BatchCreate(ctx context.Context, segments []model.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Content
	}
	vectors, err := r.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return err
	}

	items := make([]es.BulkItem, len(segments))
	for i, s := range segments {
		items[i] = es.BulkItem{
			ID: s.EsID(),
			Doc: model.EsSegment{
				Segment:      s,
				Vector:       vectors[i],
				ModelVersion: r.embedder.Model(),
			},
		}
	}

	if err := r.write(ctx, items); err != nil {
		first := segments[0]
		log.Errorf("[SegmentRepository] 批量写入失败，开始回滚, document_id: %s, error: %v", first.DocumentID, err)
		filter := ownerFilter(first.UserID).And(es.Eq("document_id", first.DocumentID))
		if _, delErr := r.index.DeleteByQuery(ctx, filter); delErr != nil {
			log.Errorf("[SegmentRepository] 回滚已写入片段失败, document_id: %s, error: %v", first.DocumentID, delErr)
		}
		return apperror.Unavailable("failed to store document segments", err)
	}
	return nil
}

// write 单条片段直接写入，多条走 bulk。
func (r *segmentRepository) write(ctx context.Context, items []es.BulkItem) error {
	if len(items) == 1 {
		return r.index.IndexDocument(ctx, items[0].ID, items[0].Doc)
	}
	return r.index.BulkIndex(ctx, items)
}

func (r *segmentRepository) FindByUser(ctx context.Context, userID string, limit int) ([]model.Segment, error) {
	hits, err := r.index.Fetch(ctx, ownerFilter(userID), limit)
	if err != nil {
		return nil, apperror.Unavailable("failed to fetch document segments", err)
	}
	segments := make([]model.Segment, 0, len(hits))
	for _, hit := range hits {
		var s model.Segment
		if err := json.Unmarshal(hit.Source, &s); err != nil {
			return nil, fmt.Errorf("decode segment %s: %w", hit.ID, err)
		}
		segments = append(segments, s)
	}
	return segments, nil
}

func (r *segmentRepository) DeleteByDocument(ctx context.Context, userID, documentID string) (int64, error) {
	deleted, err := r.index.DeleteByQuery(ctx, ownerFilter(userID).And(es.Eq("document_id", documentID)))
	if err != nil {
		return 0, apperror.Unavailable("failed to delete document segments", err)
	}
	return deleted, nil
}

func (r *segmentRepository) SearchNearText(ctx context.Context, userID, query string, limit int, category string) ([]model.RetrievalMatch, error) {
	vector, err := r.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	filter := ownerFilter(userID)
	if category != "" {
		filter = filter.And(es.Eq("category", category))
	}
	hits, err := r.index.KNN(ctx, vector, filter, limit)
	if err != nil {
		return nil, apperror.Unavailable("similarity search failed", err)
	}

	matches := make([]model.RetrievalMatch, 0, len(hits))
	for _, hit := range hits {
		var source map[string]interface{}
		if err := json.Unmarshal(hit.Source, &source); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.ID, err)
		}
		// 结果必须属于当前用户，索引返回越界数据时直接丢弃
		if !filter.Matches(source) {
			log.Warnf("[SegmentRepository] 丢弃不满足过滤条件的检索结果, id: %s", hit.ID)
			continue
		}
		var s model.Segment
		if err := json.Unmarshal(hit.Source, &s); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.ID, err)
		}
		matches = append(matches, model.RetrievalMatch{
			Content:        s.Content,
			Category:       s.Category,
			Filename:       s.Filename,
			DocumentID:     s.DocumentID,
			RelevanceScore: es.RelevanceFromScore(hit.Score),
		})
	}
	return matches, nil
}

func (r *segmentRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	n, err := r.index.Count(ctx, ownerFilter(userID))
	if err != nil {
		return 0, apperror.Unavailable("failed to count document segments", err)
	}
	return n, nil
}
