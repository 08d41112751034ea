package service

import (
	"context"
	"strings"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
	"resume-smart-go/internal/repository"
	"resume-smart-go/pkg/log"
)

// SearchService 接口定义了按用户隔离的语义检索。
type SearchService interface {
	// Search 返回按相关度从高到低排列的结果，顺序由向量索引决定。
	Search(ctx context.Context, userID, query string, limit int, category string) ([]model.RetrievalMatch, error)
}

type searchService struct {
	segmentRepo  repository.SegmentRepository
	defaultLimit int
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(segmentRepo repository.SegmentRepository, defaultLimit int) SearchService {
	return &searchService{segmentRepo: segmentRepo, defaultLimit: defaultLimit}
}

func (s *searchService) Search(ctx context.Context, userID, query string, limit int, category string) ([]model.RetrievalMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("query is required")
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	log.Infof("[SearchService] 开始执行语义检索, user_id: %s, query_len: %d, limit: %d, category: '%s'", userID, len(query), limit, category)

	matches, err := s.segmentRepo.SearchNearText(ctx, userID, query, limit, category)
	if err != nil {
		log.Errorf("[SearchService] 语义检索失败: %v", err)
		return nil, err
	}
	log.Infof("[SearchService] 检索完成, 返回 %d 条结果", len(matches))
	return matches, nil
}
