package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/config"
	"resume-smart-go/internal/model"
	"resume-smart-go/internal/pipeline"
	"resume-smart-go/internal/repository"
	"resume-smart-go/pkg/log"
	"resume-smart-go/pkg/storage"
	"resume-smart-go/pkg/tasks"

	"github.com/google/uuid"
)

const (
	listFetchLimit  = 1000
	statsFetchLimit = 10000
)

// DocumentIngestor 是同步上传所依赖的入库能力，由 *pipeline.Ingestor 实现。
type DocumentIngestor interface {
	Ingest(ctx context.Context, req pipeline.IngestRequest) (*model.IngestResult, error)
}

// TaskProducer 把异步入库任务投递到消息队列，由 *kafka.Producer 实现。
type TaskProducer interface {
	ProduceIngestTask(ctx context.Context, task tasks.IngestTask) error
}

// UploadRequest 描述一次文件上传。
type UploadRequest struct {
	UserID   string
	Filename string
	Data     []byte
	Category string
	Metadata string
	Async    bool
}

// DocumentService 接口定义了文档管理相关的业务操作。
type DocumentService interface {
	Upload(ctx context.Context, req UploadRequest) (*model.IngestResult, error)
	ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error)
	DeleteDocument(ctx context.Context, userID, documentID string) (int64, error)
	Stats(ctx context.Context, userID string) (*model.UserStats, error)
}

type documentService struct {
	ingestor    DocumentIngestor
	segmentRepo repository.SegmentRepository
	store       storage.ObjectStore // 可能为 nil，此时不支持异步上传
	producer    TaskProducer        // 可能为 nil
	cfg         config.IngestConfig
}

// NewDocumentService 创建一个新的 DocumentService 实例。store 与 producer 都非 nil 时才启用异步上传。
func NewDocumentService(ingestor DocumentIngestor, segmentRepo repository.SegmentRepository, store storage.ObjectStore, producer TaskProducer, cfg config.IngestConfig) DocumentService {
	return &documentService{
		ingestor:    ingestor,
		segmentRepo: segmentRepo,
		store:       store,
		producer:    producer,
		cfg:         cfg,
	}
}

func (s *documentService) Upload(ctx context.Context, req UploadRequest) (*model.IngestResult, error) {
	if err := s.validateUpload(req); err != nil {
		return nil, err
	}
	if req.Category == "" {
		req.Category = pipeline.CategoryAuto
	}
	if strings.TrimSpace(req.Metadata) == "" {
		req.Metadata = "{}"
	}

	if req.Async {
		return s.enqueue(ctx, req)
	}
	return s.ingestor.Ingest(ctx, pipeline.IngestRequest{
		UserID:   req.UserID,
		Filename: req.Filename,
		Data:     req.Data,
		Category: req.Category,
		Metadata: req.Metadata,
	})
}

func (s *documentService) validateUpload(req UploadRequest) error {
	if req.Filename == "" {
		return apperror.Validation("no file selected")
	}
	ext := pipeline.Extension(req.Filename)
	allowed := false
	for _, a := range s.cfg.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperror.Validation(fmt.Sprintf("file type not allowed, allowed types: %s", strings.Join(s.cfg.AllowedExtensions, ", ")))
	}
	if s.cfg.MaxFileSizeMB > 0 && int64(len(req.Data)) > int64(s.cfg.MaxFileSizeMB)<<20 {
		return apperror.Validation(fmt.Sprintf("file exceeds the %d MB limit", s.cfg.MaxFileSizeMB))
	}
	return nil
}

// enqueue 把原始文件暂存到对象存储并投递入库任务，document_id 在此预先分配。
func (s *documentService) enqueue(ctx context.Context, req UploadRequest) (*model.IngestResult, error) {
	if s.store == nil || s.producer == nil {
		return nil, apperror.Unavailable("async ingestion is not configured", nil)
	}
	documentID := uuid.NewString()
	objectName := storage.UploadObjectName(req.UserID, documentID, req.Filename)

	if err := s.store.Put(ctx, objectName, req.Data, "application/octet-stream"); err != nil {
		log.Errorf("[DocumentService] 暂存文件失败, object: %s, error: %v", objectName, err)
		return nil, apperror.Unavailable("failed to stage uploaded file", err)
	}

	task := tasks.IngestTask{
		DocumentID: documentID,
		ObjectName: objectName,
		FileName:   req.Filename,
		UserID:     req.UserID,
		Category:   req.Category,
		Metadata:   req.Metadata,
	}
	if err := s.producer.ProduceIngestTask(ctx, task); err != nil {
		log.Errorf("[DocumentService] 投递入库任务失败, document_id: %s, error: %v", documentID, err)
		if rmErr := s.store.RemovePrefix(ctx, storage.UploadPrefix(req.UserID, documentID)); rmErr != nil {
			log.Warnf("[DocumentService] 清理暂存文件失败, document_id: %s, error: %v", documentID, rmErr)
		}
		return nil, apperror.Unavailable("failed to queue ingestion task", err)
	}
	log.Infof("[DocumentService] 入库任务已投递, document_id: %s, file: %s", documentID, req.Filename)

	return &model.IngestResult{
		DocumentID: documentID,
		Filename:   req.Filename,
		Status:     model.IngestStatusQueued,
	}, nil
}

// ListDocuments 按 document_id 聚合用户的片段，文档顺序为首次出现的顺序。
func (s *documentService) ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error) {
	segments, err := s.segmentRepo.FindByUser(ctx, userID, listFetchLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.DocumentSummary, 0)
	byID := make(map[string]int)
	categories := make(map[string]map[string]struct{})
	for _, seg := range segments {
		idx, ok := byID[seg.DocumentID]
		if !ok {
			idx = len(summaries)
			byID[seg.DocumentID] = idx
			summaries = append(summaries, model.DocumentSummary{
				DocumentID: seg.DocumentID,
				Filename:   seg.Filename,
				UploadedAt: seg.UploadedAt,
			})
			categories[seg.DocumentID] = make(map[string]struct{})
		}
		summaries[idx].ChunkCount++
		categories[seg.DocumentID][seg.Category] = struct{}{}
	}

	for i := range summaries {
		set := categories[summaries[i].DocumentID]
		cats := make([]string, 0, len(set))
		for c := range set {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		summaries[i].Categories = cats
	}
	return summaries, nil
}

// DeleteDocument 删除文档的全部片段，同时尽力清理对象存储中的暂存文件。
func (s *documentService) DeleteDocument(ctx context.Context, userID, documentID string) (int64, error) {
	if strings.TrimSpace(documentID) == "" {
		return 0, apperror.Validation("document_id is required")
	}
	deleted, err := s.segmentRepo.DeleteByDocument(ctx, userID, documentID)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, apperror.NotFound("document not found")
	}
	if s.store != nil {
		if err := s.store.RemovePrefix(ctx, storage.UploadPrefix(userID, documentID)); err != nil {
			log.Warnf("[DocumentService] 清理暂存文件失败, document_id: %s, error: %v", documentID, err)
		}
	}
	log.Infof("[DocumentService] 文档删除成功, document_id: %s, 删除片段数: %d", documentID, deleted)
	return deleted, nil
}

// Stats 统计用户的文档数、片段总数与各分类的片段数。
func (s *documentService) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	total, err := s.segmentRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	segments, err := s.segmentRepo.FindByUser(ctx, userID, statsFetchLimit)
	if err != nil {
		return nil, err
	}

	documents := make(map[string]struct{})
	byCategory := make(map[string]int)
	for _, seg := range segments {
		documents[seg.DocumentID] = struct{}{}
		byCategory[seg.Category]++
	}
	return &model.UserStats{
		TotalDocuments:    len(documents),
		TotalChunks:       total,
		CategoriesByChunk: byCategory,
	}, nil
}
