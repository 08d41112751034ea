package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
	"resume-smart-go/pkg/log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SegmentWriter 是入库流程需要的唯一写能力：一次性写入同一文档的全部片段。
type SegmentWriter interface {
	BatchCreate(ctx context.Context, segments []model.Segment) error
}

// IngestRequest 描述一次入库请求。
type IngestRequest struct {
	UserID     string
	Filename   string
	Data       []byte
	Category   string // "auto" 或空表示自动分类，其余值原样应用到所有片段
	Metadata   string
	DocumentID string // 为空时自动生成，异步上传时由调用方预先分配
}

// Ingestor 串联文本提取、切块、分类与批量写入。
type Ingestor struct {
	extractor *Extractor
	chunker   *Chunker
	writer    SegmentWriter
	workers   int
}

// NewIngestor 创建 Ingestor，workers 控制分类的并发度。
func NewIngestor(extractor *Extractor, chunker *Chunker, writer SegmentWriter, workers int) *Ingestor {
	if workers <= 0 {
		workers = 1
	}
	return &Ingestor{extractor: extractor, chunker: chunker, writer: writer, workers: workers}
}

// Ingest 把一个文件转换为若干片段并写入存储，所有片段共享同一个 document_id。
func (i *Ingestor) Ingest(ctx context.Context, req IngestRequest) (*model.IngestResult, error) {
	if req.UserID == "" {
		return nil, apperror.Validation("user_id is required")
	}
	log.Infof("[Ingestor] 开始处理文件, user_id: %s, file: %s, size: %d", req.UserID, req.Filename, len(req.Data))

	text := i.extractor.Extract(ctx, req.Data, req.Filename)
	if strings.TrimSpace(text) == "" {
		log.Warnf("[Ingestor] 未提取到文本内容, file: %s", req.Filename)
		return nil, apperror.Validation("could not extract text from file or file is empty")
	}
	log.Infof("[Ingestor] 步骤1: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(text))

	chunks := i.chunker.Chunk(text)
	log.Infof("[Ingestor] 步骤2: 文本分块完成, 共生成 %d 个分块", len(chunks))

	categories, err := i.categorize(ctx, chunks, req.Category)
	if err != nil {
		return nil, err
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}
	uploadedAt := time.Now().UTC()
	segments := make([]model.Segment, len(chunks))
	for idx, chunk := range chunks {
		segments[idx] = model.Segment{
			UserID:     req.UserID,
			DocumentID: documentID,
			Filename:   req.Filename,
			Content:    chunk,
			ChunkIndex: idx,
			Category:   categories[idx],
			Metadata:   req.Metadata,
			UploadedAt: uploadedAt,
		}
	}

	if err := i.writer.BatchCreate(ctx, segments); err != nil {
		log.Errorf("[Ingestor] 步骤3: 批量写入片段失败, document_id: %s, error: %v", documentID, err)
		return nil, err
	}
	log.Infof("[Ingestor] 步骤3: 文件处理成功完成, document_id: %s, chunks: %d", documentID, len(segments))

	return &model.IngestResult{
		DocumentID:    documentID,
		Filename:      req.Filename,
		ChunksCreated: len(segments),
		Status:        model.IngestStatusCompleted,
	}, nil
}

// categorize 为每个切块确定分类。自动分类时并行计算，结果按下标写回以保持 chunk 顺序。
func (i *Ingestor) categorize(ctx context.Context, chunks []string, mode string) ([]string, error) {
	categories := make([]string, len(chunks))
	if mode != "" && mode != CategoryAuto {
		for idx := range categories {
			categories[idx] = mode
		}
		return categories, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for idx, chunk := range chunks {
		idx, chunk := idx, chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			categories[idx] = Categorize(chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return categories, nil
}
