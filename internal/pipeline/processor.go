package pipeline

import (
	"context"
	"errors"
	"fmt"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/pkg/log"
	"resume-smart-go/pkg/storage"
	"resume-smart-go/pkg/tasks"
)

// ObjectReader 是异步处理需要的对象存储能力。
type ObjectReader interface {
	Get(ctx context.Context, objectName string) ([]byte, error)
	RemovePrefix(ctx context.Context, prefix string) error
}

// Processor 处理来自 Kafka 的异步入库任务：下载暂存文件、执行入库、清理暂存对象。
type Processor struct {
	store    ObjectReader
	ingestor *Ingestor
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(store ObjectReader, ingestor *Ingestor) *Processor {
	return &Processor{store: store, ingestor: ingestor}
}

// Process 是异步任务处理的主函数。
func (p *Processor) Process(ctx context.Context, task tasks.IngestTask) error {
	log.Infof("[Processor] 开始处理任务, document_id: %s, file: %s, user_id: %s", task.DocumentID, task.FileName, task.UserID)

	// 1. 从 MinIO 下载文件
	data, err := p.store.Get(ctx, task.ObjectName)
	if err != nil {
		log.Errorf("[Processor] 从MinIO下载文件失败, object: %s, error: %v", task.ObjectName, err)
		return fmt.Errorf("从 MinIO 下载文件失败: %w", err)
	}
	log.Infof("[Processor] 步骤1: 文件下载成功, 大小: %d 字节", len(data))

	// 2. 入库，使用上传时预先分配的 document_id
	res, err := p.ingestor.Ingest(ctx, IngestRequest{
		UserID:     task.UserID,
		Filename:   task.FileName,
		Data:       data,
		Category:   task.Category,
		Metadata:   task.Metadata,
		DocumentID: task.DocumentID,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			// 文件本身无法解析，重试没有意义
			p.cleanup(ctx, task)
			return fmt.Errorf("%w: %v", tasks.ErrPermanent, err)
		}
		return err
	}

	// 3. 清理暂存对象
	p.cleanup(ctx, task)
	log.Infof("[Processor] 任务处理成功完成, document_id: %s, chunks: %d", res.DocumentID, res.ChunksCreated)
	return nil
}

// Abandon 在任务多次重试失败被放弃时清理暂存对象。
func (p *Processor) Abandon(ctx context.Context, task tasks.IngestTask) {
	log.Warnf("[Processor] 任务被放弃，清理暂存文件, document_id: %s", task.DocumentID)
	p.cleanup(ctx, task)
}

func (p *Processor) cleanup(ctx context.Context, task tasks.IngestTask) {
	if err := p.store.RemovePrefix(ctx, storage.UploadPrefix(task.UserID, task.DocumentID)); err != nil {
		log.Warnf("[Processor] 清理暂存文件失败, document_id: %s, error: %v", task.DocumentID, err)
	}
}
