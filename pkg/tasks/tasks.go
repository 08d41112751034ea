// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import "errors"

// IngestTask 描述一次异步文档入库任务。DocumentID 在上传时预先分配，
// 保证客户端拿到的 ID 与最终入库的片段一致。
type IngestTask struct {
	DocumentID string `json:"document_id"`
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
	UserID     string `json:"user_id"`
	Category   string `json:"category"`
	Metadata   string `json:"metadata"`
}

// ErrPermanent 标记重试也不会成功的任务，消费者应直接提交 offset。
var ErrPermanent = errors.New("permanent task failure")
