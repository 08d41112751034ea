package model

import (
	"strconv"
	"time"
)

// Segment 是文档切块后的最小持久化单元。
// 同一 DocumentID 下的 ChunkIndex 从 0 开始连续且唯一。
type Segment struct {
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Category   string    `json:"category"`
	Metadata   string    `json:"metadata"` // 上传时的原始字符串，不做解析
	UploadedAt time.Time `json:"uploaded_at"`
}

// EsID 返回片段在索引中的文档 ID，形如 documentId_chunkIndex。
func (s Segment) EsID() string {
	return s.DocumentID + "_" + strconv.Itoa(s.ChunkIndex)
}

// EsSegment 定义了存储在 Elasticsearch 中的文档结构。
type EsSegment struct {
	Segment
	Vector       []float32 `json:"vector,omitempty"` // content 的向量表示
	ModelVersion string    `json:"model_version,omitempty"`
}
