package model

import "time"

// RetrievalMatch 是一次相似度检索返回的单条结果。
// RelevanceScore = 1 - 余弦距离，不做截断，可能为负数。
type RetrievalMatch struct {
	Content        string  `json:"content"`
	Category       string  `json:"category"`
	Filename       string  `json:"filename"`
	DocumentID     string  `json:"document_id"`
	RelevanceScore float64 `json:"relevance_score"`
}

// DocumentSummary 是按 document_id 聚合后的文档概览。
type DocumentSummary struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
	Categories []string  `json:"categories"`
}

// UserStats 汇总了单个用户的文档与片段统计。
type UserStats struct {
	TotalDocuments    int            `json:"total_documents"`
	TotalChunks       int64          `json:"total_chunks"`
	CategoriesByChunk map[string]int `json:"categories_by_chunk"`
}

// IngestResult 是一次文档入库的结果。
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

const (
	IngestStatusCompleted = "completed"
	IngestStatusQueued    = "queued"
)
