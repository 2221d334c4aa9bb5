// Package model 定义了核心的数据结构与对外的 DTO。
package model

// JournalChunk 是被索引的最小单元：一篇期刊文献的一个文本片段。
// 除 usage_count（由使用计数器维护）外，所有字段在入库后不可变。
type JournalChunk struct {
	ID             string    `json:"id" binding:"required"`
	SourceDocID    string    `json:"source_doc_id" binding:"required"`
	ChunkIndex     int       `json:"chunk_index"`
	SectionHeading string    `json:"section_heading"`
	Journal        string    `json:"journal"`
	PublishYear    int       `json:"publish_year"`
	UsageCount     int       `json:"usage_count"`
	Attributes     []string  `json:"attributes"`
	Link           string    `json:"link"`
	Text           string    `json:"text" binding:"required"`
	DOI            string    `json:"doi,omitempty"`
	Embedding      []float32 `json:"embedding,omitempty"`
	SchemaVersion  string    `json:"schema_version,omitempty"`
}

// ScoredChunk 是一次相似度检索命中的分块及其得分。
// Score 的定义是 max(0, 1 - L2距离)，这是与历史阈值兼容的固定换算，
// 不是余弦相似度。
type ScoredChunk struct {
	JournalChunk
	Score float64 `json:"score"`
}

// CollectionStats 描述分块存储的整体状态。
type CollectionStats struct {
	TotalChunks    int64  `json:"total_chunks"`
	CollectionName string `json:"collection_name"`
}

// EsChunkDocument 定义了存储在 Elasticsearch 索引中的文档结构。
// Seq 是插入时分配的单调序号，用于相同得分下按插入顺序稳定排序。
type EsChunkDocument struct {
	ID             string    `json:"id"`
	SourceDocID    string    `json:"source_doc_id"`
	ChunkIndex     int       `json:"chunk_index"`
	SectionHeading string    `json:"section_heading"`
	Journal        string    `json:"journal"`
	PublishYear    int       `json:"publish_year"`
	UsageCount     int       `json:"usage_count"`
	Attributes     []string  `json:"attributes"`
	Link           string    `json:"link"`
	Text           string    `json:"text"`
	DOI            string    `json:"doi,omitempty"`
	Embedding      []float32 `json:"embedding"`
	SchemaVersion  string    `json:"schema_version"`
	Seq            int64     `json:"seq"`
}
