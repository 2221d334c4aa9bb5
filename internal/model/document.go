package model

// DocumentMetadata 是文档级元数据的展示投影，供只需要元数据
// 而不需要分块正文的调用方使用。
type DocumentMetadata struct {
	SourceDocID string `json:"source_doc_id"`
	Journal     string `json:"journal"`
	PublishYear int    `json:"publish_year"`
	TotalChunks int    `json:"total_chunks"`
	DOI         string `json:"doi,omitempty"`
}

// JournalDocument 是按 source_doc_id 聚合出的整篇文档。
// 它是派生结构：每次请求时由分块惰性组装，本服务不做缓存。
// Chunks 按 chunk_index 升序排列，FullText 是各分块文本按序拼接的结果。
type JournalDocument struct {
	SourceDocID string           `json:"source_doc_id"`
	Journal     string           `json:"journal"`
	PublishYear int              `json:"publish_year"`
	DOI         string           `json:"doi,omitempty"`
	TotalChunks int              `json:"total_chunks"`
	Chunks      []JournalChunk   `json:"chunks"`
	FullText    string           `json:"-"`
	Metadata    DocumentMetadata `json:"metadata"`
}

// PaperSummary 是对比结果中单篇文献的摘要部分。
type PaperSummary struct {
	SourceDocID string `json:"source_doc_id"`
	Journal     string `json:"journal"`
	PublishYear int    `json:"publish_year"`
	DOI         string `json:"doi,omitempty"`
	TotalChunks int    `json:"total_chunks"`
	Summary     string `json:"summary"`
}

// ComparisonRequestInfo 记录本次对比使用的生成器信息。
type ComparisonRequestInfo struct {
	ModelUsed   string `json:"model_used"`
	GeneratedAt string `json:"generated_at"`
}

// ComparisonResult 是两篇文献对比的完整结果。
type ComparisonResult struct {
	Paper1Summary PaperSummary          `json:"paper1_summary"`
	Paper2Summary PaperSummary          `json:"paper2_summary"`
	Comparison    string                `json:"comparison"`
	RequestInfo   ComparisonRequestInfo `json:"request_info"`
}
