package model

// UsageRecord 记录一个分块的访问情况。
// UsageCount 单调不减（除非外部清空 Redis），LastAccessed 是最近一次
// 访问的日历日期（YYYY-MM-DD）。SourceDocID 是冗余拷贝，排行展示时
// 无需回表查询。
type UsageRecord struct {
	ChunkID      string `json:"chunk_id"`
	UsageCount   int64  `json:"usage_count"`
	LastAccessed string `json:"last_accessed"`
	SourceDocID  string `json:"source_doc_id"`
}

// UsageAnalytics 是使用统计的聚合视图。
// TotalAccesses 等于所有记录的 UsageCount 之和。
type UsageAnalytics struct {
	TotalChunksAccessed int           `json:"total_chunks_accessed"`
	TotalAccesses       int64         `json:"total_accesses"`
	MostPopular         []UsageRecord `json:"most_popular"`
	RecentActivity      []UsageRecord `json:"recent_activity"`
}
