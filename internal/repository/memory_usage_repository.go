package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"journal-assist-go/internal/model"
)

// memoryUsageRepository 是 UsageRepository 的进程内实现。
// 与内存分块存储配套，用于本地开发与单元测试。
type memoryUsageRepository struct {
	mu      sync.Mutex
	records map[string]*model.UsageRecord
}

// NewMemoryUsageRepository 创建一个空的内存访问计数仓库。
func NewMemoryUsageRepository() UsageRepository {
	return &memoryUsageRepository{
		records: make(map[string]*model.UsageRecord),
	}
}

// RecordAccess 在互斥锁保护下完成计数加一与元数据刷新。
func (r *memoryUsageRepository) RecordAccess(ctx context.Context, chunkID, sourceDocID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[chunkID]
	if !ok {
		record = &model.UsageRecord{ChunkID: chunkID, SourceDocID: sourceDocID}
		r.records[chunkID] = record
	}
	record.UsageCount++
	record.LastAccessed = time.Now().Format(accessedDateFmt)
	record.SourceDocID = sourceDocID
	return record.UsageCount, nil
}

// TopByUsage 按计数降序返回前 limit 条，同分按 chunk_id 升序保证确定性。
func (r *memoryUsageRepository) TopByUsage(ctx context.Context, limit int) ([]model.UsageRecord, error) {
	if limit <= 0 {
		return []model.UsageRecord{}, nil
	}
	records, err := r.AllUsage(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// AllUsage 返回全部记录，计数降序，同分按 chunk_id 升序。
func (r *memoryUsageRepository) AllUsage(ctx context.Context) ([]model.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]model.UsageRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].UsageCount != records[j].UsageCount {
			return records[i].UsageCount > records[j].UsageCount
		}
		return records[i].ChunkID < records[j].ChunkID
	})
	return records, nil
}
