package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"journal-assist-go/internal/model"
)

// memoryChunkRepository 是 ChunkRepository 的进程内实现。
// 用于本地开发（store.driver=memory）与单元测试，不持久化。
type memoryChunkRepository struct {
	mu             sync.RWMutex
	collectionName string
	dimension      int // 0 表示尚未由首次插入固定
	order          []string
	entries        map[string]*memoryChunkEntry
}

type memoryChunkEntry struct {
	chunk model.JournalChunk
	seq   int
}

// NewMemoryChunkRepository 创建一个空的内存分块存储。
func NewMemoryChunkRepository(collectionName string) ChunkRepository {
	return &memoryChunkRepository{
		collectionName: collectionName,
		entries:        make(map[string]*memoryChunkEntry),
	}
}

// Insert 原子地写入一批分块：校验全部通过后才提交，任一分块不合法
// 则整批拒绝。重复 id 覆盖旧值但保留原插入位次，保证同分排序稳定。
func (r *memoryChunkRepository) Insert(ctx context.Context, chunks []model.JournalChunk) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dim := r.dimension
	for _, c := range chunks {
		if c.ID == "" || c.Text == "" {
			return 0, fmt.Errorf("分块缺少必填字段 id 或 text (id=%q)", c.ID)
		}
		if len(c.Embedding) == 0 {
			return 0, fmt.Errorf("分块 '%s' 缺少向量", c.ID)
		}
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return 0, fmt.Errorf("分块 '%s' 向量维度 %d, 期望 %d: %w", c.ID, len(c.Embedding), dim, ErrDimensionMismatch)
		}
	}

	for _, c := range chunks {
		if existing, ok := r.entries[c.ID]; ok {
			existing.chunk = c
			continue
		}
		r.entries[c.ID] = &memoryChunkEntry{chunk: c, seq: len(r.order)}
		r.order = append(r.order, c.ID)
	}
	r.dimension = dim
	return len(chunks), nil
}

// SimilaritySearch 对每个已存分块计算 max(0, 1-L2距离) 得分。
// sort.SliceStable 保证同分结果维持插入顺序。
func (r *memoryChunkRepository) SimilaritySearch(ctx context.Context, queryVector []float32, k int, minScore float64) ([]model.ScoredChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.dimension != 0 && len(queryVector) != r.dimension {
		return nil, fmt.Errorf("查询向量维度 %d, 期望 %d: %w", len(queryVector), r.dimension, ErrDimensionMismatch)
	}

	scored := make([]model.ScoredChunk, 0, len(r.order))
	for _, id := range r.order {
		entry := r.entries[id]
		score := SimilarityScore(queryVector, entry.chunk.Embedding)
		if score >= minScore {
			scored = append(scored, model.ScoredChunk{JournalChunk: entry.chunk, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// GetByDocument 返回属于指定文档的全部分块（按插入顺序，未按 chunk_index 排序）。
func (r *memoryChunkRepository) GetByDocument(ctx context.Context, sourceDocID string) ([]model.JournalChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chunks []model.JournalChunk
	for _, id := range r.order {
		if c := r.entries[id].chunk; c.SourceDocID == sourceDocID {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// Stats 返回当前分块总数与集合名。
func (r *memoryChunkRepository) Stats(ctx context.Context) (model.CollectionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return model.CollectionStats{
		TotalChunks:    int64(len(r.entries)),
		CollectionName: r.collectionName,
	}, nil
}
