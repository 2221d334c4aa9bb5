// Package repository 提供了数据访问层的接口与实现。
package repository

import (
	"context"
	"errors"
	"math"

	"journal-assist-go/internal/model"
)

// ErrDimensionMismatch 表示插入的向量维度与存储已固定的维度不一致。
// 该错误只导致当前批次失败，不影响存储中已有数据。
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ChunkRepository 定义了分块存储的操作接口。
//
// 插入批次要么整体成功要么整体失败，不做部分提交；需要逐条粒度的
// 调用方应自行拆分批次。重复 id 的插入按 last-write-wins 覆盖。
type ChunkRepository interface {
	// Insert 写入一批分块（携带向量），返回成功写入的数量。
	// 前置条件：每个分块的 id、text 非空，向量维度与存储一致
	// （维度由首次成功插入固定，之后不匹配返回 ErrDimensionMismatch）。
	Insert(ctx context.Context, chunks []model.JournalChunk) (int, error)

	// SimilaritySearch 对全部已存分块计算相似度得分，过滤掉低于
	// minScore 的结果，按得分降序（同分按插入顺序）返回至多 k 条。
	// 空结果返回空切片而不是错误。
	SimilaritySearch(ctx context.Context, queryVector []float32, k int, minScore float64) ([]model.ScoredChunk, error)

	// GetByDocument 返回指定文档的全部分块，顺序不做保证；
	// 按 chunk_index 排序是文档组装方的职责。
	GetByDocument(ctx context.Context, sourceDocID string) ([]model.JournalChunk, error)

	// Stats 返回分块总数与集合名。
	Stats(ctx context.Context) (model.CollectionStats, error)
}

// SimilarityScore 把查询向量与存储向量之间的 L2 距离换算为相似度得分。
// 换算公式固定为 max(0, 1 - distance)：归一化向量下得分落在 [0,1]，
// 距离很远时得分合法地为 0。现有阈值（如默认 min_score=0.25）依赖
// 这一换算，不要改成余弦相似度。
func SimilarityScore(query, embedding []float32) float64 {
	return math.Max(0, 1-l2Distance(query, embedding))
}

// l2Distance 计算两个等长向量的欧氏距离。
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
