package service

import (
	"context"
	"fmt"

	"journal-assist-go/internal/config"
	"journal-assist-go/internal/model"
	"journal-assist-go/internal/repository"
	"journal-assist-go/pkg/embedding"
	"journal-assist-go/pkg/log"
)

// SearchService 接口定义了语义检索操作。
type SearchService interface {
	// SimilaritySearch 把查询文本向量化后在分块存储中做相似度检索。
	// k 必须落在 [1,100]，minScore 必须落在 [0,1]，越界返回 ValidationError。
	// 无任何命中时返回空切片，不是错误。
	SimilaritySearch(ctx context.Context, query string, k int, minScore float64) ([]model.ScoredChunk, error)
}

type searchService struct {
	embeddingClient embedding.Client
	chunkRepo       repository.ChunkRepository
	searchCfg       config.SearchConfig
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, chunkRepo repository.ChunkRepository, searchCfg config.SearchConfig) SearchService {
	return &searchService{
		embeddingClient: embeddingClient,
		chunkRepo:       chunkRepo,
		searchCfg:       searchCfg,
	}
}

// SimilaritySearch 执行"向量化查询 -> 相似度检索"两步流程。
func (s *searchService) SimilaritySearch(ctx context.Context, query string, k int, minScore float64) ([]model.ScoredChunk, error) {
	if query == "" {
		return nil, &ValidationError{Reason: "query 不能为空"}
	}
	if k < 1 || k > s.searchCfg.MaxK {
		return nil, &ValidationError{Reason: fmt.Sprintf("k 必须在 [1,%d] 范围内", s.searchCfg.MaxK)}
	}
	if minScore < 0 || minScore > 1 {
		return nil, &ValidationError{Reason: "min_score 必须在 [0,1] 范围内"}
	}

	log.Infof("[SearchService] 开始相似度检索, query 长度: %d, k: %d, minScore: %.2f", len(query), k, minScore)

	// 1. 向量化查询
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}

	// 2. 相似度检索
	results, err := s.chunkRepo.SimilaritySearch(ctx, queryVector, k, minScore)
	if err != nil {
		log.Errorf("[SearchService] 相似度检索失败: %v", err)
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	log.Infof("[SearchService] 相似度检索完成, 命中 %d 条", len(results))
	if results == nil {
		results = []model.ScoredChunk{}
	}
	return results, nil
}
