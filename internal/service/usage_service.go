package service

import (
	"context"
	"fmt"
	"time"

	"journal-assist-go/internal/model"
	"journal-assist-go/internal/repository"
	"journal-assist-go/pkg/log"
)

// UsageService 接口定义了访问计数与排行统计操作。
type UsageService interface {
	// RecordAccess 记录一次分块访问，返回新的计数。
	RecordAccess(ctx context.Context, chunkID, sourceDocID string) (int64, error)
	// PopularChunks 返回按访问计数排序的前 limit 条记录。
	PopularChunks(ctx context.Context, limit int) ([]model.UsageRecord, error)
	// Analytics 返回聚合的使用统计。
	Analytics(ctx context.Context) (*model.UsageAnalytics, error)
}

type usageService struct {
	usageRepo repository.UsageRepository
}

// NewUsageService 创建一个新的 UsageService 实例。
func NewUsageService(usageRepo repository.UsageRepository) UsageService {
	return &usageService{usageRepo: usageRepo}
}

// RecordAccess 直接委托给仓库的原子自增。
func (s *usageService) RecordAccess(ctx context.Context, chunkID, sourceDocID string) (int64, error) {
	if chunkID == "" {
		return 0, &ValidationError{Reason: "chunk_id 不能为空"}
	}
	count, err := s.usageRepo.RecordAccess(ctx, chunkID, sourceDocID)
	if err != nil {
		return 0, fmt.Errorf("记录分块访问失败: %w", err)
	}
	return count, nil
}

// PopularChunks 返回访问排行，limit 不合法时回退为 10。
func (s *usageService) PopularChunks(ctx context.Context, limit int) ([]model.UsageRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	records, err := s.usageRepo.TopByUsage(ctx, limit)
	if err != nil {
		log.Errorf("[UsageService] 查询访问排行失败: %v", err)
		return nil, fmt.Errorf("查询访问排行失败: %w", err)
	}
	return records, nil
}

// Analytics 聚合全部访问记录：被访问过的分块数、总访问次数、
// 前 10 名排行以及当天有访问的记录。
func (s *usageService) Analytics(ctx context.Context) (*model.UsageAnalytics, error) {
	records, err := s.usageRepo.AllUsage(ctx)
	if err != nil {
		log.Errorf("[UsageService] 查询全部访问记录失败: %v", err)
		return nil, fmt.Errorf("查询访问统计失败: %w", err)
	}

	var totalAccesses int64
	today := time.Now().Format("2006-01-02")
	recent := make([]model.UsageRecord, 0)
	for _, r := range records {
		totalAccesses += r.UsageCount
		if r.LastAccessed == today {
			recent = append(recent, r)
		}
	}

	mostPopular := records
	if len(mostPopular) > 10 {
		mostPopular = mostPopular[:10]
	}

	return &model.UsageAnalytics{
		TotalChunksAccessed: len(records),
		TotalAccesses:       totalAccesses,
		MostPopular:         mostPopular,
		RecentActivity:      recent,
	}, nil
}
