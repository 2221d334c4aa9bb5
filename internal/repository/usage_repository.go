package repository

import (
	"context"
	"fmt"
	"time"

	"journal-assist-go/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	usageKeyPrefix  = "usage:"
	popularGlobal   = "popular_chunks"
	accessedDateFmt = "2006-01-02"
)

// UsageRepository 定义了分块访问计数的操作接口。
//
// 计数按 chunk_id 单调递增，另维护一个按计数排序的排行索引：
// 排行查询远多于写入，把排序代价摊到写路径上。
type UsageRepository interface {
	// RecordAccess 原子地把 chunkID 的访问计数加一（不存在则以 1 创建），
	// 刷新 last_accessed 为当天日期，返回新的计数。并发调用不得丢失更新。
	RecordAccess(ctx context.Context, chunkID, sourceDocID string) (int64, error)

	// TopByUsage 按计数降序返回至多 limit 条记录。
	// 同分的顺序任意但确定，无写入时重复调用结果稳定。
	TopByUsage(ctx context.Context, limit int) ([]model.UsageRecord, error)

	// AllUsage 按计数降序返回全部记录，供聚合统计使用。
	AllUsage(ctx context.Context) ([]model.UsageRecord, error)
}

// redisUsageRepository 是 UsageRepository 的 Redis 实现。
// 每个分块一个 Hash（usage:{chunkID}）保存完整记录，
// 另用 Sorted Set popular_chunks 做排行索引。
type redisUsageRepository struct {
	redisClient *redis.Client
}

// NewRedisUsageRepository 创建一个基于 Redis 的访问计数仓库。
func NewRedisUsageRepository(redisClient *redis.Client) UsageRepository {
	return &redisUsageRepository{redisClient: redisClient}
}

// RecordAccess 在一个事务管道里完成 HINCRBY、元数据刷新与 ZINCRBY。
// 计数增量是 Redis 原生的原子操作，不走"读-改-写"两个往返。
func (r *redisUsageRepository) RecordAccess(ctx context.Context, chunkID, sourceDocID string) (int64, error) {
	key := usageKeyPrefix + chunkID

	pipe := r.redisClient.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, "usage_count", 1)
	pipe.HSet(ctx, key,
		"chunk_id", chunkID,
		"last_accessed", time.Now().Format(accessedDateFmt),
		"source_doc_id", sourceDocID,
	)
	pipe.ZIncrBy(ctx, popularGlobal, 1, chunkID)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("记录分块访问失败: %w", err)
	}
	return incr.Val(), nil
}

// TopByUsage 从排行索引取前 limit 名，再逐条读取完整记录。
// Redis 对同分成员按 member 字典序排序，天然满足确定性要求。
func (r *redisUsageRepository) TopByUsage(ctx context.Context, limit int) ([]model.UsageRecord, error) {
	if limit <= 0 {
		return []model.UsageRecord{}, nil
	}
	members, err := r.redisClient.ZRevRangeWithScores(ctx, popularGlobal, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("读取排行索引失败: %w", err)
	}
	return r.recordsFromMembers(ctx, members)
}

// AllUsage 遍历整个排行索引，结果天然按计数降序。
func (r *redisUsageRepository) AllUsage(ctx context.Context) ([]model.UsageRecord, error) {
	members, err := r.redisClient.ZRevRangeWithScores(ctx, popularGlobal, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取排行索引失败: %w", err)
	}
	return r.recordsFromMembers(ctx, members)
}

func (r *redisUsageRepository) recordsFromMembers(ctx context.Context, members []redis.Z) ([]model.UsageRecord, error) {
	records := make([]model.UsageRecord, 0, len(members))
	for _, m := range members {
		chunkID, ok := m.Member.(string)
		if !ok {
			continue
		}
		data, err := r.redisClient.HGetAll(ctx, usageKeyPrefix+chunkID).Result()
		if err != nil {
			return nil, fmt.Errorf("读取分块 '%s' 的访问记录失败: %w", chunkID, err)
		}
		record := model.UsageRecord{
			ChunkID:      chunkID,
			UsageCount:   int64(m.Score),
			LastAccessed: data["last_accessed"],
			SourceDocID:  data["source_doc_id"],
		}
		records = append(records, record)
	}
	return records, nil
}
