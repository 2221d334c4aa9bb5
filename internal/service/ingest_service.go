package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"journal-assist-go/internal/model"
	"journal-assist-go/internal/repository"
	"journal-assist-go/pkg/log"
	"journal-assist-go/pkg/storage"
	"journal-assist-go/pkg/tasks"
)

// TaskQueue 抽象了异步任务的投递端，生产实现是 Kafka Producer。
type TaskQueue interface {
	Enqueue(ctx context.Context, task tasks.ChunkIngestTask) error
}

// IngestService 接口定义了分块批次的接收与集合统计操作。
type IngestService interface {
	// SubmitBatch 校验批次后归档原始载荷并投递异步任务，
	// 返回批次号。调用方收到返回时向量化尚未开始。
	SubmitBatch(ctx context.Context, chunks []model.JournalChunk, schemaVersion, submittedBy string) (string, error)
	// Stats 返回集合当前的分块总数。
	Stats(ctx context.Context) (model.CollectionStats, error)
}

type ingestService struct {
	archive   storage.PayloadArchive
	queue     TaskQueue
	chunkRepo repository.ChunkRepository
}

// NewIngestService 创建一个新的 IngestService 实例。
func NewIngestService(archive storage.PayloadArchive, queue TaskQueue, chunkRepo repository.ChunkRepository) IngestService {
	return &ingestService{
		archive:   archive,
		queue:     queue,
		chunkRepo: chunkRepo,
	}
}

// SubmitBatch 逐条校验后整批归档，任何一条不合法则整批拒绝。
func (s *ingestService) SubmitBatch(ctx context.Context, chunks []model.JournalChunk, schemaVersion, submittedBy string) (string, error) {
	if len(chunks) == 0 {
		return "", &ValidationError{Reason: "批次不能为空"}
	}
	for i, c := range chunks {
		if c.ID == "" {
			return "", &ValidationError{Reason: fmt.Sprintf("第 %d 条分块缺少 id", i)}
		}
		if c.Text == "" {
			return "", &ValidationError{Reason: fmt.Sprintf("分块 '%s' 缺少 text", c.ID)}
		}
	}

	payload, err := json.Marshal(chunks)
	if err != nil {
		return "", fmt.Errorf("序列化分块批次失败: %w", err)
	}

	batchID := uuid.New().String()
	objectName := fmt.Sprintf("batches/%s.json", batchID)
	if err := s.archive.Put(ctx, objectName, payload); err != nil {
		return "", fmt.Errorf("归档分块批次失败: %w", err)
	}

	task := tasks.ChunkIngestTask{
		BatchID:       batchID,
		ObjectName:    objectName,
		ChunkCount:    len(chunks),
		SchemaVersion: schemaVersion,
		SubmittedBy:   submittedBy,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return "", fmt.Errorf("投递摄取任务失败: %w", err)
	}

	log.Infof("[IngestService] 批次 %s 已受理, 共 %d 条分块", batchID, len(chunks))
	return batchID, nil
}

// Stats 直接透传仓库的集合统计。
func (s *ingestService) Stats(ctx context.Context) (model.CollectionStats, error) {
	stats, err := s.chunkRepo.Stats(ctx)
	if err != nil {
		return model.CollectionStats{}, fmt.Errorf("查询集合统计失败: %w", err)
	}
	return stats, nil
}
