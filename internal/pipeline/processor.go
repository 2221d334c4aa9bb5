// Package pipeline 定义了分块批次的异步处理流程。
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"journal-assist-go/internal/model"
	"journal-assist-go/internal/repository"
	"journal-assist-go/pkg/embedding"
	"journal-assist-go/pkg/log"
	"journal-assist-go/pkg/storage"
	"journal-assist-go/pkg/tasks"
)

// Processor 封装了批次处理的所有依赖和逻辑。
type Processor struct {
	archive         storage.PayloadArchive
	embeddingClient embedding.Client
	chunkRepo       repository.ChunkRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	archive storage.PayloadArchive,
	embeddingClient embedding.Client,
	chunkRepo repository.ChunkRepository,
) *Processor {
	return &Processor{
		archive:         archive,
		embeddingClient: embeddingClient,
		chunkRepo:       chunkRepo,
	}
}

// Process 是批次处理的主函数：取回归档载荷、批量向量化、写入分块仓库。
func (p *Processor) Process(ctx context.Context, task tasks.ChunkIngestTask) error {
	log.Infof("[Processor] 开始处理批次, BatchID: %s, ChunkCount: %d", task.BatchID, task.ChunkCount)

	// 1. 从归档中取回原始载荷
	payload, err := p.archive.Get(ctx, task.ObjectName)
	if err != nil {
		log.Errorf("[Processor] 取回批次载荷失败, Object: %s, Error: %v", task.ObjectName, err)
		return fmt.Errorf("取回批次载荷失败: %w", err)
	}

	var chunks []model.JournalChunk
	if err := json.Unmarshal(payload, &chunks); err != nil {
		log.Errorf("[Processor] 解析批次载荷失败, BatchID: %s, Error: %v", task.BatchID, err)
		return fmt.Errorf("解析批次载荷失败: %w", err)
	}
	if len(chunks) == 0 {
		log.Warnf("[Processor] 批次 %s 载荷为空, 处理中止", task.BatchID)
		return errors.New("批次载荷为空")
	}

	// 2. 批量向量化
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	log.Infof("[Processor] 步骤2: 调用 Embedding 服务, 批次大小: %d", len(texts))
	vectors, err := p.embeddingClient.CreateEmbeddings(ctx, texts)
	if err != nil {
		log.Errorf("[Processor] 向量化失败, BatchID: %s, Error: %v", task.BatchID, err)
		return fmt.Errorf("向量化失败: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("向量数量 %d 与分块数量 %d 不一致", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		if chunks[i].SchemaVersion == "" {
			chunks[i].SchemaVersion = task.SchemaVersion
		}
	}

	// 3. 写入分块仓库
	inserted, err := p.chunkRepo.Insert(ctx, chunks)
	if err != nil {
		log.Errorf("[Processor] 写入分块仓库失败, BatchID: %s, Error: %v", task.BatchID, err)
		return fmt.Errorf("写入分块仓库失败: %w", err)
	}

	log.Infof("[Processor] 批次 %s 处理完成, 写入 %d 条分块", task.BatchID, inserted)
	return nil
}
