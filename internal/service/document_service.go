package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"journal-assist-go/internal/model"
	"journal-assist-go/internal/repository"
	"journal-assist-go/pkg/log"
)

// DocumentService 接口定义了整篇文档的组装操作。
type DocumentService interface {
	// AssembleDocument 收集指定文档的全部分块并组装成 JournalDocument。
	// 无任何分块时返回 NotFoundError。
	AssembleDocument(ctx context.Context, sourceDocID string) (*model.JournalDocument, error)
}

type documentService struct {
	chunkRepo repository.ChunkRepository
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(chunkRepo repository.ChunkRepository) DocumentService {
	return &documentService{chunkRepo: chunkRepo}
}

// AssembleDocument 每次请求都重新从分块存储组装，不做缓存。
// 分块按 chunk_index 升序排列；文档级元数据取排序后的第一个分块
// （first-chunk-wins 是约定的契约，组装方不校验各分块元数据一致）。
func (s *documentService) AssembleDocument(ctx context.Context, sourceDocID string) (*model.JournalDocument, error) {
	if sourceDocID == "" {
		return nil, &ValidationError{Reason: "source_doc_id 不能为空"}
	}

	chunks, err := s.chunkRepo.GetByDocument(ctx, sourceDocID)
	if err != nil {
		log.Errorf("[DocumentService] 获取文档分块失败, docID: %s, error: %v", sourceDocID, err)
		return nil, fmt.Errorf("查询文档分块失败: %w", err)
	}
	if len(chunks) == 0 {
		return nil, &NotFoundError{DocID: sourceDocID}
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})

	first := chunks[0]
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	doc := &model.JournalDocument{
		SourceDocID: sourceDocID,
		Journal:     first.Journal,
		PublishYear: first.PublishYear,
		DOI:         first.DOI,
		TotalChunks: len(chunks),
		Chunks:      chunks,
		// 换行拼接，不破坏既有的词边界
		FullText: strings.Join(texts, "\n"),
		Metadata: model.DocumentMetadata{
			SourceDocID: sourceDocID,
			Journal:     first.Journal,
			PublishYear: first.PublishYear,
			TotalChunks: len(chunks),
			DOI:         first.DOI,
		},
	}

	log.Infof("[DocumentService] 文档组装完成, docID: %s, 分块数: %d", sourceDocID, len(chunks))
	return doc, nil
}
