package service

import (
	"context"
	"time"

	"journal-assist-go/internal/config"
	"journal-assist-go/internal/model"
	"journal-assist-go/pkg/llm"
	"journal-assist-go/pkg/log"

	"golang.org/x/sync/errgroup"
)

// 生成器调用失败时写入对应字段的占位文本。
// 单篇摘要失败不影响另一篇摘要返回，对比失败不影响两篇摘要返回。
const generatorFailedPlaceholder = "[摘要生成失败，请稍后重试]"
const comparisonFailedPlaceholder = "[对比生成失败，请稍后重试]"

// CompareService 接口定义了跨文献对比操作。
type CompareService interface {
	// ComparePapers 组装两篇文档、分别生成摘要并产出两篇的对比。
	// 任一文档不存在时返回 NotFoundError（携带缺失的 id），
	// 且不会发起任何生成器调用。整个流程只读，不改动存储状态。
	ComparePapers(ctx context.Context, docID1, docID2 string) (*model.ComparisonResult, error)
}

type compareService struct {
	documentService DocumentService
	llmClient       llm.Client
	compareCfg      config.CompareConfig
}

// NewCompareService 创建一个新的 CompareService 实例。
func NewCompareService(documentService DocumentService, llmClient llm.Client, compareCfg config.CompareConfig) CompareService {
	return &compareService{
		documentService: documentService,
		llmClient:       llmClient,
		compareCfg:      compareCfg,
	}
}

// ComparePapers 的流程：先组装（任一缺失立即失败），再并发生成两篇
// 摘要，最后用两份摘要生成对比。生成器失败降级为占位文本，不中止整体。
func (s *compareService) ComparePapers(ctx context.Context, docID1, docID2 string) (*model.ComparisonResult, error) {
	log.Infof("[CompareService] 开始对比文献, doc1: %s, doc2: %s", docID1, docID2)

	doc1, err := s.documentService.AssembleDocument(ctx, docID1)
	if err != nil {
		return nil, err
	}
	doc2, err := s.documentService.AssembleDocument(ctx, docID2)
	if err != nil {
		return nil, err
	}

	// 截断全文以适配生成器的输入上限
	text1 := truncateRunes(doc1.FullText, s.compareCfg.MaxDocChars)
	text2 := truncateRunes(doc2.FullText, s.compareCfg.MaxDocChars)

	// 两篇摘要相互独立，并发生成；失败只降级各自的字段
	var summary1, summary2 string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.llmClient.Summarize(gctx, text1, doc1.Metadata)
		if err != nil {
			log.Errorf("[CompareService] 生成文献 '%s' 摘要失败: %v", docID1, err)
			summary1 = generatorFailedPlaceholder
			return nil
		}
		summary1 = text
		return nil
	})
	g.Go(func() error {
		text, err := s.llmClient.Summarize(gctx, text2, doc2.Metadata)
		if err != nil {
			log.Errorf("[CompareService] 生成文献 '%s' 摘要失败: %v", docID2, err)
			summary2 = generatorFailedPlaceholder
			return nil
		}
		summary2 = text
		return nil
	})
	// goroutine 内部不返回错误，这里的 err 恒为 nil
	_ = g.Wait()

	comparison, err := s.llmClient.CompareTexts(ctx, summary1, doc1.Metadata, summary2, doc2.Metadata)
	if err != nil {
		log.Errorf("[CompareService] 生成对比失败: %v", err)
		comparison = comparisonFailedPlaceholder
	}

	result := &model.ComparisonResult{
		Paper1Summary: paperSummary(doc1, summary1),
		Paper2Summary: paperSummary(doc2, summary2),
		Comparison:    comparison,
		RequestInfo: model.ComparisonRequestInfo{
			ModelUsed:   s.llmClient.Model(),
			GeneratedAt: time.Now().Format(time.RFC3339),
		},
	}

	log.Infof("[CompareService] 文献对比完成, doc1: %s, doc2: %s, model: %s", docID1, docID2, result.RequestInfo.ModelUsed)
	return result, nil
}

func paperSummary(doc *model.JournalDocument, summary string) model.PaperSummary {
	return model.PaperSummary{
		SourceDocID: doc.SourceDocID,
		Journal:     doc.Journal,
		PublishYear: doc.PublishYear,
		DOI:         doc.DOI,
		TotalChunks: doc.TotalChunks,
		Summary:     summary,
	}
}

// truncateRunes 按字符截断文本到 limit 个字符，避免把多字节字符截成半个。
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
