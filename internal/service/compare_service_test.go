package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-assist-go/internal/config"
	"journal-assist-go/internal/model"
	"journal-assist-go/internal/repository"
)

func compareConfig() config.CompareConfig {
	return config.CompareConfig{MaxDocChars: 15000}
}

func seedTwoDocuments(t *testing.T, repo repository.ChunkRepository) {
	t.Helper()
	_, err := repo.Insert(context.Background(), []model.JournalChunk{
		seedChunk("a0", "doc-a", 0, "paper a introduction"),
		seedChunk("a1", "doc-a", 1, "paper a results"),
		seedChunk("b0", "doc-b", 0, "paper b introduction"),
	})
	require.NoError(t, err)
}

func TestComparePapersSuccess(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	seedTwoDocuments(t, repo)

	llmClient := &fakeLLMClient{modelName: "qwen-72b"}
	svc := NewCompareService(NewDocumentService(repo), llmClient, compareConfig())

	result, err := svc.ComparePapers(ctx, "doc-a", "doc-b")
	require.NoError(t, err)

	assert.Equal(t, "doc-a", result.Paper1Summary.SourceDocID)
	assert.Equal(t, "doc-b", result.Paper2Summary.SourceDocID)
	assert.Equal(t, "summary of doc-a", result.Paper1Summary.Summary)
	assert.Equal(t, "summary of doc-b", result.Paper2Summary.Summary)
	assert.Equal(t, "comparison of doc-a and doc-b", result.Comparison)
	assert.Equal(t, 2, result.Paper1Summary.TotalChunks)

	// 请求溯源信息
	assert.Equal(t, "qwen-72b", result.RequestInfo.ModelUsed)
	generatedAt, err := time.Parse(time.RFC3339, result.RequestInfo.GeneratedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), generatedAt, time.Minute)
}

func TestComparePapersMissingDocumentFailsFast(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	seedTwoDocuments(t, repo)

	llmClient := &fakeLLMClient{}
	svc := NewCompareService(NewDocumentService(repo), llmClient, compareConfig())

	_, err := svc.ComparePapers(ctx, "doc-a", "doc-missing")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "doc-missing", notFound.DocID)

	// 组装失败必须发生在任何生成器调用之前
	assert.Equal(t, 0, llmClient.summarizeCalls())
	assert.Equal(t, 0, llmClient.compareCalls)
}

func TestComparePapersSummaryFailureDegrades(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	seedTwoDocuments(t, repo)

	llmClient := &fakeLLMClient{summarizeErr: errors.New("upstream timeout")}
	svc := NewCompareService(NewDocumentService(repo), llmClient, compareConfig())

	// 摘要失败降级为占位符，对比流程继续，不返回错误
	result, err := svc.ComparePapers(ctx, "doc-a", "doc-b")
	require.NoError(t, err)
	assert.Equal(t, generatorFailedPlaceholder, result.Paper1Summary.Summary)
	assert.Equal(t, generatorFailedPlaceholder, result.Paper2Summary.Summary)
	assert.Equal(t, 1, llmClient.compareCalls)
}

func TestComparePapersComparisonFailureDegrades(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	seedTwoDocuments(t, repo)

	llmClient := &fakeLLMClient{compareErr: errors.New("upstream timeout")}
	svc := NewCompareService(NewDocumentService(repo), llmClient, compareConfig())

	result, err := svc.ComparePapers(ctx, "doc-a", "doc-b")
	require.NoError(t, err)
	assert.Equal(t, comparisonFailedPlaceholder, result.Comparison)
	assert.Equal(t, "summary of doc-a", result.Paper1Summary.Summary)
}

func TestComparePapersTruncatesLongDocuments(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	long := seedChunk("a0", "doc-a", 0, strings.Repeat("x", 200))
	short := seedChunk("b0", "doc-b", 0, "short text")
	_, err := repo.Insert(ctx, []model.JournalChunk{long, short})
	require.NoError(t, err)

	llmClient := &fakeLLMClient{}
	svc := NewCompareService(NewDocumentService(repo), llmClient, config.CompareConfig{MaxDocChars: 50})

	_, err = svc.ComparePapers(ctx, "doc-a", "doc-b")
	require.NoError(t, err)

	require.Len(t, llmClient.summarizeArgs, 2)
	for _, arg := range llmClient.summarizeArgs {
		assert.LessOrEqual(t, len([]rune(arg)), 50)
	}
	// 长文档截到恰好 50 个字符，短文档原样传入
	assert.Contains(t, llmClient.summarizeArgs, strings.Repeat("x", 50))
	assert.Contains(t, llmClient.summarizeArgs, "short text")
}
