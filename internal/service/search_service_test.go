package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-assist-go/internal/config"
	"journal-assist-go/internal/model"
	"journal-assist-go/internal/repository"
)

func searchConfig() config.SearchConfig {
	return config.SearchConfig{DefaultK: 10, MaxK: 100, DefaultMinScore: 0.25}
}

func TestSimilaritySearchReturnsRankedResults(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	_, err := repo.Insert(ctx, []model.JournalChunk{
		seedChunk("near", "doc-a", 0, "close match"),
		{ID: "far", SourceDocID: "doc-b", Text: "distant", Embedding: []float32{-5, 0}},
	})
	require.NoError(t, err)

	embedder := &fakeEmbeddingClient{vector: []float32{1, 0}}
	svc := NewSearchService(embedder, repo, searchConfig())

	results, err := svc.SimilaritySearch(ctx, "gene expression profiling", 10, 0.25)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, int32(1), embedder.calls)
}

func TestSimilaritySearchValidation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	embedder := &fakeEmbeddingClient{vector: []float32{1, 0}}
	svc := NewSearchService(embedder, repo, searchConfig())

	cases := []struct {
		name     string
		query    string
		k        int
		minScore float64
	}{
		{"empty query", "", 10, 0.25},
		{"k too small", "q", 0, 0.25},
		{"k too large", "q", 101, 0.25},
		{"min score negative", "q", 10, -0.1},
		{"min score above one", "q", 10, 1.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SimilaritySearch(ctx, tc.query, tc.k, tc.minScore)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	// 校验失败不应触发向量化调用
	assert.Equal(t, int32(0), embedder.calls)
}

func TestSimilaritySearchEmptyResultIsNotError(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	embedder := &fakeEmbeddingClient{vector: []float32{1, 0}}
	svc := NewSearchService(embedder, repo, searchConfig())

	results, err := svc.SimilaritySearch(ctx, "anything", 10, 0.25)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSimilaritySearchBoundaryValuesAccepted(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryChunkRepository("journal_chunks")
	embedder := &fakeEmbeddingClient{vector: []float32{1, 0}}
	svc := NewSearchService(embedder, repo, searchConfig())

	// k=1、k=100、min_score=0、min_score=1 都是合法边界
	for _, k := range []int{1, 100} {
		_, err := svc.SimilaritySearch(ctx, "q", k, 0)
		require.NoError(t, err)
	}
	for _, minScore := range []float64{0, 1} {
		_, err := svc.SimilaritySearch(ctx, "q", 10, minScore)
		require.NoError(t, err)
	}
}
