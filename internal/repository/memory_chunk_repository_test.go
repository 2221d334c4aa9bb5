package repository

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-assist-go/internal/model"
)

func chunkFixture(id, docID string, index int, embedding []float32) model.JournalChunk {
	return model.JournalChunk{
		ID:          id,
		SourceDocID: docID,
		ChunkIndex:  index,
		Journal:     "Nature Methods",
		PublishYear: 2023,
		Text:        fmt.Sprintf("chunk %s text", id),
		Embedding:   embedding,
	}
}

func TestSimilarityScoreFormula(t *testing.T) {
	// 得分 = max(0, 1 - L2距离)
	assert.InDelta(t, 1.0, SimilarityScore([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.5, SimilarityScore([]float32{0, 0}, []float32{0.5, 0}), 1e-9)
	// 距离超过 1 时得分截断为 0，不会出现负分
	assert.Equal(t, 0.0, SimilarityScore([]float32{0, 0}, []float32{3, 4}))
}

func TestMemoryChunkRepositoryInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	inserted, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("c1", "doc-a", 0, []float32{1, 0}),
		chunkFixture("c2", "doc-a", 1, []float32{0, 1}),
		chunkFixture("c3", "doc-b", 0, []float32{0.9, 0.1}),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	results, err := repo.SimilaritySearch(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// 按得分降序
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, "c3", results[1].ID)
	assert.Equal(t, "c2", results[2].ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestMemoryChunkRepositorySearchRespectsK(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	var chunks []model.JournalChunk
	for i := 0; i < 20; i++ {
		chunks = append(chunks, chunkFixture(fmt.Sprintf("c%02d", i), "doc-a", i, []float32{float32(i) / 20, 0}))
	}
	_, err := repo.Insert(ctx, chunks)
	require.NoError(t, err)

	results, err := repo.SimilaritySearch(ctx, []float32{1, 0}, 5, 0)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestMemoryChunkRepositorySearchMinScoreFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("near", "doc-a", 0, []float32{0.9, 0}),
		chunkFixture("far", "doc-a", 1, []float32{-3, 0}),
	})
	require.NoError(t, err)

	results, err := repo.SimilaritySearch(ctx, []float32{1, 0}, 10, 0.25)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].ID)
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
}

func TestMemoryChunkRepositorySearchTieBreakByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	// 三个分块与查询向量距离相同，得分并列
	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("first", "doc-a", 0, []float32{0.5, 0}),
		chunkFixture("second", "doc-a", 1, []float32{0, 0.5}),
		chunkFixture("third", "doc-a", 2, []float32{0, -0.5}),
	})
	require.NoError(t, err)

	results, err := repo.SimilaritySearch(ctx, []float32{0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{results[0].ID, results[1].ID, results[2].ID})
}

func TestMemoryChunkRepositoryEmptyStore(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	results, err := repo.SimilaritySearch(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalChunks)
	assert.Equal(t, "journal_chunks", stats.CollectionName)
}

func TestMemoryChunkRepositoryDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("c1", "doc-a", 0, []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	// 维度已被首次插入固定为 3
	_, err = repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("c2", "doc-a", 1, []float32{1, 0}),
	})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = repo.SimilaritySearch(ctx, []float32{1, 0}, 10, 0)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryChunkRepositoryBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	bad := chunkFixture("", "doc-a", 1, []float32{1, 0})
	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("c1", "doc-a", 0, []float32{1, 0}),
		bad,
	})
	require.Error(t, err)

	// 整批拒绝：合法的 c1 也不应入库
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalChunks)
}

func TestMemoryChunkRepositoryDuplicateIDOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("c1", "doc-a", 0, []float32{1, 0}),
	})
	require.NoError(t, err)

	updated := chunkFixture("c1", "doc-a", 0, []float32{0, 1})
	updated.Text = "updated text"
	_, err = repo.Insert(ctx, []model.JournalChunk{updated})
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalChunks)

	chunks, err := repo.GetByDocument(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "updated text", chunks[0].Text)
	assert.Equal(t, []float32{0, 1}, chunks[0].Embedding)
}

func TestMemoryChunkRepositoryOverwriteKeepsTieBreakSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	// 三个同分分块按插入顺序排序
	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("first", "doc-a", 0, []float32{0.5, 0}),
		chunkFixture("second", "doc-a", 1, []float32{0, 0.5}),
		chunkFixture("third", "doc-a", 2, []float32{0, -0.5}),
	})
	require.NoError(t, err)

	// 重新摄取中间的分块：覆盖内容但保留原插入位次
	updated := chunkFixture("second", "doc-a", 1, []float32{-0.5, 0})
	updated.Text = "reingested text"
	_, err = repo.Insert(ctx, []model.JournalChunk{updated})
	require.NoError(t, err)

	results, err := repo.SimilaritySearch(ctx, []float32{0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{results[0].ID, results[1].ID, results[2].ID})
	assert.Equal(t, "reingested text", results[1].Text)
}

func TestMemoryChunkRepositoryGetByDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("a0", "doc-a", 0, []float32{1, 0}),
		chunkFixture("b0", "doc-b", 0, []float32{0, 1}),
		chunkFixture("a1", "doc-a", 1, []float32{1, 1}),
	})
	require.NoError(t, err)

	chunks, err := repo.GetByDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.Equal(t, "doc-a", c.SourceDocID)
	}

	missing, err := repo.GetByDocument(ctx, "doc-x")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMemoryChunkRepositoryScoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChunkRepository("journal_chunks")

	embedding := []float32{0.6, 0.8}
	_, err := repo.Insert(ctx, []model.JournalChunk{
		chunkFixture("c1", "doc-a", 0, embedding),
	})
	require.NoError(t, err)

	query := []float32{0.6, 0.2}
	results, err := repo.SimilaritySearch(ctx, query, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	want := math.Max(0, 1-math.Sqrt(0.6*0.6))
	assert.InDelta(t, want, results[0].Score, 1e-6)
}
