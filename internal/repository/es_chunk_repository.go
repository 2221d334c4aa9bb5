package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"journal-assist-go/internal/model"
	"journal-assist-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// esChunkRepository 是 ChunkRepository 的 Elasticsearch 实现。
// 相似度得分在 ES 侧用 painless 脚本计算，公式与 SimilarityScore 一致；
// 同分结果按插入序号（seq 字段）升序排序，保证排序稳定。
type esChunkRepository struct {
	client    *elasticsearch.Client
	indexName string
	dimension int
	seq       atomic.Int64
}

// NewESChunkRepository 创建一个基于 Elasticsearch 的分块存储。
// dimension 来自 embedding 配置，与索引 mapping 中 dense_vector 的维度一致。
func NewESChunkRepository(client *elasticsearch.Client, indexName string, dimension int) ChunkRepository {
	r := &esChunkRepository{
		client:    client,
		indexName: indexName,
		dimension: dimension,
	}
	// 以纳秒时间戳为起点，保证进程重启后 seq 仍然单调递增
	r.seq.Store(time.Now().UnixNano())
	return r
}

// Insert 通过 Bulk API 写入一批分块。先整体校验再提交，任一分块
// 校验失败则整批拒绝；Bulk 响应中的单条错误同样导致整批报告失败。
func (r *esChunkRepository) Insert(ctx context.Context, chunks []model.JournalChunk) (int, error) {
	for _, c := range chunks {
		if c.ID == "" || c.Text == "" {
			return 0, fmt.Errorf("分块缺少必填字段 id 或 text (id=%q)", c.ID)
		}
		if len(c.Embedding) != r.dimension {
			return 0, fmt.Errorf("分块 '%s' 向量维度 %d, 期望 %d: %w", c.ID, len(c.Embedding), r.dimension, ErrDimensionMismatch)
		}
	}

	// 覆盖写沿用旧的插入序号，同分排序在重复摄取后保持稳定
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	existing, err := r.existingSeqs(ctx, ids)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	for _, c := range chunks {
		seq, ok := existing[c.ID]
		if !ok {
			seq = r.seq.Add(1)
		}
		doc := model.EsChunkDocument{
			ID:             c.ID,
			SourceDocID:    c.SourceDocID,
			ChunkIndex:     c.ChunkIndex,
			SectionHeading: c.SectionHeading,
			Journal:        c.Journal,
			PublishYear:    c.PublishYear,
			UsageCount:     c.UsageCount,
			Attributes:     c.Attributes,
			Link:           c.Link,
			Text:           c.Text,
			DOI:            c.DOI,
			Embedding:      c.Embedding,
			SchemaVersion:  c.SchemaVersion,
			Seq:            seq,
		}
		meta := fmt.Sprintf(`{"index":{"_id":%q}}`, c.ID)
		buf.WriteString(meta)
		buf.WriteByte('\n')
		docBytes, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("序列化分块 '%s' 失败: %w", c.ID, err)
		}
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	req := esapi.BulkRequest{
		Index:   r.indexName,
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch bulk 请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("[ChunkRepository] Bulk 写入返回错误: %s", res.String())
		return 0, fmt.Errorf("elasticsearch bulk 写入失败: %s", res.Status())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return 0, fmt.Errorf("解析 bulk 响应失败: %w", err)
	}
	if bulkResp.Errors {
		for _, item := range bulkResp.Items {
			for _, op := range item {
				if op.Error != nil {
					return 0, fmt.Errorf("bulk 写入部分失败, 整批拒绝: %s: %s", op.Error.Type, op.Error.Reason)
				}
			}
		}
		return 0, fmt.Errorf("bulk 写入部分失败, 整批拒绝")
	}
	return len(chunks), nil
}

// existingSeqs 用 Mget 查询一批 id 已有的插入序号。未入库的 id 不出现在
// 返回的 map 中，由调用方分配新序号。
func (r *esChunkRepository) existingSeqs(ctx context.Context, ids []string) (map[string]int64, error) {
	body, err := json.Marshal(map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("序列化 mget 请求失败: %w", err)
	}

	req := esapi.MgetRequest{
		Index:          r.indexName,
		Body:           bytes.NewReader(body),
		SourceIncludes: []string{"seq"},
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch mget 请求失败: %w", err)
	}
	defer res.Body.Close()

	// 索引尚不存在时 mget 返回 404，等同于没有任何旧文档
	if res.StatusCode == 404 {
		return map[string]int64{}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch mget 失败: %s", res.Status())
	}

	var mgetResp struct {
		Docs []struct {
			ID     string `json:"_id"`
			Found  bool   `json:"found"`
			Source struct {
				Seq int64 `json:"seq"`
			} `json:"_source"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&mgetResp); err != nil {
		return nil, fmt.Errorf("解析 mget 响应失败: %w", err)
	}

	seqs := make(map[string]int64, len(mgetResp.Docs))
	for _, doc := range mgetResp.Docs {
		if doc.Found {
			seqs[doc.ID] = doc.Source.Seq
		}
	}
	return seqs, nil
}

// SimilaritySearch 用 script_score 查询在 ES 侧计算得分，
// min_score 过滤阈值之下的命中，按 _score 降序、seq 升序返回前 k 条。
func (r *esChunkRepository) SimilaritySearch(ctx context.Context, queryVector []float32, k int, minScore float64) ([]model.ScoredChunk, error) {
	if len(queryVector) != r.dimension {
		return nil, fmt.Errorf("查询向量维度 %d, 期望 %d: %w", len(queryVector), r.dimension, ErrDimensionMismatch)
	}

	esQuery := map[string]interface{}{
		"size":      k,
		"min_score": minScore,
		"query": map[string]interface{}{
			"script_score": map[string]interface{}{
				"query": map[string]interface{}{"match_all": map[string]interface{}{}},
				"script": map[string]interface{}{
					// 与 SimilarityScore 保持同一换算公式
					"source": "Math.max(0, 1.0 - l2norm(params.query_vector, 'embedding'))",
					"params": map[string]interface{}{"query_vector": queryVector},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"seq": map[string]interface{}{"order": "asc"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("序列化检索请求失败: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.indexName),
		r.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch 检索请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[ChunkRepository] 检索返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch 检索失败: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsChunkDocument `json:"_source"`
				Score  float64               `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("解析检索响应失败: %w", err)
	}

	results := make([]model.ScoredChunk, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.ScoredChunk{
			JournalChunk: chunkFromEsDoc(hit.Source),
			Score:        hit.Score,
		})
	}
	return results, nil
}

// GetByDocument 用 term 查询取回指定文档的全部分块（顺序由 ES 决定）。
func (r *esChunkRepository) GetByDocument(ctx context.Context, sourceDocID string) ([]model.JournalChunk, error) {
	query := fmt.Sprintf(`{"size":10000,"query":{"term":{"source_doc_id":%q}}}`, sourceDocID)

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.indexName),
		r.client.Search.WithBody(strings.NewReader(query)),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch 文档查询失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch 文档查询失败: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsChunkDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("解析文档查询响应失败: %w", err)
	}

	chunks := make([]model.JournalChunk, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		chunks = append(chunks, chunkFromEsDoc(hit.Source))
	}
	return chunks, nil
}

// Stats 通过 Count API 返回分块总数。
func (r *esChunkRepository) Stats(ctx context.Context) (model.CollectionStats, error) {
	res, err := r.client.Count(
		r.client.Count.WithContext(ctx),
		r.client.Count.WithIndex(r.indexName),
	)
	if err != nil {
		return model.CollectionStats{}, fmt.Errorf("elasticsearch count 请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return model.CollectionStats{}, fmt.Errorf("elasticsearch count 失败: %s", res.Status())
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return model.CollectionStats{}, fmt.Errorf("解析 count 响应失败: %w", err)
	}

	return model.CollectionStats{
		TotalChunks:    countResp.Count,
		CollectionName: r.indexName,
	}, nil
}

func chunkFromEsDoc(doc model.EsChunkDocument) model.JournalChunk {
	return model.JournalChunk{
		ID:             doc.ID,
		SourceDocID:    doc.SourceDocID,
		ChunkIndex:     doc.ChunkIndex,
		SectionHeading: doc.SectionHeading,
		Journal:        doc.Journal,
		PublishYear:    doc.PublishYear,
		UsageCount:     doc.UsageCount,
		Attributes:     doc.Attributes,
		Link:           doc.Link,
		Text:           doc.Text,
		DOI:            doc.DOI,
		Embedding:      doc.Embedding,
		SchemaVersion:  doc.SchemaVersion,
	}
}
