// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"journal-assist-go/internal/config"
	"journal-assist-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewClient 初始化 Elasticsearch 客户端并确保分块索引存在。
// dimension 决定 dense_vector 字段的维度，必须与 embedding 模型一致。
func NewClient(esCfg config.ElasticsearchConfig, dimension int) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := createIndexIfNotExists(client, esCfg.IndexName, dimension); err != nil {
		return nil, err
	}
	return client, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(client *elasticsearch.Client, indexName string, dimension int) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// embedding 使用 l2_norm 相似度，与 max(0, 1-距离) 的得分换算对应。
	// seq 是插入序号，同分命中按它升序排序。
	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"source_doc_id": { "type": "keyword" },
				"chunk_index": { "type": "integer" },
				"section_heading": { "type": "keyword" },
				"journal": { "type": "keyword" },
				"publish_year": { "type": "integer" },
				"usage_count": { "type": "integer" },
				"attributes": { "type": "keyword" },
				"link": { "type": "keyword" },
				"text": { "type": "text" },
				"doi": { "type": "keyword" },
				"embedding": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "l2_norm"
				},
				"schema_version": { "type": "keyword" },
				"seq": { "type": "long" }
			}
		}
	}`, dimension)

	res, err = client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)

	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return fmt.Errorf("创建索引时 Elasticsearch 返回错误: %s", res.Status())
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}
