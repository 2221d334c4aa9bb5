// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"journal-assist-go/internal/config"
	"journal-assist-go/internal/model"
	"journal-assist-go/pkg/log"
)

// Client defines the interface for the summary/comparison generator.
// Both calls are synchronous request/response; the caller decides how to
// degrade when a call fails.
type Client interface {
	// Summarize produces a natural-language summary of one document.
	Summarize(ctx context.Context, docText string, meta model.DocumentMetadata) (string, error)
	// CompareTexts produces a pairwise comparison from two summaries plus
	// both documents' metadata.
	CompareTexts(ctx context.Context, summaryA string, metaA model.DocumentMetadata, summaryB string, metaB model.DocumentMetadata) (string, error)
	// Model reports the configured model name, for provenance records.
	Model() string
}

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(cfg config.LLMConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAICompatibleClient) Model() string {
	return c.cfg.Model
}

// Summarize 调用 chat/completions 为单篇文献生成摘要。
func (c *openAICompatibleClient) Summarize(ctx context.Context, docText string, meta model.DocumentMetadata) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("请为下面这篇期刊文献生成简明的学术摘要，聚焦研究问题、方法与结论。\n")
	prompt.WriteString(fmt.Sprintf("期刊: %s, 发表年份: %d", meta.Journal, meta.PublishYear))
	if meta.DOI != "" {
		prompt.WriteString(", DOI: " + meta.DOI)
	}
	prompt.WriteString("\n\n正文:\n")
	prompt.WriteString(docText)
	return c.complete(ctx, prompt.String())
}

// CompareTexts 基于两份摘要与各自元数据生成跨文献对比。
func (c *openAICompatibleClient) CompareTexts(ctx context.Context, summaryA string, metaA model.DocumentMetadata, summaryB string, metaB model.DocumentMetadata) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("请对比下面两篇期刊文献，指出研究问题、方法与结论上的异同。\n\n")
	prompt.WriteString(fmt.Sprintf("文献一 (%s, %s, %d):\n%s\n\n", metaA.SourceDocID, metaA.Journal, metaA.PublishYear, summaryA))
	prompt.WriteString(fmt.Sprintf("文献二 (%s, %s, %d):\n%s\n", metaB.SourceDocID, metaB.Journal, metaB.PublishYear, summaryB))
	return c.complete(ctx, prompt.String())
}

// complete 发起一次非流式 chat completion 调用并返回完整文本。
func (c *openAICompatibleClient) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []Message{{Role: "user", Content: prompt}},
	}
	// 从全局配置注入生成参数（若非零值）
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		reqBody.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		reqBody.MaxTokens = &m
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		log.Warnf("[LLMClient] Chat API 返回了空的 choices")
		return "", fmt.Errorf("received empty completion from api")
	}
	return chatResp.Choices[0].Message.Content, nil
}
