package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"journal-assist-go/internal/config"
	"journal-assist-go/internal/model"
	"journal-assist-go/internal/service"
	"journal-assist-go/pkg/log"
)

// SearchHandler 负责处理相似度检索的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
	usageService  service.UsageService
	searchCfg     config.SearchConfig
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService, usageService service.UsageService, searchCfg config.SearchConfig) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		usageService:  usageService,
		searchCfg:     searchCfg,
	}
}

// SearchRequest 定义了相似度检索 API 的请求体结构。
// K 和 MinScore 用指针区分"未提供"与"显式为零"。
type SearchRequest struct {
	Query    string   `json:"query" binding:"required"`
	K        *int     `json:"k"`
	MinScore *float64 `json:"min_score"`
}

// SimilaritySearch 处理相似度检索请求，并异步记录每个返回分块的访问。
func (h *SearchHandler) SimilaritySearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SimilaritySearch: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：query 不能为空"})
		return
	}

	k := h.searchCfg.DefaultK
	if req.K != nil {
		k = *req.K
	}
	minScore := h.searchCfg.DefaultMinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	results, err := h.searchService.SimilaritySearch(c.Request.Context(), req.Query, k, minScore)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}
		log.Errorf("SimilaritySearch: Search failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "检索失败"})
		return
	}

	// 访问计数在后台记录，不阻塞响应，失败只记日志
	go h.recordAccesses(results)

	c.JSON(http.StatusOK, gin.H{
		"results":       results,
		"total_results": len(results),
		"query":         req.Query,
	})
}

func (h *SearchHandler) recordAccesses(results []model.ScoredChunk) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range results {
		if _, err := h.usageService.RecordAccess(ctx, r.ID, r.SourceDocID); err != nil {
			log.Warnf("SimilaritySearch: Failed to record access for chunk %s, error: %v", r.ID, err)
		}
	}
}
