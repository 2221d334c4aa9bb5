package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journal-assist-go/internal/service"
	"journal-assist-go/pkg/log"
)

// UsageHandler 负责处理访问排行与统计的 API 请求。
type UsageHandler struct {
	usageService service.UsageService
}

// NewUsageHandler 创建一个新的 UsageHandler 实例。
func NewUsageHandler(usageService service.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// Popular 返回访问次数最多的分块列表，limit 由查询参数控制，默认 10。
func (h *UsageHandler) Popular(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit 必须是正整数"})
			return
		}
		limit = parsed
	}

	records, err := h.usageService.PopularChunks(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("Popular: Failed to query popular chunks, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询访问排行失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"popular_chunks": records})
}

// Analytics 返回聚合的使用统计。
func (h *UsageHandler) Analytics(c *gin.Context) {
	analytics, err := h.usageService.Analytics(c.Request.Context())
	if err != nil {
		log.Errorf("Analytics: Failed to query usage analytics, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询使用统计失败"})
		return
	}

	c.JSON(http.StatusOK, analytics)
}
