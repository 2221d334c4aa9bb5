package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"journal-assist-go/internal/service"
	"journal-assist-go/pkg/log"
)

// CompareHandler 负责处理跨文档对比的 API 请求。
type CompareHandler struct {
	compareService service.CompareService
}

// NewCompareHandler 创建一个新的 CompareHandler 实例。
func NewCompareHandler(compareService service.CompareService) *CompareHandler {
	return &CompareHandler{compareService: compareService}
}

// CompareRequest 定义了跨文档对比 API 的请求体结构。
type CompareRequest struct {
	SourceDocID1 string `json:"source_doc_id_1" binding:"required"`
	SourceDocID2 string `json:"source_doc_id_2" binding:"required"`
}

// Compare 组装两篇文档并调用生成器产出对比结果。
func (h *CompareHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Compare: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：source_doc_id_1 和 source_doc_id_2 不能为空"})
		return
	}

	result, err := h.compareService.ComparePapers(c.Request.Context(), req.SourceDocID1, req.SourceDocID2)
	if err != nil {
		var notFoundErr *service.NotFoundError
		if errors.As(err, &notFoundErr) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
			return
		}
		log.Errorf("Compare: Failed to compare %s and %s, error: %v", req.SourceDocID1, req.SourceDocID2, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "文档对比失败"})
		return
	}

	c.JSON(http.StatusOK, result)
}
