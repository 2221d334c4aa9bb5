// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"journal-assist-go/internal/model"
	"journal-assist-go/internal/service"
	"journal-assist-go/pkg/log"
	"journal-assist-go/pkg/token"
)

// UploadHandler 负责处理分块批次上传与集合统计的 API 请求。
type UploadHandler struct {
	ingestService service.IngestService
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(ingestService service.IngestService) *UploadHandler {
	return &UploadHandler{ingestService: ingestService}
}

// UploadRequest 定义了分块批次上传 API 的请求体结构。
type UploadRequest struct {
	Chunks        []model.JournalChunk `json:"chunks" binding:"required"`
	SchemaVersion string               `json:"schema_version"`
}

// Upload 受理一个分块批次。校验通过即返回 202，向量化在后台完成。
func (h *UploadHandler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Upload: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：chunks 不能为空"})
		return
	}

	submittedBy := ""
	if value, exists := c.Get("claims"); exists {
		if claims, ok := value.(*token.CustomClaims); ok {
			submittedBy = claims.Username
		}
	}

	batchID, err := h.ingestService.SubmitBatch(c.Request.Context(), req.Chunks, req.SchemaVersion, submittedBy)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}
		log.Errorf("Upload: Failed to submit batch, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "批次受理失败"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":          "批次已受理，正在后台处理",
		"batch_id":         batchID,
		"chunks_processed": len(req.Chunks),
		"status":           "accepted",
	})
}

// Stats 返回集合的分块总数。
func (h *UploadHandler) Stats(c *gin.Context) {
	stats, err := h.ingestService.Stats(c.Request.Context())
	if err != nil {
		log.Errorf("Stats: Failed to query collection stats, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询集合统计失败"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
