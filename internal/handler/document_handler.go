package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"journal-assist-go/internal/service"
	"journal-assist-go/pkg/log"
)

// DocumentHandler 负责处理文档组装的 API 请求。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// GetDocument 按来源文档 ID 组装并返回完整文档。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	sourceDocID := c.Param("journalId")
	if sourceDocID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "journalId 不能为空"})
		return
	}

	doc, err := h.documentService.AssembleDocument(c.Request.Context(), sourceDocID)
	if err != nil {
		var notFoundErr *service.NotFoundError
		if errors.As(err, &notFoundErr) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
			return
		}
		log.Errorf("GetDocument: Failed to assemble document %s, error: %v", sourceDocID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "文档组装失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source_doc_id": doc.SourceDocID,
		"journal":       doc.Journal,
		"publish_year":  doc.PublishYear,
		"doi":           doc.DOI,
		"total_chunks":  doc.TotalChunks,
		"full_text":     doc.FullText,
		"metadata":      doc.Metadata,
		"chunks":        doc.Chunks,
	})
}
