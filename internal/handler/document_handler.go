package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"resume-smart-go/internal/model"
	"resume-smart-go/internal/service"
	"resume-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责处理所有与文档管理相关的 API 请求。
type DocumentHandler struct {
	docService    service.DocumentService
	maxFileSizeMB int
}

// multipartOverhead 是请求体上限中为表单字段与分隔符预留的余量。
const multipartOverhead = 1 << 20

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。maxFileSizeMB <= 0 表示不限制大小。
func NewDocumentHandler(docService service.DocumentService, maxFileSizeMB int) *DocumentHandler {
	return &DocumentHandler{docService: docService, maxFileSizeMB: maxFileSizeMB}
}

// Upload 处理 multipart 文件上传，async=true 时走 Kafka 异步入库。
func (h *DocumentHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	maxBytes := int64(h.maxFileSizeMB) << 20
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondBadRequest(c, h.sizeLimitMessage())
			return
		}
		respondBadRequest(c, "no file part in the request")
		return
	}
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		respondBadRequest(c, h.sizeLimitMessage())
		return
	}
	async, err := strconv.ParseBool(c.DefaultPostForm("async", "false"))
	if err != nil {
		respondBadRequest(c, "async must be a boolean")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondBadRequest(c, "could not read uploaded file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondBadRequest(c, "could not read uploaded file")
		return
	}
	log.Infof("[DocumentHandler] 收到上传请求, user_id: %s, file: %s, size: %d, async: %t", user.UserID, fileHeader.Filename, len(data), async)

	res, err := h.docService.Upload(c.Request.Context(), service.UploadRequest{
		UserID:   user.UserID,
		Filename: fileHeader.Filename,
		Data:     data,
		Category: c.DefaultPostForm("category", "auto"),
		Metadata: c.DefaultPostForm("metadata", "{}"),
		Async:    async,
	})
	if err != nil {
		respondError(c, "DocumentHandler", err)
		return
	}

	if res.Status == model.IngestStatusQueued {
		c.JSON(http.StatusAccepted, gin.H{
			"code":    http.StatusAccepted,
			"message": "File accepted for processing",
			"data":    res,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "File processed successfully",
		"data":    res,
	})
}

func (h *DocumentHandler) sizeLimitMessage() string {
	return fmt.Sprintf("file exceeds the %d MB limit", h.maxFileSizeMB)
}

// ListDocuments 返回当前用户的文档概览。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	docs, err := h.docService.ListDocuments(c.Request.Context(), user.UserID)
	if err != nil {
		respondError(c, "DocumentHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"documents": docs, "total": len(docs)},
	})
}

// DeleteDocument 处理删除文档的请求。
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID := c.Param("documentId")
	deleted, err := h.docService.DeleteDocument(c.Request.Context(), user.UserID, documentID)
	if err != nil {
		respondError(c, "DocumentHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Document deleted successfully",
		"data":    gin.H{"document_id": documentID, "chunks_deleted": deleted},
	})
}

// Stats 返回当前用户的文档统计。
func (h *DocumentHandler) Stats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.docService.Stats(c.Request.Context(), user.UserID)
	if err != nil {
		respondError(c, "DocumentHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"user_id":             user.UserID,
			"username":            user.Username,
			"total_documents":     stats.TotalDocuments,
			"total_chunks":        stats.TotalChunks,
			"categories_by_chunk": stats.CategoriesByChunk,
		},
	})
}
