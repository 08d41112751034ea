package handler

import (
	"net/http"

	"resume-smart-go/internal/service"
	"resume-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 结构体定义了搜索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchRequest 定义了语义检索 API 的请求体结构。
type SearchRequest struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	Category string `json:"category"`
}

// Search 是处理语义检索请求的 Gin 处理函数。
func (h *SearchHandler) Search(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[SearchHandler] 请求体解析失败: %v", err)
		respondBadRequest(c, "invalid request body")
		return
	}

	results, err := h.searchService.Search(c.Request.Context(), user.UserID, req.Query, req.Limit, req.Category)
	if err != nil {
		respondError(c, "SearchHandler", err)
		return
	}

	log.Infof("[SearchHandler] 检索成功, 返回 %d 条结果", len(results))
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"results": results, "count": len(results)},
	})
}
