package handler

import (
	"context"
	"net/http"

	"resume-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// Pinger 检查向量存储是否可达，由 *es.Client 实现。
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 提供健康检查接口。
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health 在 Elasticsearch 可达时返回 200，否则返回 503。
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		log.Warnf("[HealthHandler] Elasticsearch 不可达: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":        "unhealthy",
			"elasticsearch": "disconnected",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"elasticsearch": "connected",
	})
}
