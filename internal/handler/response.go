// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
	"resume-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// respondError 按错误类别返回对应的状态码，未分类的错误不向客户端暴露细节。
func respondError(c *gin.Context, tag string, err error) {
	status := apperror.HTTPStatus(err)
	message := apperror.Message(err)
	if status == http.StatusInternalServerError {
		log.Errorf("[%s] 内部错误: %v", tag, err)
		message = "internal server error"
	} else {
		log.Warnf("[%s] 请求失败, status: %d, error: %v", tag, status, err)
	}
	c.JSON(status, gin.H{"code": status, "message": message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": message})
}

// currentUser 取出由 AuthMiddleware 注入的用户。
func currentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return nil, false
	}
	user, ok := value.(*model.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return nil, false
	}
	return user, true
}
