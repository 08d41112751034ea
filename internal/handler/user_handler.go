package handler

import (
	"net/http"

	"resume-smart-go/internal/service"
	"resume-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理所有与普通用户相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		respondBadRequest(c, "username and email are required")
		return
	}

	user, tokens, err := h.userService.Register(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		respondError(c, "UserHandler", err)
		return
	}

	log.Infof("User '%s' registered successfully, user_id: %s", user.Username, user.UserID)
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "User registered successfully",
		"data": gin.H{
			"user_id":      user.UserID,
			"username":     user.Username,
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Email string `json:"email" binding:"required"`
}

// Login 处理用户登录请求。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		respondBadRequest(c, "email is required")
		return
	}

	user, tokens, err := h.userService.Login(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, "UserHandler", err)
		return
	}

	log.Infof("User '%s' logged in successfully", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"user_id":      user.UserID,
			"username":     user.Username,
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// GetProfile 获取当前登录用户的个人信息。
// 用户信息已经由 AuthMiddleware 注入到上下文中。
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": user, "message": "success"})
}

// Logout 把当前 access token 加入黑名单。
func (h *UserHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.userService.Logout(c.Request.Context(), c.GetString("token")); err != nil {
		respondError(c, "UserHandler", err)
		return
	}

	log.Infof("User '%s' logged out successfully", user.Username)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "Logged out successfully"})
}
