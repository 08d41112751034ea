package handler

import (
	"net/http"

	"resume-smart-go/internal/service"
	"resume-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ResumeHandler 处理简历生成请求。
type ResumeHandler struct {
	resumeService service.ResumeService
}

// NewResumeHandler 创建一个新的 ResumeHandler 实例。
func NewResumeHandler(resumeService service.ResumeService) *ResumeHandler {
	return &ResumeHandler{resumeService: resumeService}
}

// GenerateResumeRequest 定义了简历生成 API 的请求体结构。
type GenerateResumeRequest struct {
	JobDescription string `json:"job_description"`
}

// Generate 根据职位描述和用户已上传的文档生成简历。
func (h *ResumeHandler) Generate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req GenerateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.resumeService.Generate(c.Request.Context(), user.UserID, req.JobDescription)
	if err != nil {
		respondError(c, "ResumeHandler", err)
		return
	}

	log.Infof("[ResumeHandler] 简历生成成功, user_id: %s, sources_used: %d", user.UserID, result.Metadata.SourcesUsed)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Resume generated successfully",
		"data":    result,
	})
}
