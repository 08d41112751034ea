package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"resume-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录详细的请求和响应日志。
// multipart 请求体是上传的原始文件，不写入日志；用户与认证接口的响应中带有 token，同样不写入。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestBody := ""
		if c.Request.Body != nil && !isMultipart(c.GetHeader("Content-Type")) {
			raw, _ := io.ReadAll(c.Request.Body)
			// 重新设置请求体，以便后续处理函数可以正常读取
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			requestBody = string(raw)
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestBody", requestBody,
			"responseBody", loggableResponse(c.Request.URL.Path, blw.body.String()),
		)
	}
}

// credentialPaths 下的响应体会返回 access token 与 refresh token。
var credentialPaths = []string{"/api/v1/users/", "/api/v1/auth/"}

func loggableResponse(path, body string) string {
	for _, prefix := range credentialPaths {
		if strings.HasPrefix(path, prefix) {
			return "[omitted]"
		}
	}
	return body
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "multipart/")
}
