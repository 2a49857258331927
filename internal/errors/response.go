package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 标准错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`   // 错误码（供前端映射）
	Message string `json:"message"` // 用户可读的中文提示
}

// RespondWithError 错误响应辅助函数
// statusCode: HTTP 状态码
// errorCode: 错误码常量（见 codes.go）
// message: 展示给用户的中文提示
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// 常用错误响应的快捷函数

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "服务器发生错误，请稍后重试"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError 校验错误（可附带逐字段提示）
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"` // 字段级错误提示
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "输入内容不合法",
		Fields:  fields,
	})
}
