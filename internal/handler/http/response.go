package http

import "github.com/gin-gonic/gin"

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// MessageResponse 返回带 message 和 status 字段的成功响应
func MessageResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message, "status": "success"})
}
