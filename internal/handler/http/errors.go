package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/service"
)

// 对外返回的错误文案
const (
	msgRoomNotFound      = "Room does not exist"
	msgRoomAlreadyExists = "Room already exists"
	msgInternalError     = "An unexpected error occurred"
)

// HandleServiceError 将 Service 层的业务错误映射为 HTTP 响应
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		ErrorResponse(c, http.StatusNotFound, msgRoomNotFound)
	case errors.Is(err, service.ErrRoomAlreadyExists):
		ErrorResponse(c, http.StatusBadRequest, msgRoomAlreadyExists)
	default:
		// Log the internal error for debugging
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, msgInternalError)
	}
}
