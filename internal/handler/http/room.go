package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/service"
)

const defaultHistoryLimit = 10

// RoomHandler 封装了与聊天室相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

// CreateRoomRequest 定义创建房间请求的结构体
type CreateRoomRequest struct {
	RoomName string `json:"roomName" binding:"required"`
}

// CreateRoomResponse 定义创建房间成功的响应结构体
type CreateRoomResponse struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
	Status  string `json:"status"`
}

// JoinRoomRequest 定义加入房间请求的结构体
type JoinRoomRequest struct {
	Participant string `json:"participant" binding:"required"`
}

// MessagesResponse 定义历史消息响应
type MessagesResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// ParticipantsResponse 定义成员列表响应
type ParticipantsResponse struct {
	RoomID       string   `json:"roomId"`
	Participants []string `json:"participants"`
}

// CreateRoom 处理创建新房间的请求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateRoom: Invalid request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: roomName is required")
		return
	}

	if err := h.roomService.CreateRoom(c.Request.Context(), req.RoomName); err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, CreateRoomResponse{
		Message: fmt.Sprintf("Chat room '%s' created successfully.", req.RoomName),
		RoomID:  req.RoomName,
		Status:  "success",
	})
}

// GetRoom 返回房间信息
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomService.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

// JoinRoom 处理加入房间的请求
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).WithField("room", roomID).Warn("Handler.JoinRoom: Invalid request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: participant is required")
		return
	}

	if err := h.roomService.JoinRoom(c.Request.Context(), roomID, req.Participant); err != nil {
		HandleServiceError(c, err)
		return
	}
	MessageResponse(c, http.StatusOK, fmt.Sprintf("User '%s' joined chat room '%s'.", req.Participant, roomID))
}

// ListParticipants 返回房间成员
func (h *RoomHandler) ListParticipants(c *gin.Context) {
	roomID := c.Param("roomId")
	participants, err := h.roomService.ListParticipants(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if participants == nil {
		participants = []string{}
	}
	SuccessResponse(c, http.StatusOK, ParticipantsResponse{RoomID: roomID, Participants: participants})
}

// SendMessage 处理发送消息的请求，timestamp 可省略
func (h *RoomHandler) SendMessage(c *gin.Context) {
	roomID := c.Param("roomId")
	var msg domain.ChatMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		logrus.WithError(err).WithField("room", roomID).Warn("Handler.SendMessage: Invalid request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: participant and message are required")
		return
	}

	if _, err := h.roomService.SendMessage(c.Request.Context(), roomID, msg); err != nil {
		HandleServiceError(c, err)
		return
	}
	MessageResponse(c, http.StatusOK, "Message sent successfully.")
}

// GetMessages 返回最近的历史消息，limit 默认 10
func (h *RoomHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("roomId")
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	messages, err := h.roomService.GetMessages(c.Request.Context(), roomID, limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	SuccessResponse(c, http.StatusOK, MessagesResponse{Messages: messages})
}

// DeleteRoom 删除房间
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	if err := h.roomService.DeleteRoom(c.Request.Context(), roomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	MessageResponse(c, http.StatusOK, fmt.Sprintf("Chat room '%s' deleted successfully.", roomID))
}

// RegisterRoutes 注册聊天室相关路由
func (h *RoomHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.CreateRoom)
	group.GET("/:roomId", h.GetRoom)
	group.POST("/:roomId/join", h.JoinRoom)
	group.GET("/:roomId/participants", h.ListParticipants)
	group.POST("/:roomId/messages", h.SendMessage)
	group.GET("/:roomId/messages", h.GetMessages)
	group.DELETE("/:roomId", h.DeleteRoom)
}
