package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	handlerhttp "github.com/0pain01/RedisChat/internal/handler/http"
	"github.com/0pain01/RedisChat/internal/hub"
	"github.com/0pain01/RedisChat/internal/service"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	hub         *hub.Hub
	roomService *service.RoomService
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// allowedOrigin 为空时接受任意来源。
func NewWebSocketHandler(hub *hub.Hub, roomService *service.RoomService, allowedOrigin string) *WebSocketHandler {
	if hub == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if roomService == nil {
		panic("RoomService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		hub:         hub,
		roomService: roomService,
	}
}

// HandleConnection 处理 WebSocket 连接请求
// URL 预期格式: /ws/chatrooms/{roomId}
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	roomID := c.Param("roomId")
	logCtx := logrus.WithField("room", roomID)

	// 1. 先订阅再升级，房间不存在时还能返回普通的 HTTP 错误。
	// 请求结束后 Request.Context 会被取消，订阅的生命周期由 Client 管理。
	sub, err := h.roomService.Subscribe(context.WithoutCancel(c.Request.Context()), roomID)
	if err != nil {
		logCtx.WithError(err).Warn("WS Handler: Failed to subscribe to room")
		handlerhttp.HandleServiceError(c, err)
		return
	}

	// 2. 升级 HTTP 连接到 WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 会自行写入 HTTP 错误响应
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		_ = sub.Close()
		return
	}

	// 3. 注册并启动客户端
	client := hub.NewClient(h.hub, conn, roomID, sub)
	h.hub.Register(client)
	client.Run()
	logCtx.WithField("client_id", client.ID()).Info("WS Handler: Client subscribed to room stream")
}

// RegisterRoutes 注册 WebSocket 路由
func (h *WebSocketHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws/chatrooms/:roomId", h.HandleConnection)
}
