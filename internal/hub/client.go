package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/repository"
)

// Client 代表一个订阅了某个房间的 WebSocket 连接。
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	room string
	sub  repository.Subscription
	log  *logrus.Entry

	stopOnce sync.Once
}

// NewClient 创建一个新的 Client 实例，sub 的所有权转移给 Client
func NewClient(hub *Hub, conn *websocket.Conn, room string, sub repository.Subscription) *Client {
	id := uuid.NewString()
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		room: room,
		sub:  sub,
		log:  logrus.WithFields(logrus.Fields{"room": room, "client_id": id}),
	}
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// Stop 释放订阅并关闭连接，可重复调用
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		if err := c.sub.Close(); err != nil {
			c.log.WithError(err).Warn("Failed to close subscription")
		}
		c.hub.Unregister(c)
		c.conn.Close()
		c.log.Info("Client stopped")
	})
}

// readPump 只用于感知对端关闭和处理 pong，客户端发来的数据被丢弃。
func (c *Client) readPump() {
	defer c.Stop()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.log.Debug("WebSocket connection closed")
			}
			return
		}
		c.log.Debugf("Ignoring inbound message of type %d", messageType)
	}
}

// writePump 将订阅收到的消息写入 WebSocket 连接。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Stop()
	}()

	messages := c.sub.Messages()
	for {
		select {
		case msg, ok := <-messages:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 订阅已关闭（房间被删除、Redis 断开或服务关闭）
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			payload, err := domain.EncodeMessage(msg)
			if err != nil {
				c.log.WithError(err).Warn("Dropping message that cannot be encoded")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				c.log.WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

func (c *Client) ID() string   { return c.id }
func (c *Client) Room() string { return c.room }
