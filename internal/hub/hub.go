package hub

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Hub 维护每个房间当前在线的 WebSocket 客户端。
// 消息分发由每个客户端自己的订阅完成，Hub 只负责登记和关闭。
type Hub struct {
	// map[roomName]map[*Client]bool
	rooms   map[string]map[*Client]bool
	roomsMu sync.RWMutex
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
	}
}

// Register 将客户端加入其房间
func (h *Hub) Register(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room":      client.Room(),
		"client_id": client.ID(),
	})

	h.roomsMu.Lock()
	if _, ok := h.rooms[client.Room()]; !ok {
		h.rooms[client.Room()] = make(map[*Client]bool)
		logCtx.Debug("Client list created for room")
	}
	h.rooms[client.Room()][client] = true
	h.roomsMu.Unlock()
	logCtx.Info("Client registered to Hub")
}

// Unregister 将客户端移出其房间，重复调用无副作用
func (h *Hub) Unregister(client *Client) {
	if client == nil {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room":      client.Room(),
		"client_id": client.ID(),
	})

	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	roomClients, ok := h.rooms[client.Room()]
	if !ok {
		return
	}
	if _, exists := roomClients[client]; !exists {
		return
	}
	delete(roomClients, client)
	if len(roomClients) == 0 {
		delete(h.rooms, client.Room())
		logCtx.Debug("Room empty, removed from Hub")
	}
	logCtx.Info("Client unregistered from Hub")
}

// ClientCount 返回房间当前的在线客户端数量
func (h *Hub) ClientCount(room string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms[room])
}

// ActiveRooms 返回至少有一个在线客户端的房间，按名称排序
func (h *Hub) ActiveRooms() []string {
	h.roomsMu.RLock()
	rooms := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.roomsMu.RUnlock()
	sort.Strings(rooms)
	return rooms
}

// StopAllSubscriptions 关闭所有客户端，用于服务关闭时
func (h *Hub) StopAllSubscriptions() {
	h.roomsMu.RLock()
	clients := make([]*Client, 0)
	for _, roomClients := range h.rooms {
		for client := range roomClients {
			clients = append(clients, client)
		}
	}
	h.roomsMu.RUnlock()

	// Stop 会回调 Unregister，必须在释放锁之后调用
	for _, client := range clients {
		client.Stop()
	}
	logrus.WithField("client_count", len(clients)).Info("Hub: All subscriptions stopped")
}
