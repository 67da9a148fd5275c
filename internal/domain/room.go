package domain

import "time"

// Room 表示一个聊天室。房间名即房间标识，区分大小写。
type Room struct {
	Name      string    `json:"roomId"`    // 房间名 (唯一)
	CreatedAt time.Time `json:"createdAt"` // 房间创建时间，写入 Redis meta hash
}
