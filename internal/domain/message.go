package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMessage 表示编码后的消息无法还原为合法的 ChatMessage。
var ErrInvalidMessage = errors.New("invalid chat message")

// ChatMessage 表示房间中的一条聊天消息，写入历史后不可修改。
type ChatMessage struct {
	Participant string    `json:"participant" binding:"required"` // 发送者标识
	Message     string    `json:"message" binding:"required"`     // 消息文本
	Timestamp   time.Time `json:"timestamp"`                      // 创建时间，为空时由 Service 填充
}

// wireMessage 是历史列表和 Pub/Sub 频道中使用的编码格式。
// 时间戳统一为 UTC 的 ISO-8601 字符串。
type wireMessage struct {
	Participant string `json:"participant"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
}

// EncodeMessage 将 ChatMessage 序列化为存入 Redis 的 JSON 字符串。
func EncodeMessage(msg ChatMessage) (string, error) {
	if msg.Participant == "" || msg.Message == "" {
		return "", fmt.Errorf("%w: participant and message are required", ErrInvalidMessage)
	}
	bytes, err := json.Marshal(wireMessage{
		Participant: msg.Participant,
		Message:     msg.Message,
		Timestamp:   msg.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat message: %w", err)
	}
	return string(bytes), nil
}

// DecodeMessage 将 EncodeMessage 的输出还原为 ChatMessage。
// 缺少 participant/message 或时间戳格式错误都返回 ErrInvalidMessage。
func DecodeMessage(data string) (ChatMessage, error) {
	var wire wireMessage
	if err := json.Unmarshal([]byte(data), &wire); err != nil {
		return ChatMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(wire.Participant) == "" || strings.TrimSpace(wire.Message) == "" {
		return ChatMessage{}, fmt.Errorf("%w: participant and message are required", ErrInvalidMessage)
	}
	msg := ChatMessage{Participant: wire.Participant, Message: wire.Message}
	if wire.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, wire.Timestamp)
		if err != nil {
			return ChatMessage{}, fmt.Errorf("%w: bad timestamp %q: %v", ErrInvalidMessage, wire.Timestamp, err)
		}
		msg.Timestamp = ts
	}
	return msg, nil
}
