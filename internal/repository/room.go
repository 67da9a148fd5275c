package repository

import (
	"context"

	"github.com/0pain01/RedisChat/internal/domain"
)

// RoomRepository 定义了房间、成员和消息历史的存储操作，由 Redis 实现。
// 所有跨请求的协调都依赖存储端的原子操作，实现中不使用进程内锁。
type RoomRepository interface {
	// CreateRoom 原子地创建房间 (条件写入)。
	// 房间已存在时返回 false 且不做任何修改；并发创建同名房间时只有一个调用者得到 true。
	CreateRoom(ctx context.Context, name string) (bool, error)

	// RoomExists 检查房间是否存在。
	RoomExists(ctx context.Context, name string) (bool, error)

	// GetRoom 读取房间元数据，房间不存在时返回 ErrRoomNotFound。
	GetRoom(ctx context.Context, name string) (*domain.Room, error)

	// AddParticipant 将成员加入房间的成员集合，重复加入为 no-op。
	// 调用方应先确认房间存在。
	AddParticipant(ctx context.Context, name, participant string) error

	// Participants 返回房间的全部成员 (按字典序)。
	Participants(ctx context.Context, name string) ([]string, error)

	// AppendMessage 按发送顺序将消息追加到房间历史末尾。
	// 调用方应先确认房间存在。
	AppendMessage(ctx context.Context, name string, msg domain.ChatMessage) error

	// GetRecentMessages 返回最近的 min(limit, 历史长度) 条消息，旧消息在前。
	// limit <= 0 时返回空切片。
	GetRecentMessages(ctx context.Context, name string, limit int) ([]domain.ChatMessage, error)

	// DeleteRoom 先删除房间存在标记，再清理成员集合和历史记录。
	// 删除不存在的房间是 no-op。清理阶段失败时返回包装了 ErrCleanupIncomplete 的错误。
	DeleteRoom(ctx context.Context, name string) error

	// PurgeRoomStateIfAbsent 在房间存在标记不存在时删除其成员集合和历史记录。
	// 检查和删除是一次原子操作：房间被重新创建时不删除任何数据并返回 false。
	PurgeRoomStateIfAbsent(ctx context.Context, name string) (bool, error)

	// ListOrphanedRooms 返回仍有成员集合或历史记录、但存在标记已不存在的房间名。
	// 用于后台清理删除过程中遗留的数据。
	ListOrphanedRooms(ctx context.Context) ([]string, error)
}
