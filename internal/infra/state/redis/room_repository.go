package redisstate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/repository"
)

const (
	// createdAtField 是房间 meta hash 中记录创建时间 (unix 毫秒) 的字段
	createdAtField = "createdAt"
	// purgeMaxAttempts 是条件清理在 WATCH 冲突时的最大尝试次数
	purgeMaxAttempts = 5
)

// RedisRoomRepository 是 RoomRepository 接口的 Redis 实现
type RedisRoomRepository struct {
	client *redis.Client
	keys   keyspace
	now    func() time.Time

	// beforePurgeExec 在条件清理确认房间不存在之后、EXEC 之前调用，测试用
	beforePurgeExec func()
}

// NewRedisRoomRepository 创建 RedisRoomRepository 实例
func NewRedisRoomRepository(client *redis.Client, keyPrefix string) *RedisRoomRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisRoomRepository")
	}
	return &RedisRoomRepository{
		client: client,
		keys:   newKeyspace(keyPrefix),
		now:    time.Now,
	}
}

// CreateRoom 使用 HSETNX 原子地写入房间的创建时间。
// 字段已存在 (房间已存在) 时 HSETNX 不写入并返回 false，检查和写入之间没有竞争窗口。
func (r *RedisRoomRepository) CreateRoom(ctx context.Context, name string) (bool, error) {
	key := r.keys.roomMetaKey(name)
	created, err := r.client.HSetNX(ctx, key, createdAtField, r.now().UnixMilli()).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to create room %q on key %s: %w", name, key, err)
	}
	return created, nil
}

// RoomExists 检查房间 meta key 是否存在
func (r *RedisRoomRepository) RoomExists(ctx context.Context, name string) (bool, error) {
	key := r.keys.roomMetaKey(name)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check existence of room %q on key %s: %w", name, key, err)
	}
	return n > 0, nil
}

// GetRoom 读取房间元数据
func (r *RedisRoomRepository) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	key := r.keys.roomMetaKey(name)
	raw, err := r.client.HGet(ctx, key, createdAtField).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("redis: failed to get room %q from %s: %w", name, key, err)
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse createdAt '%s' for room %q: %w", raw, name, err)
	}
	return &domain.Room{Name: name, CreatedAt: time.UnixMilli(millis).UTC()}, nil
}

// AddParticipant 使用 SADD 将成员加入集合，重复成员不会被重复添加
func (r *RedisRoomRepository) AddParticipant(ctx context.Context, name, participant string) error {
	key := r.keys.roomParticipantsKey(name)
	if err := r.client.SAdd(ctx, key, participant).Err(); err != nil {
		return fmt.Errorf("redis: failed to add participant %q to room %q on key %s: %w", participant, name, key, err)
	}
	return nil
}

// Participants 返回房间成员，按字典序排序以保证输出稳定
func (r *RedisRoomRepository) Participants(ctx context.Context, name string) ([]string, error) {
	key := r.keys.roomParticipantsKey(name)
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to get participants of room %q from %s: %w", name, key, err)
	}
	sort.Strings(members)
	return members, nil
}

// AppendMessage 编码消息后 RPUSH 到历史列表末尾
func (r *RedisRoomRepository) AppendMessage(ctx context.Context, name string, msg domain.ChatMessage) error {
	key := r.keys.roomMessagesKey(name)
	encoded, err := domain.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("redis: failed to encode message for room %q: %w", name, err)
	}
	if err := r.client.RPush(ctx, key, encoded).Err(); err != nil {
		return fmt.Errorf("redis: failed to append message to room %q on key %s: %w", name, key, err)
	}
	return nil
}

// GetRecentMessages 使用 LRANGE -limit -1 读取历史末尾的消息。
// 列表本身就是旧消息在前，因此结果保持原顺序，不做反转。
// 无法解码的条目会被跳过并记录警告，不影响相邻条目。
func (r *RedisRoomRepository) GetRecentMessages(ctx context.Context, name string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}
	key := r.keys.roomMessagesKey(name)
	entries, err := r.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to get recent messages for room %q from %s: %w", name, key, err)
	}
	messages := make([]domain.ChatMessage, 0, len(entries))
	for i, entry := range entries {
		msg, err := domain.DecodeMessage(entry)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"room":  name,
				"index": i,
			}).WithError(err).Warn("redis: skipping undecodable history entry")
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// DeleteRoom 先删除存在标记，使并发读取尽快看到房间已删除，再清理成员和历史。
// 两步之间房间被重新创建时，新房间的数据保持不动。
func (r *RedisRoomRepository) DeleteRoom(ctx context.Context, name string) error {
	metaKey := r.keys.roomMetaKey(name)
	if err := r.client.Del(ctx, metaKey).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete room flag %s: %w", metaKey, err)
	}
	if _, err := r.PurgeRoomStateIfAbsent(ctx, name); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrCleanupIncomplete, err)
	}
	return nil
}

// PurgeRoomStateIfAbsent 用 WATCH meta + MULTI/EXEC 删除成员集合和历史列表。
// EXISTS 之后 meta 被写入 (房间重新创建) 时 EXEC 失败，重试时看到房间存在便放弃删除。
func (r *RedisRoomRepository) PurgeRoomStateIfAbsent(ctx context.Context, name string) (bool, error) {
	metaKey := r.keys.roomMetaKey(name)
	participantsKey := r.keys.roomParticipantsKey(name)
	messagesKey := r.keys.roomMessagesKey(name)

	purged := false
	txf := func(tx *redis.Tx) error {
		purged = false
		n, err := tx.Exists(ctx, metaKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if r.beforePurgeExec != nil {
			r.beforePurgeExec()
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, participantsKey, messagesKey)
			return nil
		})
		if err != nil {
			return err
		}
		purged = true
		return nil
	}

	for attempt := 0; attempt < purgeMaxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, metaKey)
		if err == nil {
			return purged, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("redis: failed to purge state of room %q (%s, %s): %w", name, participantsKey, messagesKey, err)
	}
	return false, fmt.Errorf("redis: failed to purge state of room %q: meta key %s kept changing", name, metaKey)
}

// ListOrphanedRooms 使用 SCAN 遍历房间 key，找出 meta 已删除但仍有残留数据的房间
func (r *RedisRoomRepository) ListOrphanedRooms(ctx context.Context) ([]string, error) {
	candidates := make(map[string]struct{})
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.keys.roomKeyPattern(), 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: failed to scan room keys: %w", err)
		}
		for _, key := range keys {
			if name, ok := r.keys.roomNameFromStateKey(key); ok {
				candidates[name] = struct{}{}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	orphans := make([]string, 0)
	for name := range candidates {
		exists, err := r.RoomExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

var _ repository.RoomRepository = (*RedisRoomRepository)(nil)
