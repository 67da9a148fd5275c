package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// 定义任务类型常量
const (
	TypeRoomCleanup = "room:cleanup"      // 清理已删除房间的成员集合和历史记录
	TypeOrphanSweep = "room:orphan_sweep" // 周期性扫描遗留的房间数据
)

// cleanupMaxRetry 是房间清理任务的最大重试次数
const cleanupMaxRetry = 10

// RoomCleanupPayload 定义了房间清理任务的数据结构
type RoomCleanupPayload struct {
	Room string `json:"room"`
}

// NewRoomCleanupTask 创建一个新的房间清理任务
func NewRoomCleanupTask(room string) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(RoomCleanupPayload{Room: room})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRoomCleanup, payloadBytes, asynq.MaxRetry(cleanupMaxRetry), asynq.Timeout(30*time.Second)), nil
}

// NewOrphanSweepTask 创建周期性清理任务 (无 payload)
func NewOrphanSweepTask() *asynq.Task {
	return asynq.NewTask(TypeOrphanSweep, nil, asynq.MaxRetry(0))
}

// ParseRoomCleanupPayload 解析房间清理任务的 payload
func ParseRoomCleanupPayload(t *asynq.Task) (RoomCleanupPayload, error) {
	var payload RoomCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal room cleanup payload: %w", err)
	}
	if payload.Room == "" {
		return payload, fmt.Errorf("room cleanup payload has empty room")
	}
	return payload, nil
}

// Enqueuer 抽象了 asynq.Client 的入队能力
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqCleanupScheduler 通过 asynq 安排房间清理任务
type AsynqCleanupScheduler struct {
	client Enqueuer
}

// NewAsynqCleanupScheduler 创建 AsynqCleanupScheduler 实例
func NewAsynqCleanupScheduler(client Enqueuer) *AsynqCleanupScheduler {
	if client == nil {
		panic("asynq client cannot be nil for AsynqCleanupScheduler")
	}
	return &AsynqCleanupScheduler{client: client}
}

// ScheduleRoomCleanup 将房间清理任务放入 default 队列
func (s *AsynqCleanupScheduler) ScheduleRoomCleanup(ctx context.Context, room string) error {
	task, err := NewRoomCleanupTask(room)
	if err != nil {
		return fmt.Errorf("failed to create room cleanup task: %w", err)
	}
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue("default"))
	if err != nil {
		return fmt.Errorf("failed to enqueue room cleanup task for room %q: %w", room, err)
	}
	logrus.WithFields(logrus.Fields{"room": room, "task_id": info.ID}).Info("Room cleanup task enqueued")
	return nil
}
