package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/repository"
	"github.com/0pain01/RedisChat/internal/tasks"
)

// RoomCleanupHandler 处理房间清理任务
type RoomCleanupHandler struct {
	roomRepo repository.RoomRepository
}

// NewRoomCleanupHandler 创建 Handler 实例
func NewRoomCleanupHandler(roomRepo repository.RoomRepository) *RoomCleanupHandler {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomCleanupHandler")
	}
	return &RoomCleanupHandler{roomRepo: roomRepo}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *RoomCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})

	payload, err := tasks.ParseRoomCleanupPayload(t)
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithField("room", payload.Room)

	// 房间在清理前被重新创建时，残留数据已属于新房间，不能删除
	purged, err := h.roomRepo.PurgeRoomStateIfAbsent(ctx, payload.Room)
	if err != nil {
		logCtx.WithError(err).Warn("Room cleanup failed, will retry")
		return err
	}
	if !purged {
		logCtx.Info("Room was recreated before cleanup ran, skipping")
		return nil
	}
	logCtx.Info("Room cleanup task processed successfully")
	return nil
}
