package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/repository"
)

// OrphanSweepHandler 处理周期性的遗留数据扫描任务。
// 删除房间与并发写入交错时可能留下没有 meta 的历史或成员集合，这里统一清理。
type OrphanSweepHandler struct {
	roomRepo repository.RoomRepository
}

// NewOrphanSweepHandler 创建 Handler 实例
func NewOrphanSweepHandler(roomRepo repository.RoomRepository) *OrphanSweepHandler {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for OrphanSweepHandler")
	}
	return &OrphanSweepHandler{roomRepo: roomRepo}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *OrphanSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	orphans, err := h.roomRepo.ListOrphanedRooms(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list orphaned rooms")
		return err
	}
	if len(orphans) == 0 {
		logCtx.Debug("No orphaned room state found")
		return nil
	}

	failed := 0
	for _, room := range orphans {
		// 列出之后房间可能已被重新创建，由条件清理决定是否删除
		purged, err := h.roomRepo.PurgeRoomStateIfAbsent(ctx, room)
		if err != nil {
			failed++
			logCtx.WithField("room", room).WithError(err).Error("Failed to purge orphaned room state")
			continue
		}
		if !purged {
			logCtx.WithField("room", room).Info("Room was recreated since listing, left untouched")
			continue
		}
		logCtx.WithField("room", room).Info("Purged orphaned room state")
	}
	// 单个房间失败不让整个周期任务失败，下一轮会再次扫描
	if failed > 0 {
		logCtx.Errorf("Orphan sweep completed with %d failures out of %d rooms", failed, len(orphans))
	}
	return nil
}
