package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/repository"
)

// CleanupScheduler 在房间清理未完成时安排后台重试
type CleanupScheduler interface {
	ScheduleRoomCleanup(ctx context.Context, name string) error
}

// RoomService 将 RoomRepository 和 Broadcaster 组合成 API 层需要的操作。
type RoomService struct {
	roomRepo    repository.RoomRepository
	broadcaster repository.Broadcaster
	cleanup     CleanupScheduler // 可为 nil，此时清理失败只记录日志
	now         func() time.Time
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository, broadcaster repository.Broadcaster, cleanup CleanupScheduler) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if broadcaster == nil {
		panic("Broadcaster cannot be nil for RoomService")
	}
	return &RoomService{
		roomRepo:    roomRepo,
		broadcaster: broadcaster,
		cleanup:     cleanup,
		now:         time.Now,
	}
}

// CreateRoom 创建新房间，同名房间已存在时返回 ErrRoomAlreadyExists。
func (s *RoomService) CreateRoom(ctx context.Context, name string) error {
	if err := requireField("room name", name); err != nil {
		return err
	}
	logCtx := logrus.WithField("room", name)

	created, err := s.roomRepo.CreateRoom(ctx, name)
	if err != nil {
		logCtx.WithError(err).Error("Failed to create room in repository")
		return ErrInternalServer
	}
	if !created {
		logCtx.Info("Room already exists")
		return ErrRoomAlreadyExists
	}
	logCtx.Info("Room created successfully")
	return nil
}

// GetRoom 返回房间元数据。
func (s *RoomService) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	if err := requireField("room name", name); err != nil {
		return nil, err
	}
	room, err := s.roomRepo.GetRoom(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithField("room", name).WithError(err).Error("GetRoom: Repository error")
		return nil, ErrInternalServer
	}
	return room, nil
}

// JoinRoom 将参与者加入房间，重复加入不报错。
func (s *RoomService) JoinRoom(ctx context.Context, name, participant string) error {
	if err := requireField("room name", name); err != nil {
		return err
	}
	if err := requireField("participant", participant); err != nil {
		return err
	}
	logCtx := logrus.WithFields(logrus.Fields{"room": name, "participant": participant})

	if err := s.requireRoom(ctx, name, logCtx); err != nil {
		return err
	}
	if err := s.roomRepo.AddParticipant(ctx, name, participant); err != nil {
		logCtx.WithError(err).Error("Failed to add participant")
		return ErrInternalServer
	}
	logCtx.Info("Participant joined room")
	return nil
}

// ListParticipants 返回房间成员列表。
func (s *RoomService) ListParticipants(ctx context.Context, name string) ([]string, error) {
	if err := requireField("room name", name); err != nil {
		return nil, err
	}
	logCtx := logrus.WithField("room", name)
	if err := s.requireRoom(ctx, name, logCtx); err != nil {
		return nil, err
	}
	participants, err := s.roomRepo.Participants(ctx, name)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list participants")
		return nil, ErrInternalServer
	}
	return participants, nil
}

// SendMessage 先将消息写入历史，成功后再广播。
// 广播失败不影响结果：消息已经持久化，订阅者可以通过历史查询找回。
func (s *RoomService) SendMessage(ctx context.Context, name string, msg domain.ChatMessage) (domain.ChatMessage, error) {
	if err := requireField("room name", name); err != nil {
		return domain.ChatMessage{}, err
	}
	if err := requireField("participant", msg.Participant); err != nil {
		return domain.ChatMessage{}, err
	}
	if err := requireField("message", msg.Message); err != nil {
		return domain.ChatMessage{}, err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}
	logCtx := logrus.WithFields(logrus.Fields{"room": name, "participant": msg.Participant})

	if err := s.requireRoom(ctx, name, logCtx); err != nil {
		return domain.ChatMessage{}, err
	}
	if err := s.roomRepo.AppendMessage(ctx, name, msg); err != nil {
		logCtx.WithError(err).Error("Failed to append message to history")
		return domain.ChatMessage{}, ErrInternalServer
	}
	if err := s.broadcaster.Publish(ctx, name, msg); err != nil {
		logCtx.WithError(err).Warn("Message stored but live broadcast failed")
	} else {
		logCtx.Debug("Message stored and broadcast")
	}
	return msg, nil
}

// GetMessages 返回房间最近的 limit 条消息，旧消息在前。
func (s *RoomService) GetMessages(ctx context.Context, name string, limit int) ([]domain.ChatMessage, error) {
	if err := requireField("room name", name); err != nil {
		return nil, err
	}
	logCtx := logrus.WithFields(logrus.Fields{"room": name, "limit": limit})
	if err := s.requireRoom(ctx, name, logCtx); err != nil {
		return nil, err
	}
	messages, err := s.roomRepo.GetRecentMessages(ctx, name, limit)
	if err != nil {
		logCtx.WithError(err).Error("Failed to read message history")
		return nil, ErrInternalServer
	}
	return messages, nil
}

// DeleteRoom 删除房间及其成员和历史。
// 存在标记删除后房间即对读者不可见；后续清理失败时交给后台任务重试。
func (s *RoomService) DeleteRoom(ctx context.Context, name string) error {
	if err := requireField("room name", name); err != nil {
		return err
	}
	logCtx := logrus.WithField("room", name)
	if err := s.requireRoom(ctx, name, logCtx); err != nil {
		return err
	}

	err := s.roomRepo.DeleteRoom(ctx, name)
	switch {
	case err == nil:
		logCtx.Info("Room deleted successfully")
		return nil
	case errors.Is(err, repository.ErrCleanupIncomplete):
		logCtx.WithError(err).Warn("Room flag removed but cleanup incomplete, scheduling retry")
		s.scheduleCleanup(ctx, name, logCtx)
		return nil
	default:
		logCtx.WithError(err).Error("Failed to delete room")
		return ErrInternalServer
	}
}

// Subscribe 订阅房间的实时消息流，调用方负责关闭返回的 Subscription。
func (s *RoomService) Subscribe(ctx context.Context, name string) (repository.Subscription, error) {
	if err := requireField("room name", name); err != nil {
		return nil, err
	}
	logCtx := logrus.WithField("room", name)
	if err := s.requireRoom(ctx, name, logCtx); err != nil {
		return nil, err
	}
	sub, err := s.broadcaster.Subscribe(ctx, name)
	if err != nil {
		logCtx.WithError(err).Error("Failed to subscribe to room channel")
		return nil, ErrInternalServer
	}
	return sub, nil
}

// --- 私有辅助函数 ---

// requireRoom 确认房间存在，不存在返回 ErrRoomNotFound
func (s *RoomService) requireRoom(ctx context.Context, name string, logCtx *logrus.Entry) error {
	exists, err := s.roomRepo.RoomExists(ctx, name)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check room existence")
		return ErrInternalServer
	}
	if !exists {
		logCtx.Warn("Room not found")
		return ErrRoomNotFound
	}
	return nil
}

func (s *RoomService) scheduleCleanup(ctx context.Context, name string, logCtx *logrus.Entry) {
	if s.cleanup == nil {
		logCtx.Error("No cleanup scheduler configured, room state left behind")
		return
	}
	if err := s.cleanup.ScheduleRoomCleanup(ctx, name); err != nil {
		logCtx.WithError(err).Error("Failed to schedule room cleanup")
	}
}
