package mocks

import (
	context "context"

	domain "github.com/0pain01/RedisChat/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

// RoomRepository 是 repository.RoomRepository 的 testify mock
type RoomRepository struct {
	mock.Mock
}

// CreateRoom provides a mock function with given fields: ctx, name
func (_m *RoomRepository) CreateRoom(ctx context.Context, name string) (bool, error) {
	ret := _m.Called(ctx, name)
	return ret.Bool(0), ret.Error(1)
}

// RoomExists provides a mock function with given fields: ctx, name
func (_m *RoomRepository) RoomExists(ctx context.Context, name string) (bool, error) {
	ret := _m.Called(ctx, name)
	return ret.Bool(0), ret.Error(1)
}

// GetRoom provides a mock function with given fields: ctx, name
func (_m *RoomRepository) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	ret := _m.Called(ctx, name)

	var r0 *domain.Room
	if rf, ok := ret.Get(0).(func(context.Context, string) *domain.Room); ok {
		r0 = rf(ctx, name)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Room)
	}
	return r0, ret.Error(1)
}

// AddParticipant provides a mock function with given fields: ctx, name, participant
func (_m *RoomRepository) AddParticipant(ctx context.Context, name string, participant string) error {
	ret := _m.Called(ctx, name, participant)
	return ret.Error(0)
}

// Participants provides a mock function with given fields: ctx, name
func (_m *RoomRepository) Participants(ctx context.Context, name string) ([]string, error) {
	ret := _m.Called(ctx, name)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

// AppendMessage provides a mock function with given fields: ctx, name, msg
func (_m *RoomRepository) AppendMessage(ctx context.Context, name string, msg domain.ChatMessage) error {
	ret := _m.Called(ctx, name, msg)
	return ret.Error(0)
}

// GetRecentMessages provides a mock function with given fields: ctx, name, limit
func (_m *RoomRepository) GetRecentMessages(ctx context.Context, name string, limit int) ([]domain.ChatMessage, error) {
	ret := _m.Called(ctx, name, limit)

	var r0 []domain.ChatMessage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.ChatMessage)
	}
	return r0, ret.Error(1)
}

// DeleteRoom provides a mock function with given fields: ctx, name
func (_m *RoomRepository) DeleteRoom(ctx context.Context, name string) error {
	ret := _m.Called(ctx, name)
	return ret.Error(0)
}

// PurgeRoomStateIfAbsent provides a mock function with given fields: ctx, name
func (_m *RoomRepository) PurgeRoomStateIfAbsent(ctx context.Context, name string) (bool, error) {
	ret := _m.Called(ctx, name)
	return ret.Bool(0), ret.Error(1)
}

// ListOrphanedRooms provides a mock function with given fields: ctx
func (_m *RoomRepository) ListOrphanedRooms(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}
