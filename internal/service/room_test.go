package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/repository"
	"github.com/0pain01/RedisChat/internal/repository/mocks"
	"github.com/0pain01/RedisChat/internal/service"
	servicemocks "github.com/0pain01/RedisChat/internal/service/mocks"
)

var errRedisDown = errors.New("dial tcp: connection refused")

func newService() (*service.RoomService, *mocks.RoomRepository, *mocks.Broadcaster, *servicemocks.CleanupScheduler) {
	repo := new(mocks.RoomRepository)
	broadcaster := new(mocks.Broadcaster)
	cleanup := new(servicemocks.CleanupScheduler)
	return service.NewRoomService(repo, broadcaster, cleanup), repo, broadcaster, cleanup
}

// --- CreateRoom ---

func TestRoomService_CreateRoom_Success(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("CreateRoom", ctx, "general").Return(true, nil).Once()

	err := svc.CreateRoom(ctx, "general")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_AlreadyExists(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("CreateRoom", ctx, "general").Return(false, nil).Once()

	err := svc.CreateRoom(ctx, "general")

	assert.ErrorIs(t, err, service.ErrRoomAlreadyExists)
	repo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_BlankNameNeverTouchesStore(t *testing.T) {
	svc, repo, _, _ := newService()

	err := svc.CreateRoom(context.Background(), "   ")

	assert.ErrorIs(t, err, service.ErrInvalidInput)
	repo.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything)
}

func TestRoomService_CreateRoom_StoreFailure(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("CreateRoom", ctx, "general").Return(false, errRedisDown).Once()

	err := svc.CreateRoom(ctx, "general")

	assert.ErrorIs(t, err, service.ErrInternalServer)
}

// --- GetRoom ---

func TestRoomService_GetRoom(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.On("GetRoom", ctx, "general").Return(&domain.Room{Name: "general", CreatedAt: created}, nil).Once()
	repo.On("GetRoom", ctx, "ghost").Return(nil, repository.ErrRoomNotFound).Once()

	room, err := svc.GetRoom(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, created, room.CreatedAt)

	_, err = svc.GetRoom(ctx, "ghost")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}

// --- JoinRoom ---

func TestRoomService_JoinRoom_Success(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("AddParticipant", ctx, "general", "alice").Return(nil).Once()

	assert.NoError(t, svc.JoinRoom(ctx, "general", "alice"))
	repo.AssertExpectations(t)
}

func TestRoomService_JoinRoom_Validation(t *testing.T) {
	svc, repo, _, _ := newService()

	err := svc.JoinRoom(context.Background(), "general", "")

	assert.ErrorIs(t, err, service.ErrInvalidInput)
	repo.AssertNotCalled(t, "RoomExists", mock.Anything, mock.Anything)
}

// --- SendMessage ---

func TestRoomService_SendMessage_AppendsThenPublishes(t *testing.T) {
	svc, repo, broadcaster, _ := newService()
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	msg := domain.ChatMessage{Participant: "alice", Message: "hi", Timestamp: ts}

	var order []string
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("AppendMessage", ctx, "general", msg).
		Run(func(mock.Arguments) { order = append(order, "append") }).
		Return(nil).Once()
	broadcaster.On("Publish", ctx, "general", msg).
		Run(func(mock.Arguments) { order = append(order, "publish") }).
		Return(nil).Once()

	sent, err := svc.SendMessage(ctx, "general", msg)

	require.NoError(t, err)
	assert.Equal(t, msg, sent)
	assert.Equal(t, []string{"append", "publish"}, order)
	repo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestRoomService_SendMessage_FillsMissingTimestamp(t *testing.T) {
	svc, repo, broadcaster, _ := newService()
	ctx := context.Background()
	before := time.Now().UTC()

	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("AppendMessage", ctx, "general", mock.MatchedBy(func(m domain.ChatMessage) bool {
		return !m.Timestamp.IsZero()
	})).Return(nil).Once()
	broadcaster.On("Publish", ctx, "general", mock.AnythingOfType("domain.ChatMessage")).Return(nil).Once()

	sent, err := svc.SendMessage(ctx, "general", domain.ChatMessage{Participant: "alice", Message: "hi"})

	require.NoError(t, err)
	assert.False(t, sent.Timestamp.Before(before))
	assert.Equal(t, time.UTC, sent.Timestamp.Location())
	repo.AssertExpectations(t)
}

func TestRoomService_SendMessage_RoomNotFoundNoMutation(t *testing.T) {
	svc, repo, broadcaster, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "ghost").Return(false, nil).Once()

	_, err := svc.SendMessage(ctx, "ghost", domain.ChatMessage{Participant: "alice", Message: "hi"})

	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	repo.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
	broadcaster.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_SendMessage_AppendFailureSkipsPublish(t *testing.T) {
	svc, repo, broadcaster, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("AppendMessage", ctx, "general", mock.Anything).Return(errRedisDown).Once()

	_, err := svc.SendMessage(ctx, "general", domain.ChatMessage{Participant: "alice", Message: "hi"})

	assert.ErrorIs(t, err, service.ErrInternalServer)
	broadcaster.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_SendMessage_PublishFailureIsNotFatal(t *testing.T) {
	svc, repo, broadcaster, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("AppendMessage", ctx, "general", mock.Anything).Return(nil).Once()
	broadcaster.On("Publish", ctx, "general", mock.Anything).Return(errRedisDown).Once()

	_, err := svc.SendMessage(ctx, "general", domain.ChatMessage{Participant: "alice", Message: "hi"})

	assert.NoError(t, err)
}

func TestRoomService_SendMessage_Validation(t *testing.T) {
	svc, repo, _, _ := newService()
	cases := []domain.ChatMessage{
		{Message: "hi"},
		{Participant: "alice"},
		{Participant: " ", Message: "hi"},
	}
	for _, msg := range cases {
		_, err := svc.SendMessage(context.Background(), "general", msg)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	}
	repo.AssertNotCalled(t, "RoomExists", mock.Anything, mock.Anything)
}

// --- GetMessages ---

func TestRoomService_GetMessages(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	history := []domain.ChatMessage{{Participant: "bob", Message: "hello"}}
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("GetRecentMessages", ctx, "general", 1).Return(history, nil).Once()

	got, err := svc.GetMessages(ctx, "general", 1)

	require.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestRoomService_GetMessages_RoomNotFound(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "ghost").Return(false, nil).Once()

	_, err := svc.GetMessages(ctx, "ghost", 10)

	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	repo.AssertNotCalled(t, "GetRecentMessages", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_GetMessages_ExistenceCheckFails(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(false, errRedisDown).Once()

	_, err := svc.GetMessages(ctx, "general", 10)

	assert.ErrorIs(t, err, service.ErrInternalServer)
}

// --- DeleteRoom ---

func TestRoomService_DeleteRoom_Success(t *testing.T) {
	svc, repo, _, cleanup := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("DeleteRoom", ctx, "general").Return(nil).Once()

	assert.NoError(t, svc.DeleteRoom(ctx, "general"))
	cleanup.AssertNotCalled(t, "ScheduleRoomCleanup", mock.Anything, mock.Anything)
}

func TestRoomService_DeleteRoom_NotFound(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "ghost").Return(false, nil).Once()

	assert.ErrorIs(t, svc.DeleteRoom(ctx, "ghost"), service.ErrRoomNotFound)
	repo.AssertNotCalled(t, "DeleteRoom", mock.Anything, mock.Anything)
}

func TestRoomService_DeleteRoom_IncompleteCleanupIsScheduled(t *testing.T) {
	svc, repo, _, cleanup := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("DeleteRoom", ctx, "general").Return(repository.ErrCleanupIncomplete).Once()
	cleanup.On("ScheduleRoomCleanup", ctx, "general").Return(nil).Once()

	assert.NoError(t, svc.DeleteRoom(ctx, "general"))
	cleanup.AssertExpectations(t)
}

func TestRoomService_DeleteRoom_FlagRemovalFails(t *testing.T) {
	svc, repo, _, cleanup := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("DeleteRoom", ctx, "general").Return(errRedisDown).Once()

	assert.ErrorIs(t, svc.DeleteRoom(ctx, "general"), service.ErrInternalServer)
	cleanup.AssertNotCalled(t, "ScheduleRoomCleanup", mock.Anything, mock.Anything)
}

func TestRoomService_DeleteRoom_NilSchedulerStillSucceeds(t *testing.T) {
	repo := new(mocks.RoomRepository)
	svc := service.NewRoomService(repo, new(mocks.Broadcaster), nil)
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("DeleteRoom", ctx, "general").Return(repository.ErrCleanupIncomplete).Once()

	assert.NoError(t, svc.DeleteRoom(ctx, "general"))
}

// --- Subscribe / ListParticipants ---

func TestRoomService_Subscribe(t *testing.T) {
	svc, repo, broadcaster, _ := newService()
	ctx := context.Background()
	sub := mocks.NewSubscription(1)
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("RoomExists", ctx, "ghost").Return(false, nil).Once()
	broadcaster.On("Subscribe", ctx, "general").Return(sub, nil).Once()

	got, err := svc.Subscribe(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	_, err = svc.Subscribe(ctx, "ghost")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	broadcaster.AssertNumberOfCalls(t, "Subscribe", 1)
}

func TestRoomService_ListParticipants(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()
	repo.On("RoomExists", ctx, "general").Return(true, nil).Once()
	repo.On("Participants", ctx, "general").Return([]string{"alice", "bob"}, nil).Once()

	got, err := svc.ListParticipants(ctx, "general")

	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got)
}
