package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/handler/websocket"
	"github.com/0pain01/RedisChat/internal/hub"
	redisstate "github.com/0pain01/RedisChat/internal/infra/state/redis"
	"github.com/0pain01/RedisChat/internal/service"
)

func setupServer(t *testing.T) (*httptest.Server, *service.RoomService, *hub.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := service.NewRoomService(
		redisstate.NewRedisRoomRepository(client, "ws:"),
		redisstate.NewRedisBroadcaster(client, "ws:"),
		nil,
	)
	h := hub.NewHub()
	router := gin.New()
	websocket.NewWebSocketHandler(h, svc, "").RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		h.StopAllSubscriptions()
		srv.Close()
	})
	return srv, svc, h
}

func wsURL(srv *httptest.Server, room string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chatrooms/" + room
}

func TestHandleConnection_StreamsNewMessages(t *testing.T) {
	srv, svc, h := setupServer(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateRoom(ctx, "general"))
	_, err := svc.SendMessage(ctx, "general", domain.ChatMessage{Participant: "alice", Message: "before"})
	require.NoError(t, err)

	conn, resp, err := gws.DefaultDialer.Dial(wsURL(srv, "general"), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Eventually(t, func() bool { return h.ClientCount("general") == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = svc.SendMessage(ctx, "general", domain.ChatMessage{Participant: "bob", Message: "after"})
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := domain.DecodeMessage(string(data))
	require.NoError(t, err)
	assert.Equal(t, "bob", msg.Participant)
	assert.Equal(t, "after", msg.Message)
}

func TestHandleConnection_UnknownRoomIs404(t *testing.T) {
	srv, _, h := setupServer(t)

	_, resp, err := gws.DefaultDialer.Dial(wsURL(srv, "missing"), nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, h.ActiveRooms())
}

func TestHandleConnection_DisconnectUnregisters(t *testing.T) {
	srv, svc, h := setupServer(t)
	require.NoError(t, svc.CreateRoom(context.Background(), "general"))

	conn, _, err := gws.DefaultDialer.Dial(wsURL(srv, "general"), nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return h.ClientCount("general") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return h.ClientCount("general") == 0 }, 2*time.Second, 10*time.Millisecond)
}
