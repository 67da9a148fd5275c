package redisstate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/repository"
)

const receiveTimeout = 2 * time.Second

func receive(t *testing.T, sub repository.Subscription) domain.ChatMessage {
	t.Helper()
	select {
	case m, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed unexpectedly")
		return m
	case <-time.After(receiveTimeout):
		t.Fatal("timed out waiting for message")
		return domain.ChatMessage{}
	}
}

func assertClosed(t *testing.T, sub repository.Subscription) {
	t.Helper()
	deadline := time.After(receiveTimeout)
	for {
		select {
		case _, ok := <-sub.Messages():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel was not closed")
		}
	}
}

func TestRedisBroadcaster_DeliversToAttachedSubscriber(t *testing.T) {
	_, client := setupRedis(t)
	b := NewRedisBroadcaster(client, "test:")
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "general")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "general", msg("alice", "hi")))

	got := receive(t, sub)
	assert.Equal(t, "alice", got.Participant)
	assert.Equal(t, "hi", got.Message)
}

func TestRedisBroadcaster_NoRetroactiveDelivery(t *testing.T) {
	_, client := setupRedis(t)
	b := NewRedisBroadcaster(client, "test:")
	ctx := context.Background()

	// 没有订阅者时发布不是错误
	require.NoError(t, b.Publish(ctx, "general", msg("alice", "before")))

	sub, err := b.Subscribe(ctx, "general")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "general", msg("alice", "after")))
	assert.Equal(t, "after", receive(t, sub).Message)
}

func TestRedisBroadcaster_FanOutAndOrdering(t *testing.T) {
	_, client := setupRedis(t)
	b := NewRedisBroadcaster(client, "test:")
	ctx := context.Background()

	first, err := b.Subscribe(ctx, "general")
	require.NoError(t, err)
	defer first.Close()
	second, err := b.Subscribe(ctx, "general")
	require.NoError(t, err)
	defer second.Close()
	other, err := b.Subscribe(ctx, "random")
	require.NoError(t, err)
	defer other.Close()

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, b.Publish(ctx, "general", msg("alice", fmt.Sprintf("m%d", i))))
	}

	for _, sub := range []repository.Subscription{first, second} {
		for i := 0; i < n; i++ {
			assert.Equal(t, fmt.Sprintf("m%d", i), receive(t, sub).Message)
		}
	}

	select {
	case m := <-other.Messages():
		t.Fatalf("subscriber of another room got %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisBroadcaster_CloseDetaches(t *testing.T) {
	_, client := setupRedis(t)
	b := NewRedisBroadcaster(client, "test:")
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "general")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	assertClosed(t, sub)
	// 重复关闭是安全的
	_ = sub.Close()

	// 已解除订阅后发布不应受影响
	assert.NoError(t, b.Publish(ctx, "general", msg("alice", "nobody listening")))
}

func TestRedisBroadcaster_ContextCancelDetaches(t *testing.T) {
	_, client := setupRedis(t)
	b := NewRedisBroadcaster(client, "test:")
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := b.Subscribe(ctx, "general")
	require.NoError(t, err)

	cancel()
	assertClosed(t, sub)
}

func TestRedisBroadcaster_DropsUndecodablePayload(t *testing.T) {
	_, client := setupRedis(t)
	b := NewRedisBroadcaster(client, "test:")
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "general")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, client.Publish(ctx, b.keys.roomPubSubChannel("general"), "garbage").Err())
	require.NoError(t, b.Publish(ctx, "general", msg("bob", "valid")))

	assert.Equal(t, "valid", receive(t, sub).Message)
}

func TestRedisBroadcaster_SubscribeFailsWhenStoreDown(t *testing.T) {
	mr, client := setupRedis(t)
	b := NewRedisBroadcaster(client, "test:")
	mr.Close()

	_, err := b.Subscribe(context.Background(), "general")
	assert.Error(t, err)
	assert.Error(t, b.Publish(context.Background(), "general", msg("alice", "hi")))
}
