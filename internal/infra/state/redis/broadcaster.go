package redisstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/domain"
	"github.com/0pain01/RedisChat/internal/repository"
)

// subscriptionBufferSize 是每个订阅者本地消息通道的缓冲区大小
const subscriptionBufferSize = 64

// RedisBroadcaster 基于 Redis Pub/Sub 实现 Broadcaster
type RedisBroadcaster struct {
	client *redis.Client
	keys   keyspace
}

// NewRedisBroadcaster 创建 RedisBroadcaster 实例
func NewRedisBroadcaster(client *redis.Client, keyPrefix string) *RedisBroadcaster {
	if client == nil {
		panic("redis client cannot be nil for RedisBroadcaster")
	}
	return &RedisBroadcaster{client: client, keys: newKeyspace(keyPrefix)}
}

// Publish 将消息发布到房间频道
func (b *RedisBroadcaster) Publish(ctx context.Context, name string, msg domain.ChatMessage) error {
	channel := b.keys.roomPubSubChannel(name)
	payload, err := domain.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("redis: failed to encode message for publish (room %q): %w", name, err)
	}
	receivers, err := b.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"channel":      channel,
			"payload_size": len(payload),
			"room":         name,
		}).WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish message to channel %s: %w", channel, err)
	}
	logrus.WithFields(logrus.Fields{"channel": channel, "subscribers": receivers}).Debug("Message published")
	return nil
}

// Subscribe 订阅房间频道，等待 Redis 确认订阅后才返回
func (b *RedisBroadcaster) Subscribe(ctx context.Context, name string) (repository.Subscription, error) {
	channel := b.keys.roomPubSubChannel(name)
	subCtx, cancel := context.WithCancel(ctx)

	pubsub := b.client.Subscribe(subCtx, channel)
	// 第一条回复是订阅确认，收到后订阅才真正生效
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: failed to subscribe to channel %s: %w", channel, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		out:    make(chan domain.ChatMessage, subscriptionBufferSize),
		cancel: cancel,
		log:    logrus.WithFields(logrus.Fields{"channel": channel, "room": name}),
	}
	go sub.pump(subCtx, pubsub.Channel())
	sub.log.Debug("Subscription attached")
	return sub, nil
}

// redisSubscription 把 Redis 频道消息解码后转发到本地通道
type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan domain.ChatMessage
	cancel context.CancelFunc
	log    *logrus.Entry

	closeOnce sync.Once
	closeErr  error
}

func (s *redisSubscription) Messages() <-chan domain.ChatMessage {
	return s.out
}

func (s *redisSubscription) Close() error {
	s.cancel()
	return s.closePubSub()
}

func (s *redisSubscription) closePubSub() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.pubsub.Close()
		s.log.Debug("Subscription detached")
	})
	return s.closeErr
}

// pump 在独立的 goroutine 中运行，ctx 取消或 Redis 通道关闭时退出并关闭 out
func (s *redisSubscription) pump(ctx context.Context, in <-chan *redis.Message) {
	defer close(s.out)
	defer func() { _ = s.closePubSub() }()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-in:
			if !ok {
				return
			}
			msg, err := domain.DecodeMessage(raw.Payload)
			if err != nil {
				s.log.WithError(err).Warn("Dropping undecodable pubsub payload")
				continue
			}
			select {
			case s.out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

var _ repository.Broadcaster = (*RedisBroadcaster)(nil)
