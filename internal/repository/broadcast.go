package repository

import (
	"context"

	"github.com/0pain01/RedisChat/internal/domain"
)

// Broadcaster 负责按房间实时广播新消息。
// 广播是尽力而为的：没有确认、重试，也不为未订阅者保留消息。
type Broadcaster interface {
	// Publish 将消息发布到房间频道，没有订阅者时消息直接丢弃。
	Publish(ctx context.Context, name string, msg domain.ChatMessage) error

	// Subscribe 订阅房间频道。返回时订阅已经生效，之后发布的消息都会被收到。
	// ctx 取消或调用 Subscription.Close 都会解除订阅。
	Subscribe(ctx context.Context, name string) (Subscription, error)
}

// Subscription 是一个可取消的消息流，每个订阅者都拿到每条消息的独立副本。
type Subscription interface {
	// Messages 按发布顺序输出消息，解除订阅后关闭。
	Messages() <-chan domain.ChatMessage
	// Close 解除订阅并释放连接，可重复调用。
	Close() error
}
