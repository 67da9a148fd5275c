package mocks

import (
	"sync"

	domain "github.com/0pain01/RedisChat/internal/domain"
)

// Subscription 是一个由测试直接驱动的内存订阅
type Subscription struct {
	C chan domain.ChatMessage

	once   sync.Once
	mu     sync.Mutex
	closed bool
}

// NewSubscription 创建带缓冲的内存订阅
func NewSubscription(buffer int) *Subscription {
	return &Subscription{C: make(chan domain.ChatMessage, buffer)}
}

func (s *Subscription) Messages() <-chan domain.ChatMessage {
	return s.C
}

func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.C)
	})
	return nil
}

// IsClosed 报告 Close 是否已被调用
func (s *Subscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
