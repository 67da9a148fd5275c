package mocks

import (
	context "context"

	domain "github.com/0pain01/RedisChat/internal/domain"
	repository "github.com/0pain01/RedisChat/internal/repository"
	mock "github.com/stretchr/testify/mock"
)

// Broadcaster is a mock type for the Broadcaster type
type Broadcaster struct {
	mock.Mock
}

// Publish provides a mock function with given fields: ctx, name, msg
func (_m *Broadcaster) Publish(ctx context.Context, name string, msg domain.ChatMessage) error {
	ret := _m.Called(ctx, name, msg)
	return ret.Error(0)
}

// Subscribe provides a mock function with given fields: ctx, name
func (_m *Broadcaster) Subscribe(ctx context.Context, name string) (repository.Subscription, error) {
	ret := _m.Called(ctx, name)

	var r0 repository.Subscription
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(repository.Subscription)
	}
	return r0, ret.Error(1)
}
