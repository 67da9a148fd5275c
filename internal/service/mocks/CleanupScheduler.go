package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
)

// CleanupScheduler is a mock type for the CleanupScheduler type
type CleanupScheduler struct {
	mock.Mock
}

// ScheduleRoomCleanup provides a mock function with given fields: ctx, name
func (_m *CleanupScheduler) ScheduleRoomCleanup(ctx context.Context, name string) error {
	ret := _m.Called(ctx, name)
	return ret.Error(0)
}
