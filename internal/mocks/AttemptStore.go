package mocks

import (
	context "context"
	time "time"

	model "github.com/dtroode/authflow/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// AttemptStore is a mock type for the AttemptStore type
type AttemptStore struct {
	mock.Mock
}

// Clear provides a mock function with given fields: ctx, email
func (_m *AttemptStore) Clear(ctx context.Context, email string) error {
	ret := _m.Called(ctx, email)
	return ret.Error(0)
}

// Get provides a mock function with given fields: ctx, email
func (_m *AttemptStore) Get(ctx context.Context, email string) (model.AttemptState, error) {
	ret := _m.Called(ctx, email)
	return ret.Get(0).(model.AttemptState), ret.Error(1)
}

// RecordFailure provides a mock function with given fields: ctx, email, at
func (_m *AttemptStore) RecordFailure(ctx context.Context, email string, at time.Time) (model.AttemptState, error) {
	ret := _m.Called(ctx, email, at)
	return ret.Get(0).(model.AttemptState), ret.Error(1)
}

// NewAttemptStore creates a new instance of AttemptStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewAttemptStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *AttemptStore {
	m := &AttemptStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
