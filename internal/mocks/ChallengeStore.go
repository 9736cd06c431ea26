package mocks

import (
	context "context"

	model "github.com/dtroode/authflow/internal/model"
	mock "github.com/stretchr/testify/mock"

	uuid "github.com/google/uuid"
)

// ChallengeStore is a mock type for the ChallengeStore type
type ChallengeStore struct {
	mock.Mock
}

// Consume provides a mock function with given fields: ctx, id
func (_m *ChallengeStore) Consume(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// Create provides a mock function with given fields: ctx, challenge
func (_m *ChallengeStore) Create(ctx context.Context, challenge model.Challenge) error {
	ret := _m.Called(ctx, challenge)
	return ret.Error(0)
}

// Get provides a mock function with given fields: ctx, id
func (_m *ChallengeStore) Get(ctx context.Context, id uuid.UUID) (model.Challenge, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.Challenge), ret.Error(1)
}

// Update provides a mock function with given fields: ctx, challenge
func (_m *ChallengeStore) Update(ctx context.Context, challenge model.Challenge) error {
	ret := _m.Called(ctx, challenge)
	return ret.Error(0)
}

// NewChallengeStore creates a new instance of ChallengeStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewChallengeStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *ChallengeStore {
	m := &ChallengeStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
