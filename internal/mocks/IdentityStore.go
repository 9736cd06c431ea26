package mocks

import (
	context "context"

	model "github.com/dtroode/authflow/internal/model"
	mock "github.com/stretchr/testify/mock"

	uuid "github.com/google/uuid"
)

// IdentityStore is a mock type for the IdentityStore type
type IdentityStore struct {
	mock.Mock
}

// GetByEmail provides a mock function with given fields: ctx, email
func (_m *IdentityStore) GetByEmail(ctx context.Context, email string) (model.Identity, error) {
	ret := _m.Called(ctx, email)

	var r0 model.Identity
	if rf, ok := ret.Get(0).(func(context.Context, string) model.Identity); ok {
		r0 = rf(ctx, email)
	} else {
		r0 = ret.Get(0).(model.Identity)
	}

	return r0, ret.Error(1)
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *IdentityStore) GetByID(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	ret := _m.Called(ctx, id)

	var r0 model.Identity
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) model.Identity); ok {
		r0 = rf(ctx, id)
	} else {
		r0 = ret.Get(0).(model.Identity)
	}

	return r0, ret.Error(1)
}

// NewIdentityStore creates a new instance of IdentityStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewIdentityStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *IdentityStore {
	m := &IdentityStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
