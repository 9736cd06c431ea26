package mocks

import (
	context "context"

	model "github.com/dtroode/authflow/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// Authenticator is a mock type for the Authenticator type
type Authenticator struct {
	mock.Mock
}

// Authenticate provides a mock function with given fields: ctx, authToken
func (_m *Authenticator) Authenticate(ctx context.Context, authToken string) (model.User, error) {
	ret := _m.Called(ctx, authToken)
	return ret.Get(0).(model.User), ret.Error(1)
}

// NewAuthenticator creates a new instance of Authenticator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewAuthenticator(t interface {
	mock.TestingT
	Cleanup(func())
}) *Authenticator {
	m := &Authenticator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
