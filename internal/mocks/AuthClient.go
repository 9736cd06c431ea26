package mocks

import (
	context "context"

	model "github.com/dtroode/authflow/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// AuthClient is a mock type for the AuthClient type
type AuthClient struct {
	mock.Mock
}

// Login provides a mock function with given fields: ctx, creds
func (_m *AuthClient) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	ret := _m.Called(ctx, creds)
	return ret.Get(0).(model.AuthResult), ret.Error(1)
}

// Logout provides a mock function with given fields: ctx, authToken
func (_m *AuthClient) Logout(ctx context.Context, authToken string) error {
	ret := _m.Called(ctx, authToken)
	return ret.Error(0)
}

// RequestNewCode provides a mock function with given fields: ctx, tempToken
func (_m *AuthClient) RequestNewCode(ctx context.Context, tempToken string) (model.CodeResent, error) {
	ret := _m.Called(ctx, tempToken)
	return ret.Get(0).(model.CodeResent), ret.Error(1)
}

// VerifyTwoFactor provides a mock function with given fields: ctx, tempToken, code
func (_m *AuthClient) VerifyTwoFactor(ctx context.Context, tempToken string, code model.TwoFactorCode) (model.AuthResult, error) {
	ret := _m.Called(ctx, tempToken, code)
	return ret.Get(0).(model.AuthResult), ret.Error(1)
}

// NewAuthClient creates a new instance of AuthClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewAuthClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuthClient {
	m := &AuthClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
