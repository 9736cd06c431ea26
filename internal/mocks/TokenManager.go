package mocks

import (
	time "time"

	model "github.com/dtroode/authflow/internal/model"
	mock "github.com/stretchr/testify/mock"

	uuid "github.com/google/uuid"
)

// TokenManager is a mock type for the TokenManager type
type TokenManager struct {
	mock.Mock
}

// GenerateAuthToken provides a mock function with given fields: userID
func (_m *TokenManager) GenerateAuthToken(userID uuid.UUID) (string, model.TokenClaims, error) {
	ret := _m.Called(userID)
	return ret.String(0), ret.Get(1).(model.TokenClaims), ret.Error(2)
}

// GenerateTempToken provides a mock function with given fields: userID, challengeID, issuedAt
func (_m *TokenManager) GenerateTempToken(userID uuid.UUID, challengeID uuid.UUID, issuedAt time.Time) (string, error) {
	ret := _m.Called(userID, challengeID, issuedAt)
	return ret.String(0), ret.Error(1)
}

// ParseAuthToken provides a mock function with given fields: token
func (_m *TokenManager) ParseAuthToken(token string) (model.TokenClaims, error) {
	ret := _m.Called(token)
	return ret.Get(0).(model.TokenClaims), ret.Error(1)
}

// ParseTempToken provides a mock function with given fields: token
func (_m *TokenManager) ParseTempToken(token string) (model.TokenClaims, error) {
	ret := _m.Called(token)
	return ret.Get(0).(model.TokenClaims), ret.Error(1)
}

// NewTokenManager creates a new instance of TokenManager. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
