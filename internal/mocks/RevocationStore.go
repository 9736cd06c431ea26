package mocks

import (
	context "context"
	time "time"

	mock "github.com/stretchr/testify/mock"
)

// RevocationStore is a mock type for the RevocationStore type
type RevocationStore struct {
	mock.Mock
}

// IsRevoked provides a mock function with given fields: ctx, jti
func (_m *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ret := _m.Called(ctx, jti)
	return ret.Bool(0), ret.Error(1)
}

// Revoke provides a mock function with given fields: ctx, jti, until
func (_m *RevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ret := _m.Called(ctx, jti, until)
	return ret.Error(0)
}

// NewRevocationStore creates a new instance of RevocationStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewRevocationStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *RevocationStore {
	m := &RevocationStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
