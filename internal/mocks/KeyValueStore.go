package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
)

// KeyValueStore is a mock type for the KeyValueStore type
type KeyValueStore struct {
	mock.Mock
}

// Delete provides a mock function with given fields: ctx, key
func (_m *KeyValueStore) Delete(ctx context.Context, key string) error {
	ret := _m.Called(ctx, key)
	return ret.Error(0)
}

// Get provides a mock function with given fields: ctx, key
func (_m *KeyValueStore) Get(ctx context.Context, key string) (string, error) {
	ret := _m.Called(ctx, key)
	return ret.String(0), ret.Error(1)
}

// Set provides a mock function with given fields: ctx, key, value
func (_m *KeyValueStore) Set(ctx context.Context, key string, value string) error {
	ret := _m.Called(ctx, key, value)
	return ret.Error(0)
}

// NewKeyValueStore creates a new instance of KeyValueStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewKeyValueStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *KeyValueStore {
	m := &KeyValueStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
