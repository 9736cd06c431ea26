package mocks

import (
	context "context"

	model "github.com/dtroode/authflow/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// Transport is a mock type for the Transport type
type Transport struct {
	mock.Mock
}

// Call provides a mock function with given fields: ctx, op
func (_m *Transport) Call(ctx context.Context, op model.Operation) error {
	ret := _m.Called(ctx, op)
	return ret.Error(0)
}

// NewTransport creates a new instance of Transport. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewTransport(t interface {
	mock.TestingT
	Cleanup(func())
}) *Transport {
	m := &Transport{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
