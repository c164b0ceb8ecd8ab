package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockServerControl is a mock implementation of out.ServerControl.
type MockServerControl struct {
	mock.Mock
}

func (m *MockServerControl) Name() string {
	return "mock"
}

func (m *MockServerControl) Enable(ctx context.Context, site string) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockServerControl) Disable(ctx context.Context, site string) (bool, error) {
	args := m.Called(ctx, site)
	return args.Bool(0), args.Error(1)
}

func (m *MockServerControl) ValidateConfig(ctx context.Context) (bool, string, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockServerControl) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockServerControl) SetOwnership(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
