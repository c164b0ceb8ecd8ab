package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/sitehost/internal/domain"
)

// MockDocumentRoots is a mock implementation of out.DocumentRoots.
type MockDocumentRoots struct {
	mock.Mock
}

func (m *MockDocumentRoots) Provision(ctx context.Context, subdomain domain.Subdomain, entries []domain.FileEntry) (string, error) {
	args := m.Called(ctx, subdomain, entries)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentRoots) Deprovision(ctx context.Context, subdomain domain.Subdomain) error {
	args := m.Called(ctx, subdomain)
	return args.Error(0)
}

func (m *MockDocumentRoots) Exists(subdomain domain.Subdomain) (bool, error) {
	args := m.Called(subdomain)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRoots) Path(subdomain domain.Subdomain) string {
	args := m.Called(subdomain)
	return args.String(0)
}

// MockVhostRenderer is a mock implementation of out.VhostRenderer.
type MockVhostRenderer struct {
	mock.Mock
}

func (m *MockVhostRenderer) Render(vhost domain.VirtualHost) (string, error) {
	args := m.Called(vhost)
	return args.String(0), args.Error(1)
}

// MockVhostStore is a mock implementation of out.VhostStore.
type MockVhostStore struct {
	mock.Mock
}

func (m *MockVhostStore) Write(ctx context.Context, name, config string) (string, error) {
	args := m.Called(ctx, name, config)
	return args.String(0), args.Error(1)
}

func (m *MockVhostStore) Remove(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
