// Package mocks provides testify mocks for the output ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/sitehost/internal/domain"
)

// MockProjectRegistry is a mock implementation of out.ProjectRegistry.
type MockProjectRegistry struct {
	mock.Mock
}

func (m *MockProjectRegistry) EnsureProject(ctx context.Context, projectID, subdomain string) error {
	args := m.Called(ctx, projectID, subdomain)
	return args.Error(0)
}

func (m *MockProjectRegistry) GetProject(ctx context.Context, projectID string) (*domain.SiteRecord, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SiteRecord), args.Error(1)
}

func (m *MockProjectRegistry) FindBySubdomain(ctx context.Context, subdomain string) (*domain.SiteRecord, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SiteRecord), args.Error(1)
}

func (m *MockProjectRegistry) UpdateStatus(ctx context.Context, projectID string, status domain.SiteStatus, url string) error {
	args := m.Called(ctx, projectID, status, url)
	return args.Error(0)
}
