// Package mocks provides testify mocks for the input ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/sitehost/internal/domain"
)

// MockProvisioningService is a mock implementation of in.ProvisioningService.
type MockProvisioningService struct {
	mock.Mock
}

func (m *MockProvisioningService) Deploy(ctx context.Context, req domain.DeploymentRequest) (*domain.DeployResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeployResult), args.Error(1)
}

func (m *MockProvisioningService) Delete(ctx context.Context, subdomain string) error {
	args := m.Called(ctx, subdomain)
	return args.Error(0)
}

func (m *MockProvisioningService) Check(ctx context.Context, subdomain string) (*domain.Availability, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *MockProvisioningService) Render(ctx context.Context, subdomain string, backend *domain.BackendProxy) (string, error) {
	args := m.Called(ctx, subdomain, backend)
	return args.String(0), args.Error(1)
}
