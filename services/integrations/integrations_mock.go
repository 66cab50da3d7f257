package integrations

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"fitbackend/models"
)

// MockIntegrationsService is a mock implementation of the IntegrationsService interface
type MockIntegrationsService struct {
	mock.Mock
}

func (m *MockIntegrationsService) GetAuthorizationURL(provider models.ProviderType, userID string) (string, error) {
	args := m.Called(provider, userID)
	return args.String(0), args.Error(1)
}

func (m *MockIntegrationsService) CreateOrReconnectIntegration(
	ctx context.Context,
	userID string,
	provider models.ProviderType,
	code, state string,
) (*models.Integration, error) {
	args := m.Called(ctx, userID, provider, code, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Integration), args.Error(1)
}

func (m *MockIntegrationsService) GetIntegrationsByUserID(
	ctx context.Context,
	userID string,
) ([]*models.Integration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Integration), args.Error(1)
}

func (m *MockIntegrationsService) GetIntegrationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Integration], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Integration]), args.Error(1)
}

func (m *MockIntegrationsService) GetIntegrationByProviderExternalUserID(
	ctx context.Context,
	provider models.ProviderType,
	externalUserID string,
) (mo.Option[*models.Integration], error) {
	args := m.Called(ctx, provider, externalUserID)
	return args.Get(0).(mo.Option[*models.Integration]), args.Error(1)
}

func (m *MockIntegrationsService) RevokeIntegration(ctx context.Context, userID, integrationID string) error {
	args := m.Called(ctx, userID, integrationID)
	return args.Error(0)
}

func (m *MockIntegrationsService) UpdateIntegrationTokens(
	ctx context.Context,
	id string,
	accessToken string,
	refreshToken *string,
	tokenExpiresAt *time.Time,
) error {
	args := m.Called(ctx, id, accessToken, refreshToken, tokenExpiresAt)
	return args.Error(0)
}

func (m *MockIntegrationsService) AdvanceIntegrationSyncState(ctx context.Context, id string, syncCursor *string) error {
	args := m.Called(ctx, id, syncCursor)
	return args.Error(0)
}
