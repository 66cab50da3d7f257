package strava

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"fitbackend/models"
)

// MockProviderSyncClient is a mock implementation of the
// clients.ProviderSyncClient interface, reusable for any provider in tests
type MockProviderSyncClient struct {
	mock.Mock
}

// ResolveExternalAccountID mocks the account id lookup
func (m *MockProviderSyncClient) ResolveExternalAccountID(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

// SyncActivities mocks the provider sync routine
func (m *MockProviderSyncClient) SyncActivities(ctx context.Context, integration *models.Integration) (*models.SyncResult, error) {
	args := m.Called(ctx, integration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncResult), args.Error(1)
}

// ParseWebhookEvent mocks webhook payload normalization
func (m *MockProviderSyncClient) ParseWebhookEvent(rawPayload []byte) (mo.Option[models.WebhookEvent], error) {
	args := m.Called(rawPayload)
	return args.Get(0).(mo.Option[models.WebhookEvent]), args.Error(1)
}
