package oauth

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fitbackend/models"
)

// MockOAuthClient is a mock implementation of the clients.OAuthClient interface
type MockOAuthClient struct {
	mock.Mock
}

// BuildAuthorizationURL mocks authorize URL construction
func (m *MockOAuthClient) BuildAuthorizationURL(provider models.ProviderType, userID string, redirectOverride string) (string, error) {
	args := m.Called(provider, userID, redirectOverride)
	return args.String(0), args.Error(1)
}

// ExchangeCodeForToken mocks the OAuth code exchange
func (m *MockOAuthClient) ExchangeCodeForToken(ctx context.Context, provider models.ProviderType, code string) (*models.TokenResponse, error) {
	args := m.Called(ctx, provider, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

// RefreshToken mocks the token refresh
func (m *MockOAuthClient) RefreshToken(ctx context.Context, provider models.ProviderType, refreshToken string) (*models.TokenResponse, error) {
	args := m.Called(ctx, provider, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

// RevokeToken mocks provider-side token revocation
func (m *MockOAuthClient) RevokeToken(ctx context.Context, provider models.ProviderType, accessToken string) bool {
	args := m.Called(ctx, provider, accessToken)
	return args.Bool(0)
}
