package integrations

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/samber/mo"

	"fitbackend/clients"
	"fitbackend/clients/oauth"
	"fitbackend/core"
	"fitbackend/db"
	"fitbackend/models"
)

type IntegrationsService struct {
	integrationsRepo *db.PostgresIntegrationsRepository
	oauthClient      clients.OAuthClient
	providerClients  map[models.ProviderType]clients.ProviderSyncClient
}

func NewIntegrationsService(
	repo *db.PostgresIntegrationsRepository,
	oauthClient clients.OAuthClient,
	providerClients map[models.ProviderType]clients.ProviderSyncClient,
) *IntegrationsService {
	return &IntegrationsService{
		integrationsRepo: repo,
		oauthClient:      oauthClient,
		providerClients:  providerClients,
	}
}

func (s *IntegrationsService) GetAuthorizationURL(provider models.ProviderType, userID string) (string, error) {
	log.Printf("📋 Starting to build authorization URL for provider: %s, user: %s", provider, userID)
	if !core.IsValidULID(userID) {
		return "", fmt.Errorf("user ID must be a valid ULID")
	}

	authURL, err := s.oauthClient.BuildAuthorizationURL(provider, userID, "")
	if err != nil {
		return "", fmt.Errorf("failed to build authorization URL: %w", err)
	}

	log.Printf("📋 Completed successfully - built authorization URL for provider: %s", provider)
	return authURL, nil
}

// CreateOrReconnectIntegration finishes the OAuth callback: it validates the
// state token against the calling user, exchanges the code for tokens,
// resolves the provider-side account id, and upserts the integration. A user
// reconnecting an existing provider gets the same row back, reactivated and
// with fresh credentials.
func (s *IntegrationsService) CreateOrReconnectIntegration(
	ctx context.Context,
	userID string,
	provider models.ProviderType,
	code, state string,
) (*models.Integration, error) {
	log.Printf("📋 Starting to connect %s integration for user: %s", provider, userID)
	if !core.IsValidULID(userID) {
		return nil, fmt.Errorf("user ID must be a valid ULID")
	}
	if code == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	// The state token must decode cleanly and name the calling user and
	// provider. Anything else means a forged or replayed callback.
	decodedState, err := oauth.DecodeState(state)
	if err != nil {
		log.Printf("❌ Rejecting callback with undecodable state: %v", err)
		return nil, core.ErrUnauthorized
	}
	if decodedState.UserID != userID || decodedState.Provider != provider {
		log.Printf("❌ Rejecting callback: state token does not match caller")
		return nil, core.ErrUnauthorized
	}

	tokens, err := s.oauthClient.ExchangeCodeForToken(ctx, provider, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	providerClient, ok := s.providerClients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedProvider, provider)
	}

	externalUserID, err := providerClient.ResolveExternalAccountID(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve provider account id: %w", err)
	}

	metadata := models.MetadataMap{}
	if len(tokens.Scopes) > 0 {
		metadata["scopes"] = strings.Join(tokens.Scopes, ",")
	}

	integration, err := s.integrationsRepo.UpsertIntegration(ctx, &models.Integration{
		UserID:         userID,
		Provider:       provider,
		ExternalUserID: externalUserID,
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		TokenExpiresAt: tokens.ExpiresAt,
		Metadata:       metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert integration: %w", err)
	}

	log.Printf("📋 Completed successfully - connected %s integration with ID: %s", provider, integration.ID)
	return integration, nil
}

func (s *IntegrationsService) GetIntegrationsByUserID(
	ctx context.Context,
	userID string,
) ([]*models.Integration, error) {
	log.Printf("📋 Starting to get integrations for user: %s", userID)
	if !core.IsValidULID(userID) {
		return nil, fmt.Errorf("user ID must be a valid ULID")
	}

	integrations, err := s.integrationsRepo.GetIntegrationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get integrations for user: %w", err)
	}

	log.Printf("📋 Completed successfully - found %d integrations for user: %s", len(integrations), userID)
	return integrations, nil
}

func (s *IntegrationsService) GetIntegrationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Integration], error) {
	log.Printf("📋 Starting to get integration by ID: %s", id)
	if !core.IsValidULID(id) {
		return mo.None[*models.Integration](), fmt.Errorf("integration ID must be a valid ULID")
	}

	maybeIntegration, err := s.integrationsRepo.GetIntegrationByID(ctx, id)
	if err != nil {
		return mo.None[*models.Integration](), fmt.Errorf("failed to get integration: %w", err)
	}

	log.Printf("📋 Completed successfully - integration lookup for ID: %s", id)
	return maybeIntegration, nil
}

func (s *IntegrationsService) GetIntegrationByProviderExternalUserID(
	ctx context.Context,
	provider models.ProviderType,
	externalUserID string,
) (mo.Option[*models.Integration], error) {
	log.Printf("📋 Starting to get integration for provider: %s, external user: %s", provider, externalUserID)
	if externalUserID == "" {
		return mo.None[*models.Integration](), fmt.Errorf("external user ID cannot be empty")
	}

	maybeIntegration, err := s.integrationsRepo.GetIntegrationByProviderExternalUserID(ctx, provider, externalUserID)
	if err != nil {
		return mo.None[*models.Integration](), fmt.Errorf("failed to get integration by external user id: %w", err)
	}

	log.Printf("📋 Completed successfully - integration lookup for provider: %s", provider)
	return maybeIntegration, nil
}

// RevokeIntegration disconnects an integration. The provider-side revoke is
// best effort - the local is_active flag is the source of truth, so a failed
// or unsupported provider revoke still deactivates the row.
func (s *IntegrationsService) RevokeIntegration(ctx context.Context, userID, integrationID string) error {
	log.Printf("📋 Starting to revoke integration: %s for user: %s", integrationID, userID)
	if !core.IsValidULID(integrationID) {
		return fmt.Errorf("integration ID must be a valid ULID")
	}

	maybeIntegration, err := s.integrationsRepo.GetIntegrationByID(ctx, integrationID)
	if err != nil {
		return fmt.Errorf("failed to get integration: %w", err)
	}
	integration, ok := maybeIntegration.Get()
	if !ok || integration.UserID != userID || !integration.IsActive {
		return core.ErrNotFound
	}

	if revoked := s.oauthClient.RevokeToken(ctx, integration.Provider, integration.AccessToken); revoked {
		log.Printf("📋 Revoked %s token provider-side for integration: %s", integration.Provider, integrationID)
	} else {
		log.Printf("⚠️ Provider-side revoke unavailable or failed for %s, deactivating locally anyway", integration.Provider)
	}

	deactivated, err := s.integrationsRepo.DeactivateIntegration(ctx, integrationID, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate integration: %w", err)
	}
	if !deactivated {
		return core.ErrNotFound
	}

	log.Printf("📋 Completed successfully - revoked integration: %s", integrationID)
	return nil
}

func (s *IntegrationsService) UpdateIntegrationTokens(
	ctx context.Context,
	id string,
	accessToken string,
	refreshToken *string,
	tokenExpiresAt *time.Time,
) error {
	log.Printf("📋 Starting to update tokens for integration: %s", id)
	if accessToken == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	if err := s.integrationsRepo.UpdateIntegrationTokens(ctx, id, accessToken, refreshToken, tokenExpiresAt); err != nil {
		return fmt.Errorf("failed to update integration tokens: %w", err)
	}

	log.Printf("📋 Completed successfully - updated tokens for integration: %s", id)
	return nil
}

func (s *IntegrationsService) AdvanceIntegrationSyncState(ctx context.Context, id string, syncCursor *string) error {
	log.Printf("📋 Starting to advance sync state for integration: %s", id)

	if err := s.integrationsRepo.UpdateIntegrationSyncState(ctx, id, syncCursor); err != nil {
		return fmt.Errorf("failed to advance integration sync state: %w", err)
	}

	log.Printf("📋 Completed successfully - advanced sync state for integration: %s", id)
	return nil
}
