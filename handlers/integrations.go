package handlers

import (
	"context"
	"log"

	"fitbackend/core"
	"fitbackend/models"
	"fitbackend/services"
	"fitbackend/usecases"
)

type IntegrationsAPIHandler struct {
	integrationsService services.IntegrationsService
	syncLogsService     services.SyncLogsService
	syncUseCase         usecases.SyncUseCaseInterface
}

func NewIntegrationsAPIHandler(
	integrationsService services.IntegrationsService,
	syncLogsService services.SyncLogsService,
	syncUseCase usecases.SyncUseCaseInterface,
) *IntegrationsAPIHandler {
	return &IntegrationsAPIHandler{
		integrationsService: integrationsService,
		syncLogsService:     syncLogsService,
		syncUseCase:         syncUseCase,
	}
}

// ListIntegrations returns all provider integrations for the user
func (h *IntegrationsAPIHandler) ListIntegrations(
	ctx context.Context,
	user *models.User,
) ([]*models.Integration, error) {
	log.Printf("📋 Listing integrations for user: %s", user.ID)
	integrations, err := h.integrationsService.GetIntegrationsByUserID(ctx, user.ID)
	if err != nil {
		log.Printf("❌ Failed to get integrations: %v", err)
		return nil, err
	}

	log.Printf("✅ Retrieved %d integrations for user: %s", len(integrations), user.ID)
	return integrations, nil
}

// GetAuthorizationURL starts the OAuth connect flow for a provider
func (h *IntegrationsAPIHandler) GetAuthorizationURL(
	user *models.User,
	provider models.ProviderType,
) (string, error) {
	log.Printf("🔗 Building %s authorization URL for user: %s", provider, user.ID)
	authURL, err := h.integrationsService.GetAuthorizationURL(provider, user.ID)
	if err != nil {
		log.Printf("❌ Failed to build authorization URL: %v", err)
		return "", err
	}

	log.Printf("✅ Authorization URL ready for provider: %s", provider)
	return authURL, nil
}

// CompleteOAuthCallback finishes the connect flow with the code and state
// from the provider redirect
func (h *IntegrationsAPIHandler) CompleteOAuthCallback(
	ctx context.Context,
	user *models.User,
	provider models.ProviderType,
	code, state string,
) (*models.Integration, error) {
	log.Printf("➕ Completing %s OAuth callback for user: %s", provider, user.ID)
	integration, err := h.integrationsService.CreateOrReconnectIntegration(ctx, user.ID, provider, code, state)
	if err != nil {
		log.Printf("❌ Failed to complete OAuth callback: %v", err)
		return nil, err
	}

	log.Printf("✅ Integration connected successfully: %s", integration.ID)
	return integration, nil
}

// RevokeIntegration disconnects an integration for the user
func (h *IntegrationsAPIHandler) RevokeIntegration(ctx context.Context, user *models.User, integrationID string) error {
	log.Printf("🗑️ Revoking integration: %s for user: %s", integrationID, user.ID)
	if err := h.integrationsService.RevokeIntegration(ctx, user.ID, integrationID); err != nil {
		log.Printf("❌ Failed to revoke integration: %v", err)
		return err
	}

	log.Printf("✅ Integration revoked successfully: %s", integrationID)
	return nil
}

// TriggerSync starts a sync run for one of the user's integrations
func (h *IntegrationsAPIHandler) TriggerSync(
	ctx context.Context,
	user *models.User,
	integrationID string,
) (*models.SyncLog, error) {
	log.Printf("🔄 Triggering sync for integration: %s by user: %s", integrationID, user.ID)

	if err := h.assertIntegrationOwnership(ctx, user, integrationID); err != nil {
		return nil, err
	}

	syncLog, err := h.syncUseCase.TriggerSync(ctx, integrationID)
	if err != nil {
		log.Printf("❌ Failed to trigger sync: %v", err)
		return nil, err
	}

	log.Printf("✅ Sync run %s finished as %s", syncLog.ID, syncLog.Status)
	return syncLog, nil
}

// GetSyncHistory returns recent sync runs for one of the user's integrations
func (h *IntegrationsAPIHandler) GetSyncHistory(
	ctx context.Context,
	user *models.User,
	integrationID string,
	limit int,
) ([]*models.SyncLog, error) {
	log.Printf("📋 Getting sync history for integration: %s", integrationID)

	if err := h.assertIntegrationOwnership(ctx, user, integrationID); err != nil {
		return nil, err
	}

	syncLogs, err := h.syncLogsService.GetSyncHistory(ctx, integrationID, limit)
	if err != nil {
		log.Printf("❌ Failed to get sync history: %v", err)
		return nil, err
	}

	log.Printf("✅ Retrieved %d sync runs for integration: %s", len(syncLogs), integrationID)
	return syncLogs, nil
}

// assertIntegrationOwnership rejects operations on integrations the user
// does not own. Revoked integrations still belong to their owner so their
// history stays readable.
func (h *IntegrationsAPIHandler) assertIntegrationOwnership(
	ctx context.Context,
	user *models.User,
	integrationID string,
) error {
	maybeIntegration, err := h.integrationsService.GetIntegrationByID(ctx, integrationID)
	if err != nil {
		return err
	}
	integration, ok := maybeIntegration.Get()
	if !ok || integration.UserID != user.ID {
		log.Printf("❌ Integration %s not found or not owned by user %s", integrationID, user.ID)
		return core.ErrNotFound
	}
	return nil
}
