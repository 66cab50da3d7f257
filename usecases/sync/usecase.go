package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fitbackend/clients"
	"fitbackend/core"
	"fitbackend/models"
	"fitbackend/services"
)

// tokenRefreshWindow is how close to expiry an access token may get before a
// sync proactively refreshes it
const tokenRefreshWindow = 5 * time.Minute

// DefaultSyncTimeout bounds the wall-clock time of one sync run
const DefaultSyncTimeout = 10 * time.Minute

// DefaultAbandonedSyncThreshold is how old an in_progress run must be before
// the reaper declares its process dead and fails it
const DefaultAbandonedSyncThreshold = 30 * time.Minute

type SyncUseCase struct {
	integrationsService services.IntegrationsService
	syncLogsService     services.SyncLogsService
	oauthClient         clients.OAuthClient
	providerClients     map[models.ProviderType]clients.ProviderSyncClient
	txManager           services.TransactionManager
	syncTimeout         time.Duration
	abandonedThreshold  time.Duration
}

func NewSyncUseCase(
	integrationsService services.IntegrationsService,
	syncLogsService services.SyncLogsService,
	oauthClient clients.OAuthClient,
	providerClients map[models.ProviderType]clients.ProviderSyncClient,
	txManager services.TransactionManager,
) *SyncUseCase {
	return &SyncUseCase{
		integrationsService: integrationsService,
		syncLogsService:     syncLogsService,
		oauthClient:         oauthClient,
		providerClients:     providerClients,
		txManager:           txManager,
		syncTimeout:         DefaultSyncTimeout,
		abandonedThreshold:  DefaultAbandonedSyncThreshold,
	}
}

// TriggerSync runs one full sync for the integration and returns its sync
// log in terminal state. The sync log row is inserted before any network
// call, doubling as the per-integration lease: concurrent triggers for the
// same integration get core.ErrSyncAlreadyRunning. A failed run never
// advances the integration's cursor or last_sync_at.
func (s *SyncUseCase) TriggerSync(ctx context.Context, integrationID string) (*models.SyncLog, error) {
	log.Printf("📋 Starting to trigger sync for integration: %s", integrationID)

	maybeIntegration, err := s.integrationsService.GetIntegrationByID(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}
	integration, ok := maybeIntegration.Get()
	if !ok || !integration.IsActive {
		return nil, core.ErrNotFoundOrInactive
	}

	syncLog, err := s.syncLogsService.StartSyncRun(ctx, integration.ID)
	if err != nil {
		if errors.Is(err, core.ErrSyncAlreadyRunning) {
			log.Printf("⚠️ Sync already running for integration: %s", integration.ID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to start sync run: %w", err)
	}

	// The run itself is bounded; the terminal bookkeeping below uses the
	// parent context so a timed-out run can still be recorded as failed.
	runCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	result, runErr := s.runSync(runCtx, integration)
	if runErr != nil {
		log.Printf("❌ Sync run %s failed: %v", syncLog.ID, runErr)
		return s.finishFailed(ctx, syncLog, result, runErr)
	}

	return s.finishCompleted(ctx, syncLog, integration, result)
}

// runSync refreshes credentials when needed and dispatches to the provider
// sync client. It never touches the sync log - terminal bookkeeping belongs
// to the caller.
func (s *SyncUseCase) runSync(ctx context.Context, integration *models.Integration) (*models.SyncResult, error) {
	if integration.TokenExpiresWithin(tokenRefreshWindow) {
		if err := s.refreshTokens(ctx, integration); err != nil {
			return nil, fmt.Errorf("failed to refresh access token: %w", err)
		}
	}

	providerClient, ok := s.providerClients[integration.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: no sync client for %s", core.ErrUnsupportedProvider, integration.Provider)
	}

	result, err := providerClient.SyncActivities(ctx, integration)
	if err != nil {
		return nil, fmt.Errorf("provider sync failed: %w", err)
	}

	return result, nil
}

// refreshTokens rotates the integration's credentials via the OAuth broker.
// Providers may withhold a new refresh token on rotation - the previous one
// stays valid and is kept.
func (s *SyncUseCase) refreshTokens(ctx context.Context, integration *models.Integration) error {
	if integration.RefreshToken == nil {
		log.Printf("⚠️ Token for integration %s is expiring but no refresh token is stored, syncing with current token", integration.ID)
		return nil
	}

	log.Printf("📋 Access token for integration %s expires soon, refreshing", integration.ID)
	tokens, err := s.oauthClient.RefreshToken(ctx, integration.Provider, *integration.RefreshToken)
	if err != nil {
		return err
	}

	refreshToken := integration.RefreshToken
	if tokens.RefreshToken != nil {
		refreshToken = tokens.RefreshToken
	}

	if err := s.integrationsService.UpdateIntegrationTokens(
		ctx, integration.ID, tokens.AccessToken, refreshToken, tokens.ExpiresAt,
	); err != nil {
		return err
	}

	integration.AccessToken = tokens.AccessToken
	integration.RefreshToken = refreshToken
	integration.TokenExpiresAt = tokens.ExpiresAt
	return nil
}

// finishCompleted commits the terminal completed transition together with
// the integration's cursor advance in one transaction, so the cursor can
// never run ahead of a recorded successful sync. The returned sync log is the
// row as the database finalized it.
func (s *SyncUseCase) finishCompleted(
	ctx context.Context,
	syncLog *models.SyncLog,
	integration *models.Integration,
	result *models.SyncResult,
) (*models.SyncLog, error) {
	var finalized *models.SyncLog
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		maybeFinalized, err := s.syncLogsService.CompleteSyncRun(
			txCtx, syncLog.ID, models.SyncStatusCompleted, result, nil,
		)
		if err != nil {
			return err
		}
		row, ok := maybeFinalized.Get()
		if !ok {
			return fmt.Errorf("sync run %s was already finalized", syncLog.ID)
		}
		finalized = row

		return s.integrationsService.AdvanceIntegrationSyncState(txCtx, integration.ID, result.NewCursor)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize completed sync: %w", err)
	}

	log.Printf("📋 Completed successfully - sync run %s imported %d of %d activities",
		finalized.ID, finalized.ImportedCount, finalized.ProcessedCount)
	return finalized, nil
}

// finishFailed records the failure in the sync log and nothing else - the
// integration's cursor and last_sync_at stay untouched.
func (s *SyncUseCase) finishFailed(
	ctx context.Context,
	syncLog *models.SyncLog,
	result *models.SyncResult,
	runErr error,
) (*models.SyncLog, error) {
	if result == nil {
		result = &models.SyncResult{}
	}
	errMsg := runErr.Error()

	maybeFinalized, err := s.syncLogsService.CompleteSyncRun(
		ctx, syncLog.ID, models.SyncStatusFailed, result, &errMsg,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize failed sync: %w", err)
	}
	finalized, ok := maybeFinalized.Get()
	if !ok {
		return nil, fmt.Errorf("sync run %s was already finalized", syncLog.ID)
	}

	return finalized, nil
}
