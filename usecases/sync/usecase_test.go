package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fitbackend/clients"
	"fitbackend/clients/oauth"
	"fitbackend/clients/strava"
	"fitbackend/core"
	"fitbackend/models"
	"fitbackend/services/integrations"
	"fitbackend/services/synclogs"
)

type syncTestDeps struct {
	integrationsService *integrations.MockIntegrationsService
	syncLogsService     *synclogs.MockSyncLogsService
	oauthClient         *oauth.MockOAuthClient
	providerClient      *strava.MockProviderSyncClient
	useCase             *SyncUseCase
}

func setupSyncTest() *syncTestDeps {
	deps := &syncTestDeps{
		integrationsService: new(integrations.MockIntegrationsService),
		syncLogsService:     new(synclogs.MockSyncLogsService),
		oauthClient:         new(oauth.MockOAuthClient),
		providerClient:      new(strava.MockProviderSyncClient),
	}
	deps.useCase = NewSyncUseCase(
		deps.integrationsService,
		deps.syncLogsService,
		deps.oauthClient,
		map[models.ProviderType]clients.ProviderSyncClient{
			models.ProviderStrava: deps.providerClient,
		},
		passthroughTxManager{},
	)
	return deps
}

func activeIntegration() *models.Integration {
	expiresAt := time.Now().Add(1 * time.Hour)
	refreshToken := "refresh-token-1"
	return &models.Integration{
		ID:             core.NewID("itg"),
		UserID:         core.NewID("u"),
		Provider:       models.ProviderStrava,
		ExternalUserID: "12345",
		AccessToken:    "access-token-1",
		RefreshToken:   &refreshToken,
		TokenExpiresAt: &expiresAt,
		IsActive:       true,
	}
}

func inProgressSyncLog(integrationID string) *models.SyncLog {
	return &models.SyncLog{
		ID:            core.NewID("sl"),
		IntegrationID: integrationID,
		Status:        models.SyncStatusInProgress,
		StartedAt:     time.Now(),
	}
}

// finalizedSyncLog mirrors what the repository hands back after the terminal
// UPDATE ... RETURNING
func finalizedSyncLog(started *models.SyncLog, status models.SyncStatus, result *models.SyncResult, errMsg *string) *models.SyncLog {
	completedAt := time.Now()
	return &models.SyncLog{
		ID:             started.ID,
		IntegrationID:  started.IntegrationID,
		Status:         status,
		StartedAt:      started.StartedAt,
		CompletedAt:    &completedAt,
		ProcessedCount: result.ProcessedCount,
		ImportedCount:  result.ImportedCount,
		SkippedCount:   result.SkippedCount,
		ErrorMessage:   errMsg,
		SyncCursor:     result.NewCursor,
	}
}

func TestTriggerSync_MissingIntegration(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	deps.integrationsService.On("GetIntegrationByID", ctx, mock.Anything).
		Return(mo.None[*models.Integration](), nil)

	syncLog, err := deps.useCase.TriggerSync(ctx, core.NewID("itg"))

	assert.ErrorIs(t, err, core.ErrNotFoundOrInactive)
	assert.Nil(t, syncLog)
	deps.syncLogsService.AssertNotCalled(t, "StartSyncRun", mock.Anything, mock.Anything)
}

func TestTriggerSync_InactiveIntegration_NoSyncLog(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	integration := activeIntegration()
	integration.IsActive = false
	deps.integrationsService.On("GetIntegrationByID", ctx, integration.ID).
		Return(mo.Some(integration), nil)

	syncLog, err := deps.useCase.TriggerSync(ctx, integration.ID)

	assert.ErrorIs(t, err, core.ErrNotFoundOrInactive)
	assert.Nil(t, syncLog)
	deps.syncLogsService.AssertNotCalled(t, "StartSyncRun", mock.Anything, mock.Anything)
}

func TestTriggerSync_AlreadyRunning(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	integration := activeIntegration()
	deps.integrationsService.On("GetIntegrationByID", ctx, integration.ID).
		Return(mo.Some(integration), nil)
	deps.syncLogsService.On("StartSyncRun", ctx, integration.ID).
		Return(nil, core.ErrSyncAlreadyRunning)

	syncLog, err := deps.useCase.TriggerSync(ctx, integration.ID)

	assert.ErrorIs(t, err, core.ErrSyncAlreadyRunning)
	assert.Nil(t, syncLog)
	deps.providerClient.AssertNotCalled(t, "SyncActivities", mock.Anything, mock.Anything)
}

func TestTriggerSync_Success_AdvancesCursor(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	integration := activeIntegration()
	startedLog := inProgressSyncLog(integration.ID)
	cursor := "1700000000"
	result := &models.SyncResult{ProcessedCount: 3, ImportedCount: 2, SkippedCount: 1, NewCursor: &cursor}

	deps.integrationsService.On("GetIntegrationByID", ctx, integration.ID).
		Return(mo.Some(integration), nil)
	deps.syncLogsService.On("StartSyncRun", ctx, integration.ID).Return(startedLog, nil)
	deps.providerClient.On("SyncActivities", mock.Anything, integration).Return(result, nil)
	deps.syncLogsService.On("CompleteSyncRun", mock.Anything, startedLog.ID, models.SyncStatusCompleted, result, (*string)(nil)).
		Return(mo.Some(finalizedSyncLog(startedLog, models.SyncStatusCompleted, result, nil)), nil)
	deps.integrationsService.On("AdvanceIntegrationSyncState", mock.Anything, integration.ID, &cursor).
		Return(nil)

	syncLog, err := deps.useCase.TriggerSync(ctx, integration.ID)

	require.NoError(t, err)
	require.NotNil(t, syncLog)
	assert.Equal(t, models.SyncStatusCompleted, syncLog.Status)
	assert.Equal(t, 2, syncLog.ImportedCount)
	assert.NotNil(t, syncLog.CompletedAt)
	deps.integrationsService.AssertNumberOfCalls(t, "AdvanceIntegrationSyncState", 1)
	// Fresh token, no refresh needed
	deps.oauthClient.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestTriggerSync_ProviderFailure_LeavesCursorUntouched(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	integration := activeIntegration()
	startedLog := inProgressSyncLog(integration.ID)

	deps.integrationsService.On("GetIntegrationByID", ctx, integration.ID).
		Return(mo.Some(integration), nil)
	deps.syncLogsService.On("StartSyncRun", ctx, integration.ID).Return(startedLog, nil)
	deps.providerClient.On("SyncActivities", mock.Anything, integration).
		Return(nil, errors.New("rate limited"))
	failedMsg := "provider sync failed: rate limited"
	deps.syncLogsService.On("CompleteSyncRun", mock.Anything, startedLog.ID, models.SyncStatusFailed, mock.Anything, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && *msg == failedMsg
	})).Return(mo.Some(finalizedSyncLog(startedLog, models.SyncStatusFailed, &models.SyncResult{}, &failedMsg)), nil)

	syncLog, err := deps.useCase.TriggerSync(ctx, integration.ID)

	require.NoError(t, err)
	require.NotNil(t, syncLog)
	assert.Equal(t, models.SyncStatusFailed, syncLog.Status)
	require.NotNil(t, syncLog.ErrorMessage)
	assert.Contains(t, *syncLog.ErrorMessage, "rate limited")
	deps.integrationsService.AssertNotCalled(t, "AdvanceIntegrationSyncState", mock.Anything, mock.Anything, mock.Anything)
}

func TestTriggerSync_RefreshesExpiringToken(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	integration := activeIntegration()
	soon := time.Now().Add(4 * time.Minute)
	integration.TokenExpiresAt = &soon
	startedLog := inProgressSyncLog(integration.ID)
	newExpiry := time.Now().Add(6 * time.Hour)

	deps.integrationsService.On("GetIntegrationByID", ctx, integration.ID).
		Return(mo.Some(integration), nil)
	deps.syncLogsService.On("StartSyncRun", ctx, integration.ID).Return(startedLog, nil)
	// Provider rotates the access token but withholds a new refresh token
	deps.oauthClient.On("RefreshToken", mock.Anything, models.ProviderStrava, "refresh-token-1").
		Return(&models.TokenResponse{AccessToken: "access-token-2", ExpiresAt: &newExpiry}, nil)
	deps.integrationsService.On("UpdateIntegrationTokens", mock.Anything, integration.ID, "access-token-2",
		mock.MatchedBy(func(rt *string) bool { return rt != nil && *rt == "refresh-token-1" }),
		&newExpiry,
	).Return(nil)
	deps.providerClient.On("SyncActivities", mock.Anything, mock.MatchedBy(func(i *models.Integration) bool {
		return i.AccessToken == "access-token-2"
	})).Return(&models.SyncResult{}, nil)
	deps.syncLogsService.On("CompleteSyncRun", mock.Anything, startedLog.ID, models.SyncStatusCompleted, mock.Anything, (*string)(nil)).
		Return(mo.Some(finalizedSyncLog(startedLog, models.SyncStatusCompleted, &models.SyncResult{}, nil)), nil)
	deps.integrationsService.On("AdvanceIntegrationSyncState", mock.Anything, integration.ID, (*string)(nil)).
		Return(nil)

	syncLog, err := deps.useCase.TriggerSync(ctx, integration.ID)

	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusCompleted, syncLog.Status)
	deps.oauthClient.AssertNumberOfCalls(t, "RefreshToken", 1)
}

func TestTriggerSync_RefreshFailure_RecordedAsFailed(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	integration := activeIntegration()
	soon := time.Now().Add(2 * time.Minute)
	integration.TokenExpiresAt = &soon
	startedLog := inProgressSyncLog(integration.ID)

	deps.integrationsService.On("GetIntegrationByID", ctx, integration.ID).
		Return(mo.Some(integration), nil)
	deps.syncLogsService.On("StartSyncRun", ctx, integration.ID).Return(startedLog, nil)
	deps.oauthClient.On("RefreshToken", mock.Anything, models.ProviderStrava, "refresh-token-1").
		Return(nil, errors.New("invalid_grant"))
	refreshFailedMsg := "failed to refresh access token: invalid_grant"
	deps.syncLogsService.On("CompleteSyncRun", mock.Anything, startedLog.ID, models.SyncStatusFailed, mock.Anything, mock.Anything).
		Return(mo.Some(finalizedSyncLog(startedLog, models.SyncStatusFailed, &models.SyncResult{}, &refreshFailedMsg)), nil)

	syncLog, err := deps.useCase.TriggerSync(ctx, integration.ID)

	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, syncLog.Status)
	deps.providerClient.AssertNotCalled(t, "SyncActivities", mock.Anything, mock.Anything)
	deps.integrationsService.AssertNotCalled(t, "AdvanceIntegrationSyncState", mock.Anything, mock.Anything, mock.Anything)
}

func TestTriggerSync_ReturnsStoreFinalizedRow(t *testing.T) {
	ctx := context.Background()
	deps := setupSyncTest()

	integration := activeIntegration()
	startedLog := inProgressSyncLog(integration.ID)
	result := &models.SyncResult{ProcessedCount: 1, ImportedCount: 1}
	storeFinalized := finalizedSyncLog(startedLog, models.SyncStatusCompleted, result, nil)
	storeCompletedAt := time.Now().Add(-42 * time.Second)
	storeFinalized.CompletedAt = &storeCompletedAt

	deps.integrationsService.On("GetIntegrationByID", ctx, integration.ID).
		Return(mo.Some(integration), nil)
	deps.syncLogsService.On("StartSyncRun", ctx, integration.ID).Return(startedLog, nil)
	deps.providerClient.On("SyncActivities", mock.Anything, integration).Return(result, nil)
	deps.syncLogsService.On("CompleteSyncRun", mock.Anything, startedLog.ID, models.SyncStatusCompleted, result, (*string)(nil)).
		Return(mo.Some(storeFinalized), nil)
	deps.integrationsService.On("AdvanceIntegrationSyncState", mock.Anything, integration.ID, (*string)(nil)).
		Return(nil)

	syncLog, err := deps.useCase.TriggerSync(ctx, integration.ID)

	require.NoError(t, err)
	// The caller sees exactly what the store recorded, not an app-side stamp
	assert.Same(t, storeFinalized, syncLog)
	assert.True(t, storeCompletedAt.Equal(*syncLog.CompletedAt))
}
