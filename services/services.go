package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"fitbackend/models"
)

// UsersService defines the interface for user-related operations
type UsersService interface {
	GetOrCreateUser(ctx context.Context, authProvider, authProviderID string) (*models.User, error)
}

// IntegrationsService defines the interface for provider integration operations
type IntegrationsService interface {
	GetAuthorizationURL(provider models.ProviderType, userID string) (string, error)
	CreateOrReconnectIntegration(
		ctx context.Context,
		userID string,
		provider models.ProviderType,
		code, state string,
	) (*models.Integration, error)
	GetIntegrationsByUserID(ctx context.Context, userID string) ([]*models.Integration, error)
	GetIntegrationByID(ctx context.Context, id string) (mo.Option[*models.Integration], error)
	GetIntegrationByProviderExternalUserID(
		ctx context.Context,
		provider models.ProviderType,
		externalUserID string,
	) (mo.Option[*models.Integration], error)
	RevokeIntegration(ctx context.Context, userID, integrationID string) error
	UpdateIntegrationTokens(
		ctx context.Context,
		id string,
		accessToken string,
		refreshToken *string,
		tokenExpiresAt *time.Time,
	) error
	AdvanceIntegrationSyncState(ctx context.Context, id string, syncCursor *string) error
}

// SyncLogsService defines the interface for sync run bookkeeping
type SyncLogsService interface {
	StartSyncRun(ctx context.Context, integrationID string) (*models.SyncLog, error)
	CompleteSyncRun(
		ctx context.Context,
		syncLogID string,
		status models.SyncStatus,
		result *models.SyncResult,
		errorMessage *string,
	) (mo.Option[*models.SyncLog], error)
	GetSyncHistory(ctx context.Context, integrationID string, limit int) ([]*models.SyncLog, error)
	FailAbandonedSyncRuns(ctx context.Context, olderThan time.Duration) (int64, error)
}

// TransactionManager defines the interface for managing database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}
