package usecases

import (
	"context"

	"fitbackend/models"
)

// SyncUseCaseInterface defines the interface for sync orchestration
type SyncUseCaseInterface interface {
	TriggerSync(ctx context.Context, integrationID string) (*models.SyncLog, error)
	ReapAbandonedSyncRuns(ctx context.Context) (int64, error)
}

// WebhooksUseCaseInterface defines the interface for webhook gateway operations
type WebhooksUseCaseInterface interface {
	VerifySignature(provider models.ProviderType, rawPayload []byte, signatureHeader string) bool
	ProcessWebhook(ctx context.Context, provider models.ProviderType, rawPayload []byte) bool
	GetWebhookURL(provider models.ProviderType) string
}
