package api

import (
	"time"

	"fitbackend/models"
)

// Integration represents the integration data returned by the API.
// Token secrets are never exposed - only whether they exist.
type Integration struct {
	ID              string              `json:"id"`
	Provider        models.ProviderType `json:"provider"`
	ExternalUserID  string              `json:"external_user_id"`
	IsActive        bool                `json:"is_active"`
	HasRefreshToken bool                `json:"has_refresh_token"`
	TokenExpiresAt  *time.Time          `json:"token_expires_at,omitempty"`
	ConnectedAt     time.Time           `json:"connected_at"`
	LastSyncAt      *time.Time          `json:"last_sync_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// SyncLog represents one sync attempt as returned by the API
type SyncLog struct {
	ID             string            `json:"id"`
	IntegrationID  string            `json:"integration_id"`
	Status         models.SyncStatus `json:"status"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	ProcessedCount int               `json:"processed_count"`
	ImportedCount  int               `json:"imported_count"`
	SkippedCount   int               `json:"skipped_count"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
}

// DomainIntegrationToAPIIntegration converts a domain Integration to its API shape
func DomainIntegrationToAPIIntegration(in *models.Integration) *Integration {
	return &Integration{
		ID:              in.ID,
		Provider:        in.Provider,
		ExternalUserID:  in.ExternalUserID,
		IsActive:        in.IsActive,
		HasRefreshToken: in.RefreshToken != nil,
		TokenExpiresAt:  in.TokenExpiresAt,
		ConnectedAt:     in.ConnectedAt,
		LastSyncAt:      in.LastSyncAt,
		CreatedAt:       in.CreatedAt,
		UpdatedAt:       in.UpdatedAt,
	}
}

// DomainSyncLogToAPISyncLog converts a domain SyncLog to its API shape
func DomainSyncLogToAPISyncLog(sl *models.SyncLog) *SyncLog {
	return &SyncLog{
		ID:             sl.ID,
		IntegrationID:  sl.IntegrationID,
		Status:         sl.Status,
		StartedAt:      sl.StartedAt,
		CompletedAt:    sl.CompletedAt,
		ProcessedCount: sl.ProcessedCount,
		ImportedCount:  sl.ImportedCount,
		SkippedCount:   sl.SkippedCount,
		ErrorMessage:   sl.ErrorMessage,
	}
}

// DomainIntegrationsToAPIIntegrations converts a slice of domain integrations
func DomainIntegrationsToAPIIntegrations(in []*models.Integration) []*Integration {
	out := make([]*Integration, 0, len(in))
	for _, integration := range in {
		out = append(out, DomainIntegrationToAPIIntegration(integration))
	}
	return out
}

// DomainSyncLogsToAPISyncLogs converts a slice of domain sync logs
func DomainSyncLogsToAPISyncLogs(in []*models.SyncLog) []*SyncLog {
	out := make([]*SyncLog, 0, len(in))
	for _, syncLog := range in {
		out = append(out, DomainSyncLogToAPISyncLog(syncLog))
	}
	return out
}
