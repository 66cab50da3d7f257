package models

import (
	"time"
)

// Integration is one user's binding to one third-party provider account.
// At most one row per (user_id, provider) pair is meaningful - the repository
// upserts by that natural key, so a reconnect overwrites the existing row
// instead of inserting a duplicate. Revoking deactivates the row but never
// deletes it, preserving the sync audit trail.
type Integration struct {
	ID             string            `db:"id"               json:"id"`
	UserID         string            `db:"user_id"          json:"user_id"`
	Provider       ProviderType      `db:"provider"         json:"provider"`
	ExternalUserID string            `db:"external_user_id" json:"external_user_id"`
	AccessToken    string            `db:"access_token"     json:"-"`
	RefreshToken   *string           `db:"refresh_token"    json:"-"`
	TokenExpiresAt *time.Time        `db:"token_expires_at" json:"token_expires_at,omitempty"`
	IsActive       bool              `db:"is_active"        json:"is_active"`
	ConnectedAt    time.Time         `db:"connected_at"     json:"connected_at"`
	LastSyncAt     *time.Time        `db:"last_sync_at"     json:"last_sync_at,omitempty"`
	SyncCursor     *string           `db:"sync_cursor"      json:"sync_cursor,omitempty"`
	Metadata       MetadataMap       `db:"metadata"         json:"metadata,omitempty"`
	CreatedAt      time.Time         `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at"       json:"updated_at"`
}

// TokenExpiresWithin reports whether the access token expires within d of now.
// Integrations without a recorded expiry never report as expiring.
func (i *Integration) TokenExpiresWithin(d time.Duration) bool {
	if i.TokenExpiresAt == nil {
		return false
	}
	return time.Until(*i.TokenExpiresAt) <= d
}
