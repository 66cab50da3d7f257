package clients

import (
	"context"

	"github.com/samber/mo"

	"fitbackend/models"
)

// OAuthClient is the broker for provider OAuth2 flows. Implementations are
// stateless and safe under arbitrary concurrency.
type OAuthClient interface {
	// BuildAuthorizationURL constructs the provider authorize redirect URL,
	// embedding a freshly generated state token. Pure, no side effects.
	BuildAuthorizationURL(provider models.ProviderType, userID string, redirectOverride string) (string, error)

	// ExchangeCodeForToken exchanges an authorization code for tokens
	ExchangeCodeForToken(ctx context.Context, provider models.ProviderType, code string) (*models.TokenResponse, error)

	// RefreshToken exchanges a refresh token for a fresh access token.
	// Providers may omit a rotated refresh token - callers must keep the
	// previous one in that case.
	RefreshToken(ctx context.Context, provider models.ProviderType, refreshToken string) (*models.TokenResponse, error)

	// RevokeToken revokes an access token provider-side. Returns false for
	// providers without a revoke endpoint or on failure - never errors.
	RevokeToken(ctx context.Context, provider models.ProviderType, accessToken string) bool
}

// ProviderSyncClient is the per-provider API surface used during syncs and
// webhook processing. One implementation exists per provider variant.
type ProviderSyncClient interface {
	// ResolveExternalAccountID fetches the provider-side account id for the
	// authenticated athlete/user
	ResolveExternalAccountID(ctx context.Context, accessToken string) (string, error)

	// SyncActivities pulls activities newer than the integration's sync
	// cursor, imports them, and reports counts plus the new cursor
	SyncActivities(ctx context.Context, integration *models.Integration) (*models.SyncResult, error)

	// ParseWebhookEvent normalizes a provider webhook payload into the
	// canonical event. None means the payload was recognized as something we
	// deliberately ignore; an error means the payload was malformed.
	ParseWebhookEvent(rawPayload []byte) (mo.Option[models.WebhookEvent], error)
}

// WorkoutImporter attaches an imported provider activity to the user's
// workout log. The session/movement domain implements this; the integration
// subsystem only depends on the interface.
type WorkoutImporter interface {
	// ImportActivity stores one activity. Returns false if the activity was
	// already present and got skipped.
	ImportActivity(ctx context.Context, userID string, activity models.ProviderActivity) (bool, error)
}
