package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"fitbackend/core"
	dbtx "fitbackend/db/tx"
	"fitbackend/models"
)

type PostgresIntegrationsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for integrations table
var integrationsColumns = []string{
	"id",
	"user_id",
	"provider",
	"external_user_id",
	"access_token",
	"refresh_token",
	"token_expires_at",
	"is_active",
	"connected_at",
	"last_sync_at",
	"sync_cursor",
	"metadata",
	"created_at",
	"updated_at",
}

func NewPostgresIntegrationsRepository(db *sqlx.DB, schema string) *PostgresIntegrationsRepository {
	return &PostgresIntegrationsRepository{db: db, schema: schema}
}

// UpsertIntegration inserts a new integration or, when the user already has
// one for this provider, overwrites its tokens and reactivates it. The
// natural key is (user_id, provider), so reconnecting never duplicates rows.
func (r *PostgresIntegrationsRepository) UpsertIntegration(
	ctx context.Context,
	integration *models.Integration,
) (*models.Integration, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("itg")
	returningStr := strings.Join(integrationsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.integrations (
			id, user_id, provider, external_user_id,
			access_token, refresh_token, token_expires_at,
			is_active, connected_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), $8)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			external_user_id = EXCLUDED.external_user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = TRUE,
			connected_at = NOW(),
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING %s
	`, r.schema, returningStr)

	var upserted models.Integration
	err := db.QueryRowxContext(
		ctx,
		query,
		id,
		integration.UserID,
		integration.Provider,
		integration.ExternalUserID,
		integration.AccessToken,
		integration.RefreshToken,
		integration.TokenExpiresAt,
		integration.Metadata,
	).StructScan(&upserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert integration: %w", err)
	}

	return &upserted, nil
}

func (r *PostgresIntegrationsRepository) GetIntegrationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Integration], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(integrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.integrations
		WHERE id = $1`,
		returningStr, r.schema)

	var integration models.Integration
	err := db.QueryRowxContext(ctx, query, id).StructScan(&integration)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Integration](), nil
		}
		return mo.None[*models.Integration](), fmt.Errorf("failed to get integration by id: %w", err)
	}

	return mo.Some(&integration), nil
}

func (r *PostgresIntegrationsRepository) GetIntegrationsByUserID(
	ctx context.Context,
	userID string,
) ([]*models.Integration, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(integrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.integrations
		WHERE user_id = $1
		ORDER BY connected_at DESC`,
		returningStr, r.schema)

	var integrations []*models.Integration
	if err := db.SelectContext(ctx, &integrations, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get integrations by user id: %w", err)
	}

	return integrations, nil
}

// GetIntegrationByProviderExternalUserID resolves which local integration a
// webhook belongs to, keyed by the provider-side account id.
func (r *PostgresIntegrationsRepository) GetIntegrationByProviderExternalUserID(
	ctx context.Context,
	provider models.ProviderType,
	externalUserID string,
) (mo.Option[*models.Integration], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(integrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.integrations
		WHERE provider = $1 AND external_user_id = $2 AND is_active = TRUE`,
		returningStr, r.schema)

	var integration models.Integration
	err := db.QueryRowxContext(ctx, query, provider, externalUserID).StructScan(&integration)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Integration](), nil
		}
		return mo.None[*models.Integration](), fmt.Errorf(
			"failed to get integration by provider external user id: %w", err)
	}

	return mo.Some(&integration), nil
}

// DeactivateIntegration flips is_active off without deleting the row, so the
// sync history stays queryable after a disconnect. Returns false when no
// active integration matched.
func (r *PostgresIntegrationsRepository) DeactivateIntegration(
	ctx context.Context,
	id, userID string,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.integrations
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE`,
		r.schema)

	result, err := db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate integration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// UpdateIntegrationTokens stores a refreshed credential set
func (r *PostgresIntegrationsRepository) UpdateIntegrationTokens(
	ctx context.Context,
	id string,
	accessToken string,
	refreshToken *string,
	tokenExpiresAt *time.Time,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.integrations
		SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = NOW()
		WHERE id = $1`,
		r.schema)

	result, err := db.ExecContext(ctx, query, id, accessToken, refreshToken, tokenExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to update integration tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.ErrNotFound
	}

	return nil
}

// UpdateIntegrationSyncState advances the sync cursor and last_sync_at after
// a completed sync. Failed syncs must never call this.
func (r *PostgresIntegrationsRepository) UpdateIntegrationSyncState(
	ctx context.Context,
	id string,
	syncCursor *string,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.integrations
		SET sync_cursor = COALESCE($2, sync_cursor), last_sync_at = NOW(), updated_at = NOW()
		WHERE id = $1`,
		r.schema)

	result, err := db.ExecContext(ctx, query, id, syncCursor)
	if err != nil {
		return fmt.Errorf("failed to update integration sync state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.ErrNotFound
	}

	return nil
}
