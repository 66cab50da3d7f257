package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitbackend/db"
	"fitbackend/models"
	"fitbackend/testutils"
)

func TestUpsertIntegration_ReconnectUpdatesSameRow(t *testing.T) {
	cfg, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	conn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err)
	defer conn.Close()

	usersRepo := db.NewPostgresUsersRepository(conn, cfg.DatabaseSchema)
	integrationsRepo := db.NewPostgresIntegrationsRepository(conn, cfg.DatabaseSchema)

	ctx := context.Background()
	user := testutils.CreateTestUser(t, usersRepo)

	first := testutils.CreateTestIntegration(t, integrationsRepo, user.ID, models.ProviderStrava)

	// Disconnect, then connect again with fresh credentials
	deactivated, err := integrationsRepo.DeactivateIntegration(ctx, first.ID, user.ID)
	require.NoError(t, err)
	require.True(t, deactivated)

	expiresAt := time.Now().Add(6 * time.Hour)
	refreshToken := "refresh-after-reconnect"
	second, err := integrationsRepo.UpsertIntegration(ctx, &models.Integration{
		UserID:         user.ID,
		Provider:       models.ProviderStrava,
		ExternalUserID: "ext-after-reconnect",
		AccessToken:    "access-after-reconnect",
		RefreshToken:   &refreshToken,
		TokenExpiresAt: &expiresAt,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsActive)
	assert.Equal(t, "ext-after-reconnect", second.ExternalUserID)
	assert.Equal(t, "access-after-reconnect", second.AccessToken)
	assert.False(t, second.ConnectedAt.Before(first.ConnectedAt))

	// Still exactly one row for the (user, provider) pair
	integrations, err := integrationsRepo.GetIntegrationsByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, integrations, 1)
}
