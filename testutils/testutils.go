package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"fitbackend/appctx"
	"fitbackend/config"
	"fitbackend/core"
	"fitbackend/db"
	"fitbackend/models"
)

// LoadTestConfig loads configuration for tests from environment variables
func LoadTestConfig() (*config.AppConfig, error) {
	// Try to load environment variables from various possible locations
	_ = godotenv.Load("../.env.test") // From services/ directory
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		return nil, fmt.Errorf("DB_SCHEMA is not set")
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
	}, nil
}

// SetupTestDB opens a database connection for integration tests, skipping
// the test when no test database is configured
func SetupTestDB(t *testing.T) (*config.AppConfig, func()) {
	cfg, err := LoadTestConfig()
	if err != nil {
		t.Skipf("skipping: test database not configured: %v", err)
	}
	return cfg, func() {}
}

// CreateTestUser creates a test user with a unique auth provider id to avoid
// constraint violations
func CreateTestUser(t *testing.T, usersRepo *db.PostgresUsersRepository) *models.User {
	testUser, err := usersRepo.CreateUser(context.Background(), "test", uuid.New().String())
	require.NoError(t, err, "Failed to create test user")
	return testUser
}

// CreateTestIntegration creates an active integration for the given user
func CreateTestIntegration(
	t *testing.T,
	integrationsRepo *db.PostgresIntegrationsRepository,
	userID string,
	provider models.ProviderType,
) *models.Integration {
	expiresAt := time.Now().Add(6 * time.Hour)
	refreshToken := "test-refresh-" + uuid.New().String()
	integration, err := integrationsRepo.UpsertIntegration(context.Background(), &models.Integration{
		UserID:         userID,
		Provider:       provider,
		ExternalUserID: "ext-" + uuid.New().String(),
		AccessToken:    "test-access-" + uuid.New().String(),
		RefreshToken:   &refreshToken,
		TokenExpiresAt: &expiresAt,
	})
	require.NoError(t, err, "Failed to create test integration")
	require.True(t, core.IsValidULID(integration.ID))
	return integration
}

// CreateTestContext creates a context with the given user set for testing
func CreateTestContext(user *models.User) context.Context {
	return appctx.SetUser(context.Background(), user)
}
