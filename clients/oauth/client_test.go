package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitbackend/config"
	"fitbackend/core"
	"fitbackend/models"
)

func testProviderConfig(tokenURL, revokeURL string) config.ProviderConfig {
	return config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{"activity:read_all", "profile:read_all"},
		AuthorizeURL: "https://provider.example.com/oauth/authorize",
		TokenURL:     tokenURL,
		RevokeURL:    revokeURL,
	}
}

func newTestClient(provider models.ProviderType, cfg config.ProviderConfig) *Client {
	return NewClient(map[models.ProviderType]config.ProviderConfig{
		provider: cfg,
	}, "https://api.example.com").(*Client)
}

func TestBuildAuthorizationURL(t *testing.T) {
	client := newTestClient(models.ProviderStrava, testProviderConfig("http://unused", ""))
	userID := core.NewID("u")

	authURL, err := client.BuildAuthorizationURL(models.ProviderStrava, userID, "")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "https://api.example.com/api/integrations/strava/callback", query.Get("redirect_uri"))
	assert.Equal(t, "activity:read_all,profile:read_all", query.Get("scope"))
	assert.Equal(t, "auto", query.Get("approval_prompt"))

	// The state token must decode back to the requesting user
	state, err := DecodeState(query.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, userID, state.UserID)
	assert.Equal(t, models.ProviderStrava, state.Provider)
}

func TestBuildAuthorizationURL_NoApprovalPromptOutsideStrava(t *testing.T) {
	client := newTestClient(models.ProviderFitbit, testProviderConfig("http://unused", ""))

	authURL, err := client.BuildAuthorizationURL(models.ProviderFitbit, core.NewID("u"), "")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Empty(t, parsed.Query().Get("approval_prompt"))
}

func TestBuildAuthorizationURL_UnconfiguredProvider(t *testing.T) {
	client := newTestClient(models.ProviderStrava, testProviderConfig("http://unused", ""))

	_, err := client.BuildAuthorizationURL(models.ProviderGarmin, core.NewID("u"), "")
	assert.ErrorIs(t, err, core.ErrUnsupportedProvider)
}

func TestExchangeCodeForToken_ExpiresAtBeatsExpiresIn(t *testing.T) {
	expiresAtEpoch := time.Now().Add(3 * time.Hour).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "the-code", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_at":    expiresAtEpoch,
			"expires_in":    60, // would be one minute from now; expires_at must win
			"token_type":    "Bearer",
			"scope":         "activity:read_all,profile:read_all",
		})
	}))
	defer server.Close()

	client := newTestClient(models.ProviderStrava, testProviderConfig(server.URL, ""))
	token, err := client.ExchangeCodeForToken(context.Background(), models.ProviderStrava, "the-code")
	require.NoError(t, err)

	assert.Equal(t, "access-1", token.AccessToken)
	require.NotNil(t, token.RefreshToken)
	assert.Equal(t, "refresh-1", *token.RefreshToken)
	require.NotNil(t, token.ExpiresAt)
	assert.Equal(t, expiresAtEpoch, token.ExpiresAt.Unix())
	assert.Equal(t, []string{"activity:read_all", "profile:read_all"}, token.Scopes)
}

func TestExchangeCodeForToken_ExpiresInFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-1",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	client := newTestClient(models.ProviderFitbit, testProviderConfig(server.URL, ""))
	token, err := client.ExchangeCodeForToken(context.Background(), models.ProviderFitbit, "the-code")
	require.NoError(t, err)

	require.NotNil(t, token.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(1*time.Hour), *token.ExpiresAt, 30*time.Second)
	// No refresh token in the response means none in the result
	assert.Nil(t, token.RefreshToken)
	// token_type defaults when the provider omits it
	assert.Equal(t, "Bearer", token.TokenType)
}

func TestExchangeCodeForToken_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := newTestClient(models.ProviderStrava, testProviderConfig(server.URL, ""))
	_, err := client.ExchangeCodeForToken(context.Background(), models.ProviderStrava, "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestRefreshToken_WithoutRotation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "old-refresh", r.FormValue("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-2",
			"expires_in":   21600,
		})
	}))
	defer server.Close()

	client := newTestClient(models.ProviderGarmin, testProviderConfig(server.URL, ""))
	token, err := client.RefreshToken(context.Background(), models.ProviderGarmin, "old-refresh")
	require.NoError(t, err)

	assert.Equal(t, "access-2", token.AccessToken)
	// The provider withheld a rotated refresh token - callers keep the old one
	assert.Nil(t, token.RefreshToken)
}

func TestRevokeToken_Success(t *testing.T) {
	var revokedToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		revokedToken = r.FormValue("access_token")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(models.ProviderStrava, testProviderConfig("http://unused", server.URL))

	assert.True(t, client.RevokeToken(context.Background(), models.ProviderStrava, "access-1"))
	assert.Equal(t, "access-1", revokedToken)
}

func TestRevokeToken_NoEndpoint(t *testing.T) {
	client := newTestClient(models.ProviderGarmin, testProviderConfig("http://unused", ""))

	assert.False(t, client.RevokeToken(context.Background(), models.ProviderGarmin, "access-1"))
}

func TestRevokeToken_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(models.ProviderStrava, testProviderConfig("http://unused", server.URL))

	assert.False(t, client.RevokeToken(context.Background(), models.ProviderStrava, "access-1"))
}

func TestRevokeToken_NeverErrorsOnUnreachableEndpoint(t *testing.T) {
	client := newTestClient(models.ProviderStrava,
		testProviderConfig("http://unused", "http://127.0.0.1:1/revoke"))

	assert.False(t, client.RevokeToken(context.Background(), models.ProviderStrava, "access-1"))
}
