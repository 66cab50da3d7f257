package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitbackend/clients"
	"fitbackend/config"
	"fitbackend/core"
	"fitbackend/models"
)

// Client implements the clients.OAuthClient interface against the configured
// providers' OAuth2 endpoints
type Client struct {
	httpClient *http.Client
	providers  map[models.ProviderType]config.ProviderConfig
	baseURL    string // public base URL used to build redirect URIs
}

// tokenResponse is the raw provider token endpoint response. Providers
// disagree on expiry reporting: expires_at is an absolute epoch, expires_in
// a relative second count. The former wins when both are present.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// NewClient creates a new OAuth broker for the given provider configurations
func NewClient(providers map[models.ProviderType]config.ProviderConfig, publicBaseURL string) clients.OAuthClient {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		providers:  providers,
		baseURL:    strings.TrimRight(publicBaseURL, "/"),
	}
}

func (c *Client) providerConfig(provider models.ProviderType) (config.ProviderConfig, error) {
	cfg, ok := c.providers[provider]
	if !ok || !cfg.IsConfigured() {
		return config.ProviderConfig{}, fmt.Errorf("%w: %s", core.ErrUnsupportedProvider, provider)
	}
	return cfg, nil
}

// BuildAuthorizationURL constructs the provider authorize URL with a state
// token embedding the requesting user
func (c *Client) BuildAuthorizationURL(provider models.ProviderType, userID string, redirectOverride string) (string, error) {
	cfg, err := c.providerConfig(provider)
	if err != nil {
		return "", err
	}

	state, err := EncodeState(userID, provider)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	redirectURI := redirectOverride
	if redirectURI == "" {
		redirectURI = fmt.Sprintf("%s/api/integrations/%s/callback", c.baseURL, provider)
	}

	params := url.Values{}
	params.Set("client_id", cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", strings.Join(cfg.Scopes, ","))
	params.Set("state", state)
	if provider == models.ProviderStrava {
		params.Set("approval_prompt", "auto")
	}

	return cfg.AuthorizeURL + "?" + params.Encode(), nil
}

// ExchangeCodeForToken exchanges an authorization code for tokens
func (c *Client) ExchangeCodeForToken(ctx context.Context, provider models.ProviderType, code string) (*models.TokenResponse, error) {
	cfg, err := c.providerConfig(provider)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	return c.postTokenEndpoint(ctx, cfg.TokenURL, form)
}

// RefreshToken exchanges a refresh token for a fresh access token
func (c *Client) RefreshToken(ctx context.Context, provider models.ProviderType, refreshToken string) (*models.TokenResponse, error) {
	cfg, err := c.providerConfig(provider)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	return c.postTokenEndpoint(ctx, cfg.TokenURL, form)
}

// RevokeToken revokes an access token provider-side. Best effort: returns
// false for providers without a revoke endpoint and on any failure.
func (c *Client) RevokeToken(ctx context.Context, provider models.ProviderType, accessToken string) bool {
	cfg, err := c.providerConfig(provider)
	if err != nil {
		return false
	}
	if cfg.RevokeURL == "" {
		log.Printf("📋 Provider %s has no revoke endpoint, skipping provider-side revocation", provider)
		return false
	}

	form := url.Values{"access_token": {accessToken}}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("❌ Failed to create revoke request for %s: %v", provider, err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ Failed to revoke %s token: %v", provider, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("❌ %s revoke endpoint returned status %d, body: %s", provider, resp.StatusCode, string(body))
		return false
	}

	return true
}

func (c *Client) postTokenEndpoint(ctx context.Context, tokenURL string, form url.Values) (*models.TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Status and body are retained for server logs only - never shown to
		// the end user.
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if raw.AccessToken == "" {
		return nil, fmt.Errorf("no access token in response")
	}

	token := &models.TokenResponse{
		AccessToken: raw.AccessToken,
		TokenType:   "Bearer",
	}
	if raw.TokenType != "" {
		token.TokenType = raw.TokenType
	}
	if raw.RefreshToken != "" {
		refresh := raw.RefreshToken
		token.RefreshToken = &refresh
	}
	if raw.ExpiresAt > 0 {
		expiresAt := time.Unix(raw.ExpiresAt, 0)
		token.ExpiresAt = &expiresAt
	} else if raw.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(raw.ExpiresIn) * time.Second)
		token.ExpiresAt = &expiresAt
	}
	if raw.Scope != "" {
		token.Scopes = strings.Split(raw.Scope, ",")
	}

	return token, nil
}
