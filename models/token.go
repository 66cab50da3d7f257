package models

import (
	"time"
)

// TokenResponse is the normalized result of an OAuth token exchange or refresh
type TokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken *string    `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	TokenType    string     `json:"token_type"`
	Scopes       []string   `json:"scopes,omitempty"`
}

// OAuthState is the payload of the state token carried through the OAuth
// redirect. It is base64-encoded JSON, never persisted, and decoded on the
// callback to correlate the response with the original connect request.
type OAuthState struct {
	UserID    string       `json:"user_id"`
	Provider  ProviderType `json:"provider"`
	Timestamp int64        `json:"ts"`
	Nonce     string       `json:"nonce"`
}
