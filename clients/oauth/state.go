package oauth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitbackend/models"
)

// EncodeState serializes an OAuth state payload for the given user and
// provider into a base64url string carried through the redirect
func EncodeState(userID string, provider models.ProviderType) (string, error) {
	state := models.OAuthState{
		UserID:    userID,
		Provider:  provider,
		Timestamp: time.Now().Unix(),
		Nonce:     uuid.New().String(),
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal oauth state: %w", err)
	}

	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodeState decodes a state token received on the OAuth callback.
// It fails closed: any corruption, bad encoding, or missing field yields an
// error and the callback must be rejected as unauthorized.
func DecodeState(encoded string) (*models.OAuthState, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}

	var state models.OAuthState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}

	if state.UserID == "" {
		return nil, fmt.Errorf("oauth state has no user id")
	}
	if _, err := models.ParseProvider(string(state.Provider)); err != nil {
		return nil, fmt.Errorf("oauth state has invalid provider: %w", err)
	}

	return &state, nil
}
