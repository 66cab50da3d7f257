package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"fitbackend/clients"
	"fitbackend/models"
)

const defaultAPIBaseURL = "https://apis.garmin.com"

// Client implements clients.ProviderSyncClient for Garmin Connect
type Client struct {
	httpClient *http.Client
	apiBaseURL string
	importer   clients.WorkoutImporter
}

type userIDResponse struct {
	UserID string `json:"userId"`
}

type activitySummary struct {
	SummaryID             string  `json:"summaryId"`
	ActivityName          string  `json:"activityName"`
	ActivityType          string  `json:"activityType"`
	StartTimeInSeconds    int64   `json:"startTimeInSeconds"`
	DurationInSeconds     int     `json:"durationInSeconds"`
	DistanceInMeters      float64 `json:"distanceInMeters"`
	ElevationGainInMeters float64 `json:"elevationGainInMeters"`
}

// webhookPayload is Garmin's push notification shape: a batch of activity
// summaries keyed by the owning user
type webhookPayload struct {
	Activities []struct {
		UserID             string `json:"userId"`
		SummaryID          string `json:"summaryId"`
		StartTimeInSeconds int64  `json:"startTimeInSeconds"`
	} `json:"activities"`
}

// NewClient creates a new Garmin API client
func NewClient(importer clients.WorkoutImporter) clients.ProviderSyncClient {
	return NewClientWithBaseURL(importer, defaultAPIBaseURL)
}

// NewClientWithBaseURL creates a Garmin client against a custom API base URL (used in tests)
func NewClientWithBaseURL(importer clients.WorkoutImporter, apiBaseURL string) clients.ProviderSyncClient {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBaseURL: apiBaseURL,
		importer:   importer,
	}
}

// ResolveExternalAccountID fetches the authenticated user's Garmin id
func (c *Client) ResolveExternalAccountID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBaseURL+"/wellness-api/rest/user/id", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create user id request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user id: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("garmin user endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var user userIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("failed to decode user id response: %w", err)
	}
	if user.UserID == "" {
		return "", fmt.Errorf("no user id in response")
	}

	return user.UserID, nil
}

// SyncActivities pulls activity summaries uploaded after the integration's
// sync cursor and imports them. The cursor is the unix epoch of the newest
// activity start seen so far.
func (c *Client) SyncActivities(ctx context.Context, integration *models.Integration) (*models.SyncResult, error) {
	after := int64(0)
	if integration.SyncCursor != nil {
		parsed, err := strconv.ParseInt(*integration.SyncCursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sync cursor %q: %w", *integration.SyncCursor, err)
		}
		after = parsed
	}

	url := fmt.Sprintf("%s/wellness-api/rest/activities?uploadStartTimeInSeconds=%d", c.apiBaseURL, after)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+integration.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("garmin activities endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var summaries []activitySummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		return nil, fmt.Errorf("failed to decode activities response: %w", err)
	}

	result := &models.SyncResult{}
	newestEpoch := after
	for _, raw := range summaries {
		result.ProcessedCount++

		startedAt := time.Unix(raw.StartTimeInSeconds, 0)
		activity := models.ProviderActivity{
			ExternalID:     raw.SummaryID,
			Provider:       models.ProviderGarmin,
			Name:           raw.ActivityName,
			SportType:      raw.ActivityType,
			StartedAt:      startedAt,
			DurationSec:    raw.DurationInSeconds,
			DistanceM:      decimal.NewFromFloat(raw.DistanceInMeters),
			ElevationGainM: decimal.NewFromFloat(raw.ElevationGainInMeters),
		}

		imported, err := c.importer.ImportActivity(ctx, integration.UserID, activity)
		if err != nil {
			return nil, fmt.Errorf("failed to import garmin activity %s: %w", activity.ExternalID, err)
		}
		if imported {
			result.ImportedCount++
		} else {
			result.SkippedCount++
		}

		if raw.StartTimeInSeconds > newestEpoch {
			newestEpoch = raw.StartTimeInSeconds
		}
	}

	if newestEpoch > after {
		cursor := strconv.FormatInt(newestEpoch, 10)
		result.NewCursor = &cursor
	}

	return result, nil
}

// ParseWebhookEvent normalizes a Garmin push notification. Garmin pushes are
// always freshly uploaded activities, so they map to create events.
func (c *Client) ParseWebhookEvent(rawPayload []byte) (mo.Option[models.WebhookEvent], error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return mo.None[models.WebhookEvent](), fmt.Errorf("failed to parse garmin webhook payload: %w", err)
	}

	for _, a := range payload.Activities {
		if a.UserID == "" {
			continue
		}

		event := models.WebhookEvent{
			Provider:         models.ProviderGarmin,
			EventType:        models.WebhookEventCreate,
			ExternalUserID:   a.UserID,
			ExternalObjectID: a.SummaryID,
			EventTime:        time.Unix(a.StartTimeInSeconds, 0),
			RawData:          map[string]any{"summary_id": a.SummaryID},
		}
		return mo.Some(event), nil
	}

	return mo.None[models.WebhookEvent](), nil
}
