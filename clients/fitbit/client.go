package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"fitbackend/clients"
	"fitbackend/models"
)

const defaultAPIBaseURL = "https://api.fitbit.com"

// Client implements clients.ProviderSyncClient for Fitbit
type Client struct {
	httpClient *http.Client
	apiBaseURL string
	importer   clients.WorkoutImporter
}

type profileResponse struct {
	User struct {
		EncodedID string `json:"encodedId"`
	} `json:"user"`
}

type activityLogResponse struct {
	Activities []struct {
		LogID         int64   `json:"logId"`
		ActivityName  string  `json:"activityName"`
		StartTime     string  `json:"startTime"`
		Duration      int64   `json:"duration"` // milliseconds
		Distance      float64 `json:"distance"` // kilometers
		ElevationGain float64 `json:"elevationGain"`
	} `json:"activities"`
}

// webhookNotification is one entry of Fitbit's subscription notification
// batch. Fitbit posts a JSON array of these.
type webhookNotification struct {
	CollectionType string `json:"collectionType"`
	Date           string `json:"date"`
	OwnerID        string `json:"ownerId"`
	OwnerType      string `json:"ownerType"`
	SubscriptionID string `json:"subscriptionId"`
}

// NewClient creates a new Fitbit API client
func NewClient(importer clients.WorkoutImporter) clients.ProviderSyncClient {
	return NewClientWithBaseURL(importer, defaultAPIBaseURL)
}

// NewClientWithBaseURL creates a Fitbit client against a custom API base URL (used in tests)
func NewClientWithBaseURL(importer clients.WorkoutImporter, apiBaseURL string) clients.ProviderSyncClient {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBaseURL: apiBaseURL,
		importer:   importer,
	}
}

// ResolveExternalAccountID fetches the authenticated user's Fitbit encoded id
func (c *Client) ResolveExternalAccountID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBaseURL+"/1/user/-/profile.json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("fitbit profile endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode profile response: %w", err)
	}
	if profile.User.EncodedID == "" {
		return "", fmt.Errorf("no encoded user id in response")
	}

	return profile.User.EncodedID, nil
}

// SyncActivities pulls activity log entries after the integration's sync
// cursor and imports them. The cursor is an RFC3339 timestamp of the newest
// activity seen so far.
func (c *Client) SyncActivities(ctx context.Context, integration *models.Integration) (*models.SyncResult, error) {
	afterDate := "1970-01-01T00:00:00"
	if integration.SyncCursor != nil {
		afterDate = *integration.SyncCursor
	}

	query := url.Values{}
	query.Set("afterDate", afterDate)
	query.Set("sort", "asc")
	query.Set("offset", "0")
	query.Set("limit", "100")

	reqURL := c.apiBaseURL + "/1/user/-/activities/list.json?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
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
		return nil, fmt.Errorf("fitbit activities endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var logResp activityLogResponse
	if err := json.NewDecoder(resp.Body).Decode(&logResp); err != nil {
		return nil, fmt.Errorf("failed to decode activities response: %w", err)
	}

	result := &models.SyncResult{}
	var newest time.Time
	for _, raw := range logResp.Activities {
		result.ProcessedCount++

		startedAt, err := time.Parse("2006-01-02T15:04:05.000", raw.StartTime)
		if err != nil {
			log.Printf("⚠️ Skipping fitbit activity %d with unparseable start time %q: %v", raw.LogID, raw.StartTime, err)
			result.SkippedCount++
			continue
		}

		activity := models.ProviderActivity{
			ExternalID:     fmt.Sprintf("%d", raw.LogID),
			Provider:       models.ProviderFitbit,
			Name:           raw.ActivityName,
			SportType:      raw.ActivityName,
			StartedAt:      startedAt,
			DurationSec:    int(raw.Duration / 1000),
			DistanceM:      decimal.NewFromFloat(raw.Distance).Mul(decimal.NewFromInt(1000)),
			ElevationGainM: decimal.NewFromFloat(raw.ElevationGain),
		}

		imported, err := c.importer.ImportActivity(ctx, integration.UserID, activity)
		if err != nil {
			return nil, fmt.Errorf("failed to import fitbit activity %s: %w", activity.ExternalID, err)
		}
		if imported {
			result.ImportedCount++
		} else {
			result.SkippedCount++
		}

		if startedAt.After(newest) {
			newest = startedAt
		}
	}

	if !newest.IsZero() {
		cursor := newest.Format("2006-01-02T15:04:05")
		result.NewCursor = &cursor
	}

	return result, nil
}

// ParseWebhookEvent normalizes a Fitbit subscription notification batch.
// Only "activities" collection notifications are recognized; Fitbit does not
// distinguish create from update, so everything maps to update.
func (c *Client) ParseWebhookEvent(rawPayload []byte) (mo.Option[models.WebhookEvent], error) {
	var notifications []webhookNotification
	if err := json.Unmarshal(rawPayload, &notifications); err != nil {
		return mo.None[models.WebhookEvent](), fmt.Errorf("failed to parse fitbit webhook payload: %w", err)
	}

	for _, n := range notifications {
		if n.CollectionType != "activities" || n.OwnerID == "" {
			continue
		}

		eventTime, err := time.Parse("2006-01-02", n.Date)
		if err != nil {
			eventTime = time.Now()
		}

		event := models.WebhookEvent{
			Provider:         models.ProviderFitbit,
			EventType:        models.WebhookEventUpdate,
			ExternalUserID:   n.OwnerID,
			ExternalObjectID: n.SubscriptionID,
			EventTime:        eventTime,
			RawData:          map[string]any{"collection_type": n.CollectionType, "date": n.Date},
		}
		return mo.Some(event), nil
	}

	return mo.None[models.WebhookEvent](), nil
}
