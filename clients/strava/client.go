package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"fitbackend/clients"
	"fitbackend/models"
)

const defaultAPIBaseURL = "https://www.strava.com/api/v3"

// Client implements clients.ProviderSyncClient for Strava
type Client struct {
	httpClient *http.Client
	apiBaseURL string
	importer   clients.WorkoutImporter
}

type athleteResponse struct {
	ID int64 `json:"id"`
}

type activityResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	SportType          string  `json:"sport_type"`
	StartDate          string  `json:"start_date"`
	ElapsedTime        int     `json:"elapsed_time"`
	Distance           float64 `json:"distance"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
}

// webhookPayload is Strava's push subscription event shape
type webhookPayload struct {
	ObjectType string `json:"object_type"`
	AspectType string `json:"aspect_type"`
	OwnerID    int64  `json:"owner_id"`
	ObjectID   int64  `json:"object_id"`
	EventTime  int64  `json:"event_time"`
}

// NewClient creates a new Strava API client
func NewClient(importer clients.WorkoutImporter) clients.ProviderSyncClient {
	return NewClientWithBaseURL(importer, defaultAPIBaseURL)
}

// NewClientWithBaseURL creates a Strava client against a custom API base URL (used in tests)
func NewClientWithBaseURL(importer clients.WorkoutImporter, apiBaseURL string) clients.ProviderSyncClient {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBaseURL: apiBaseURL,
		importer:   importer,
	}
}

// ResolveExternalAccountID fetches the authenticated athlete's Strava id
func (c *Client) ResolveExternalAccountID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBaseURL+"/athlete", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create athlete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch athlete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("strava athlete endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var athlete athleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&athlete); err != nil {
		return "", fmt.Errorf("failed to decode athlete response: %w", err)
	}
	if athlete.ID == 0 {
		return "", fmt.Errorf("no athlete id in response")
	}

	return strconv.FormatInt(athlete.ID, 10), nil
}

// SyncActivities pulls activities that started after the integration's sync
// cursor and imports them. The cursor is the unix epoch of the newest
// activity seen so far.
func (c *Client) SyncActivities(ctx context.Context, integration *models.Integration) (*models.SyncResult, error) {
	after := int64(0)
	if integration.SyncCursor != nil {
		parsed, err := strconv.ParseInt(*integration.SyncCursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sync cursor %q: %w", *integration.SyncCursor, err)
		}
		after = parsed
	}

	url := fmt.Sprintf("%s/athlete/activities?after=%d&per_page=100", c.apiBaseURL, after)
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
		return nil, fmt.Errorf("strava activities endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var activities []activityResponse
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities response: %w", err)
	}

	result := &models.SyncResult{}
	newestEpoch := after
	for _, raw := range activities {
		result.ProcessedCount++

		startedAt, err := time.Parse(time.RFC3339, raw.StartDate)
		if err != nil {
			log.Printf("⚠️ Skipping strava activity %d with unparseable start date %q: %v", raw.ID, raw.StartDate, err)
			result.SkippedCount++
			continue
		}

		activity := models.ProviderActivity{
			ExternalID:     strconv.FormatInt(raw.ID, 10),
			Provider:       models.ProviderStrava,
			Name:           raw.Name,
			SportType:      raw.SportType,
			StartedAt:      startedAt,
			DurationSec:    raw.ElapsedTime,
			DistanceM:      decimal.NewFromFloat(raw.Distance),
			ElevationGainM: decimal.NewFromFloat(raw.TotalElevationGain),
		}

		imported, err := c.importer.ImportActivity(ctx, integration.UserID, activity)
		if err != nil {
			return nil, fmt.Errorf("failed to import strava activity %s: %w", activity.ExternalID, err)
		}
		if imported {
			result.ImportedCount++
		} else {
			result.SkippedCount++
		}

		if epoch := startedAt.Unix(); epoch > newestEpoch {
			newestEpoch = epoch
		}
	}

	if newestEpoch > after {
		cursor := strconv.FormatInt(newestEpoch, 10)
		result.NewCursor = &cursor
	}

	return result, nil
}

// ParseWebhookEvent normalizes a Strava push subscription payload. Only
// activity events are recognized - athlete deauthorization updates and
// anything else yield None.
func (c *Client) ParseWebhookEvent(rawPayload []byte) (mo.Option[models.WebhookEvent], error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return mo.None[models.WebhookEvent](), fmt.Errorf("failed to parse strava webhook payload: %w", err)
	}

	if payload.ObjectType != "activity" {
		return mo.None[models.WebhookEvent](), nil
	}

	var eventType models.WebhookEventType
	switch payload.AspectType {
	case "create":
		eventType = models.WebhookEventCreate
	case "update":
		eventType = models.WebhookEventUpdate
	case "delete":
		eventType = models.WebhookEventDelete
	default:
		return mo.None[models.WebhookEvent](), nil
	}

	var rawData map[string]any
	// Payload already parsed once, so this cannot fail on the same bytes
	_ = json.Unmarshal(rawPayload, &rawData)

	event := models.WebhookEvent{
		Provider:         models.ProviderStrava,
		EventType:        eventType,
		ExternalUserID:   strconv.FormatInt(payload.OwnerID, 10),
		ExternalObjectID: strconv.FormatInt(payload.ObjectID, 10),
		EventTime:        time.Unix(payload.EventTime, 0),
		RawData:          rawData,
	}

	return mo.Some(event), nil
}
