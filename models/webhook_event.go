package models

import (
	"time"
)

// WebhookEventType is the normalized kind of an inbound provider event
type WebhookEventType string

const (
	WebhookEventCreate WebhookEventType = "create"
	WebhookEventUpdate WebhookEventType = "update"
	WebhookEventDelete WebhookEventType = "delete"
)

// WebhookEvent is the canonical envelope produced from a provider-specific
// webhook payload. It is transient - consumed immediately, never stored.
type WebhookEvent struct {
	Provider         ProviderType     `json:"provider"`
	EventType        WebhookEventType `json:"event_type"`
	ExternalUserID   string           `json:"external_user_id"`
	ExternalObjectID string           `json:"external_object_id"`
	EventTime        time.Time        `json:"event_time"`
	RawData          map[string]any   `json:"raw_data"`
}
