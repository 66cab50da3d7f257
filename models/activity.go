package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderActivity is a workout activity fetched from a provider API,
// normalized before being handed to the workout importer
type ProviderActivity struct {
	ExternalID     string          `json:"external_id"`
	Provider       ProviderType    `json:"provider"`
	Name           string          `json:"name"`
	SportType      string          `json:"sport_type"`
	StartedAt      time.Time       `json:"started_at"`
	DurationSec    int             `json:"duration_sec"`
	DistanceM      decimal.Decimal `json:"distance_m"`
	ElevationGainM decimal.Decimal `json:"elevation_gain_m"`
	RawData        map[string]any  `json:"raw_data,omitempty"`
}

// SyncResult is what a provider sync routine reports back on success
type SyncResult struct {
	ProcessedCount int
	ImportedCount  int
	SkippedCount   int
	// NewCursor is the incremental pointer for the next run. Nil means the
	// provider routine had nothing newer than the previous cursor.
	NewCursor *string
}
