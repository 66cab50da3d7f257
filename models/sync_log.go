package models

import (
	"time"
)

// SyncStatus is the lifecycle state of one sync run.
// Transitions: pending -> in_progress -> {completed | failed}.
// Both terminal states are final - a terminal row is never updated again.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
)

// IsTerminal reports whether the status is one of the two final states
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// SyncLog records one sync attempt for an integration. The row is inserted
// in in_progress state before any network call is made, so a crash mid-sync
// leaves a visible in-flight record instead of losing the attempt.
type SyncLog struct {
	ID             string     `db:"id"              json:"id"`
	IntegrationID  string     `db:"integration_id"  json:"integration_id"`
	Status         SyncStatus `db:"status"          json:"status"`
	StartedAt      time.Time  `db:"started_at"      json:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"    json:"completed_at,omitempty"`
	ProcessedCount int        `db:"processed_count" json:"processed_count"`
	ImportedCount  int        `db:"imported_count"  json:"imported_count"`
	SkippedCount   int        `db:"skipped_count"   json:"skipped_count"`
	ErrorMessage   *string    `db:"error_message"   json:"error_message,omitempty"`
	SyncCursor     *string    `db:"sync_cursor"     json:"sync_cursor,omitempty"`
}
