package synclogs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"fitbackend/core"
	"fitbackend/db"
	"fitbackend/models"
)

type SyncLogsService struct {
	syncLogsRepo *db.PostgresSyncLogsRepository
}

func NewSyncLogsService(repo *db.PostgresSyncLogsRepository) *SyncLogsService {
	return &SyncLogsService{syncLogsRepo: repo}
}

// StartSyncRun records that a sync is now running for the integration. The
// underlying insert is also the per-integration lease: if another run is
// already in progress this returns core.ErrSyncAlreadyRunning.
func (s *SyncLogsService) StartSyncRun(ctx context.Context, integrationID string) (*models.SyncLog, error) {
	log.Printf("📋 Starting sync run for integration: %s", integrationID)
	if !core.IsValidULID(integrationID) {
		return nil, fmt.Errorf("integration ID must be a valid ULID")
	}

	syncLog, err := s.syncLogsRepo.CreateInProgressSyncLog(ctx, integrationID)
	if err != nil {
		if err == core.ErrSyncAlreadyRunning {
			return nil, err
		}
		return nil, fmt.Errorf("failed to start sync run: %w", err)
	}

	log.Printf("📋 Completed successfully - started sync run: %s", syncLog.ID)
	return syncLog, nil
}

// CompleteSyncRun finalizes a running sync and returns the row as the
// database stamped it. Returns None when the run was already finalized by
// someone else - callers must treat that as a no-op.
func (s *SyncLogsService) CompleteSyncRun(
	ctx context.Context,
	syncLogID string,
	status models.SyncStatus,
	result *models.SyncResult,
	errorMessage *string,
) (mo.Option[*models.SyncLog], error) {
	log.Printf("📋 Starting to complete sync run: %s with status: %s", syncLogID, status)
	if !status.IsTerminal() {
		return mo.None[*models.SyncLog](), fmt.Errorf("sync run can only be completed with a terminal status, got: %s", status)
	}
	if result == nil {
		result = &models.SyncResult{}
	}

	maybeFinalized, err := s.syncLogsRepo.CompleteSyncLog(ctx, syncLogID, status, result, errorMessage)
	if err != nil {
		return mo.None[*models.SyncLog](), fmt.Errorf("failed to complete sync run: %w", err)
	}
	if !maybeFinalized.IsPresent() {
		log.Printf("⚠️ Sync run %s was already finalized, skipping terminal update", syncLogID)
		return maybeFinalized, nil
	}

	log.Printf("📋 Completed successfully - sync run %s finished as %s", syncLogID, status)
	return maybeFinalized, nil
}

func (s *SyncLogsService) GetSyncHistory(
	ctx context.Context,
	integrationID string,
	limit int,
) ([]*models.SyncLog, error) {
	log.Printf("📋 Starting to get sync history for integration: %s", integrationID)
	if !core.IsValidULID(integrationID) {
		return nil, fmt.Errorf("integration ID must be a valid ULID")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	syncLogs, err := s.syncLogsRepo.GetSyncLogsByIntegrationID(ctx, integrationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync history: %w", err)
	}

	log.Printf("📋 Completed successfully - found %d sync runs for integration: %s", len(syncLogs), integrationID)
	return syncLogs, nil
}

// FailAbandonedSyncRuns reaps in_progress runs whose process died before
// finalizing them, releasing the per-integration lease.
func (s *SyncLogsService) FailAbandonedSyncRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	reaped, err := s.syncLogsRepo.FailAbandonedSyncLogs(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to reap abandoned sync runs: %w", err)
	}
	if reaped > 0 {
		log.Printf("⚠️ Reaped %d abandoned sync runs older than %s", reaped, olderThan)
	}
	return reaped, nil
}
