package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/mo"

	"fitbackend/core"
	dbtx "fitbackend/db/tx"
	"fitbackend/models"
)

type PostgresSyncLogsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for sync_logs table
var syncLogsColumns = []string{
	"id",
	"integration_id",
	"status",
	"started_at",
	"completed_at",
	"processed_count",
	"imported_count",
	"skipped_count",
	"error_message",
	"sync_cursor",
}

func NewPostgresSyncLogsRepository(db *sqlx.DB, schema string) *PostgresSyncLogsRepository {
	return &PostgresSyncLogsRepository{db: db, schema: schema}
}

// CreateInProgressSyncLog inserts the in_progress row that marks a sync as
// running. The table carries a partial unique index on integration_id for
// rows WHERE status = 'in_progress', so the insert doubles as the per
// integration lease: a second concurrent sync hits the unique violation and
// surfaces as core.ErrSyncAlreadyRunning.
func (r *PostgresSyncLogsRepository) CreateInProgressSyncLog(
	ctx context.Context,
	integrationID string,
) (*models.SyncLog, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("sl")
	returningStr := strings.Join(syncLogsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.sync_logs (id, integration_id, status, started_at)
		VALUES ($1, $2, 'in_progress', NOW())
		RETURNING %s
	`, r.schema, returningStr)

	var syncLog models.SyncLog
	err := db.QueryRowxContext(ctx, query, id, integrationID).StructScan(&syncLog)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, core.ErrSyncAlreadyRunning
		}
		return nil, fmt.Errorf("failed to create sync log: %w", err)
	}

	return &syncLog, nil
}

// CompleteSyncLog moves an in_progress row to its terminal state and returns
// the finalized row as the database stamped it. The status guard in the WHERE
// clause makes the transition exactly-once: if another writer already
// finalized the row, zero rows match and the caller gets None instead of a
// double write.
func (r *PostgresSyncLogsRepository) CompleteSyncLog(
	ctx context.Context,
	id string,
	status models.SyncStatus,
	result *models.SyncResult,
	errorMessage *string,
) (mo.Option[*models.SyncLog], error) {
	if !status.IsTerminal() {
		return mo.None[*models.SyncLog](), fmt.Errorf("status %s is not terminal", status)
	}

	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(syncLogsColumns, ", ")
	query := fmt.Sprintf(`
		UPDATE %s.sync_logs
		SET status = $2,
			completed_at = NOW(),
			processed_count = $3,
			imported_count = $4,
			skipped_count = $5,
			error_message = $6,
			sync_cursor = $7
		WHERE id = $1 AND status = 'in_progress'
		RETURNING %s`,
		r.schema, returningStr)

	var syncLog models.SyncLog
	err := db.QueryRowxContext(
		ctx,
		query,
		id,
		status,
		result.ProcessedCount,
		result.ImportedCount,
		result.SkippedCount,
		errorMessage,
		result.NewCursor,
	).StructScan(&syncLog)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.SyncLog](), nil
		}
		return mo.None[*models.SyncLog](), fmt.Errorf("failed to complete sync log: %w", err)
	}

	return mo.Some(&syncLog), nil
}

func (r *PostgresSyncLogsRepository) GetSyncLogsByIntegrationID(
	ctx context.Context,
	integrationID string,
	limit int,
) ([]*models.SyncLog, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(syncLogsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.sync_logs
		WHERE integration_id = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		returningStr, r.schema)

	var syncLogs []*models.SyncLog
	if err := db.SelectContext(ctx, &syncLogs, query, integrationID, limit); err != nil {
		return nil, fmt.Errorf("failed to get sync logs by integration id: %w", err)
	}

	return syncLogs, nil
}

// FailAbandonedSyncLogs reaps in_progress rows older than the cutoff. These
// are leases orphaned by a crash - finishing them as failed releases the
// integration for the next sync attempt.
func (r *PostgresSyncLogsRepository) FailAbandonedSyncLogs(
	ctx context.Context,
	olderThan time.Duration,
) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.sync_logs
		SET status = 'failed',
			completed_at = NOW(),
			error_message = 'sync abandoned: no heartbeat before deadline'
		WHERE status = 'in_progress' AND started_at < NOW() - $1::interval`,
		r.schema)

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	result, err := db.ExecContext(ctx, query, interval)
	if err != nil {
		return 0, fmt.Errorf("failed to fail abandoned sync logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
