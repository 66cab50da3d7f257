package sync

import (
	"context"
	"fmt"
	"time"
)

// DefaultReaperInterval is how often the abandoned-run reaper wakes up
const DefaultReaperInterval = 5 * time.Minute

// ReapAbandonedSyncRuns fails in_progress sync runs older than the abandoned
// threshold. Such rows are leases orphaned by a crashed or killed process;
// failing them lets the next TriggerSync acquire the lease again.
func (s *SyncUseCase) ReapAbandonedSyncRuns(ctx context.Context) (int64, error) {
	reaped, err := s.syncLogsService.FailAbandonedSyncRuns(ctx, s.abandonedThreshold)
	if err != nil {
		return 0, fmt.Errorf("failed to reap abandoned sync runs: %w", err)
	}
	return reaped, nil
}
