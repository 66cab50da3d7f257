package synclogs

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"fitbackend/models"
)

// MockSyncLogsService is a mock implementation of the SyncLogsService interface
type MockSyncLogsService struct {
	mock.Mock
}

func (m *MockSyncLogsService) StartSyncRun(ctx context.Context, integrationID string) (*models.SyncLog, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncLog), args.Error(1)
}

func (m *MockSyncLogsService) CompleteSyncRun(
	ctx context.Context,
	syncLogID string,
	status models.SyncStatus,
	result *models.SyncResult,
	errorMessage *string,
) (mo.Option[*models.SyncLog], error) {
	args := m.Called(ctx, syncLogID, status, result, errorMessage)
	return args.Get(0).(mo.Option[*models.SyncLog]), args.Error(1)
}

func (m *MockSyncLogsService) GetSyncHistory(
	ctx context.Context,
	integrationID string,
	limit int,
) ([]*models.SyncLog, error) {
	args := m.Called(ctx, integrationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SyncLog), args.Error(1)
}

func (m *MockSyncLogsService) FailAbandonedSyncRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}
