package sync

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fitbackend/models"
)

// MockSyncUseCase is a mock implementation of the SyncUseCaseInterface
type MockSyncUseCase struct {
	mock.Mock
}

func (m *MockSyncUseCase) TriggerSync(ctx context.Context, integrationID string) (*models.SyncLog, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncLog), args.Error(1)
}

func (m *MockSyncUseCase) ReapAbandonedSyncRuns(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// passthroughTxManager executes transactional functions directly, with no
// database underneath. Used by unit tests.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) BeginTransaction(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

func (passthroughTxManager) CommitTransaction(ctx context.Context) error { return nil }

func (passthroughTxManager) RollbackTransaction(ctx context.Context) error { return nil }
