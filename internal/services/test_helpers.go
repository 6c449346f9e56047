package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	dp "opsdash/internal/dataprocessing"
)

// MockDatasetLoader is a testify mock for dataprocessing.DatasetLoader.
type MockDatasetLoader struct {
	mock.Mock
}

// LoadResult implements dataprocessing.DatasetLoader
func (m *MockDatasetLoader) LoadResult(ctx context.Context, name string) dp.LoadResult {
	args := m.Called(ctx, name)
	return args.Get(0).(dp.LoadResult)
}

// StaticSnapshot serves a fixed cache to AnalyticsService.
type StaticSnapshot struct {
	Cache *dp.Cache
}

// Snapshot implements SnapshotProvider
func (s StaticSnapshot) Snapshot() *dp.Cache { return s.Cache }
