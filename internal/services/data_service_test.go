package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"opsdash/internal/config"
	dp "opsdash/internal/dataprocessing"
	"opsdash/internal/shared/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedLoader blocks every load until release is closed and counts how
// many loads started.
type gatedLoader struct {
	mu      sync.Mutex
	started int
	release chan struct{}
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{release: make(chan struct{})}
}

func (g *gatedLoader) LoadResult(_ context.Context, name string) dp.LoadResult {
	g.mu.Lock()
	g.started++
	g.mu.Unlock()

	<-g.release
	return dp.LoadResult{Name: name, Dataset: dp.Dataset{{"n": 1.0}}}
}

func (g *gatedLoader) loads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

func newFixtureDataService(t *testing.T) *DataService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	dir := testutil.WriteDatasetDir(t, nil)
	loader := dp.NewLoader(dp.NewSource(dir, time.Second), dp.WithLocation(time.UTC), dp.WithLogger(logger))
	return NewDataService(loader, config.DatasetsConfig{MaxConcurrency: 3}, logger, nil)
}

func TestDataService_BeforeLoad(t *testing.T) {
	svc := newFixtureDataService(t)

	assert.Nil(t, svc.Snapshot())
	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)

	st := svc.Status()
	assert.False(t, st.Loaded)
	assert.NotNil(t, st.Datasets)
	assert.Nil(t, st.LoadedAt)
}

func TestDataService_Load(t *testing.T) {
	svc := newFixtureDataService(t)

	st, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, st.Loaded)
	assert.Equal(t, TriggerStartup, st.Trigger)
	assert.NotEmpty(t, st.LoadID)
	assert.Equal(t, 20, st.TotalRecords)
	require.Len(t, st.Datasets, 6)
	for _, d := range st.Datasets {
		assert.Empty(t, d.Error, d.Name)
	}

	c, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, st.LoadID, c.LoadID())
	assert.Len(t, c.WaterQuality(), 4)
}

func TestDataService_ReloadReplacesSnapshot(t *testing.T) {
	svc := newFixtureDataService(t)
	ctx := context.Background()

	first, err := svc.Load(ctx)
	require.NoError(t, err)
	old := svc.Snapshot()

	second, err := svc.Reload(ctx, TriggerManual)
	require.NoError(t, err)

	assert.NotEqual(t, first.LoadID, second.LoadID)
	assert.Equal(t, TriggerManual, second.Trigger)
	assert.NotSame(t, old, svc.Snapshot())
	// readers holding the old snapshot still see its data
	assert.Len(t, old.WaterQuality(), 4)
}

func TestDataService_FailedDatasetDegradesToEmpty(t *testing.T) {
	loader := &MockDatasetLoader{}
	loader.On("LoadResult", mock.Anything, dp.Energy).
		Return(dp.LoadResult{Name: dp.Energy, Dataset: dp.Dataset{}, Err: errors.New("connection refused")})
	loader.On("LoadResult", mock.Anything, mock.Anything).
		Return(dp.LoadResult{Dataset: dp.Dataset{{"x": 1.0}}})

	svc := NewDataService(loader, config.DatasetsConfig{}, nil, nil)
	st, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, st.TotalRecords)
	for _, d := range st.Datasets {
		if d.Name == dp.Energy {
			assert.Equal(t, "connection refused", d.Error)
			assert.Zero(t, d.Records)
		}
	}
	assert.Empty(t, svc.Snapshot().Energy())
	loader.AssertNumberOfCalls(t, "LoadResult", 6)
}

func TestDataService_ConcurrentReloadsShareOneLoad(t *testing.T) {
	loader := newGatedLoader()
	svc := NewDataService(loader, config.DatasetsConfig{}, nil, nil)

	const callers = 5
	results := make([]LoadStatus, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = svc.Reload(context.Background(), TriggerManual)
	}()
	require.Eventually(t, func() bool { return loader.loads() == 6 }, time.Second, time.Millisecond)

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Reload(context.Background(), TriggerManual)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(loader.release)
	wg.Wait()

	assert.Equal(t, 6, loader.loads())
	for _, r := range results {
		assert.Equal(t, results[0].LoadID, r.LoadID)
	}
}

func TestDataService_ReloadCallerCancelled(t *testing.T) {
	loader := newGatedLoader()
	svc := NewDataService(loader, config.DatasetsConfig{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Reload(ctx, TriggerManual)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return loader.loads() == 6 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// the shared load is not cancelled and still publishes
	close(loader.release)
	assert.Eventually(t, func() bool { return svc.Snapshot() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, 6, svc.Status().TotalRecords)
}

func TestDataService_Subscribe(t *testing.T) {
	svc := newFixtureDataService(t)

	var mu sync.Mutex
	var got []LoadStatus
	unsubscribe := svc.Subscribe(func(_ context.Context, st LoadStatus) {
		mu.Lock()
		got = append(got, st)
		mu.Unlock()
	})

	first, err := svc.Load(context.Background())
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
	_, err = svc.Reload(context.Background(), TriggerManual)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, first.LoadID, got[0].LoadID)
}
