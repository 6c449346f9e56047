package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"opsdash/internal/config"
	dp "opsdash/internal/dataprocessing"
	"opsdash/internal/infrastructure"
)

// Reload triggers, reported in LoadStatus and on the cache_reloads metric.
const (
	TriggerStartup   = "startup"
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// LoadStatus describes the snapshot currently served.
type LoadStatus struct {
	Loaded       bool               `json:"loaded"`
	LoadID       string             `json:"loadId,omitempty"`
	LoadedAt     *time.Time         `json:"loadedAt,omitempty"`
	Trigger      string             `json:"trigger,omitempty"`
	TotalRecords int                `json:"totalRecords"`
	Datasets     []dp.DatasetStatus `json:"datasets"`
}

// ReloadListener is called after every published snapshot.
type ReloadListener func(ctx context.Context, status LoadStatus)

type published struct {
	cache   *dp.Cache
	trigger string
}

// DataService owns the dataset loader and the current snapshot.
type DataService struct {
	loader         dp.DatasetLoader
	maxConcurrency int
	logger         *slog.Logger
	metrics        *infrastructure.BusinessMetrics

	current atomic.Pointer[published]
	reloads singleflight.Group

	mu        sync.RWMutex
	listeners map[uint64]ReloadListener
	nextID    uint64
}

// NewDataService creates a data service. No data is loaded until Load or
// Reload is called.
func NewDataService(loader dp.DatasetLoader, cfg config.DatasetsConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		loader:         loader,
		maxConcurrency: cfg.MaxConcurrency,
		logger:         infrastructure.WithComponent(logger, "data_service"),
		metrics:        metrics,
		listeners:      make(map[uint64]ReloadListener),
	}
}

// Load performs the startup load.
func (s *DataService) Load(ctx context.Context) (LoadStatus, error) {
	return s.Reload(ctx, TriggerStartup)
}

// Reload loads every dataset into a new snapshot and publishes it.
// Concurrent calls share one load. A caller whose ctx ends early gets
// ctx.Err(); the shared load still completes and is published.
func (s *DataService) Reload(ctx context.Context, trigger string) (LoadStatus, error) {
	ch := s.reloads.DoChan("reload", func() (interface{}, error) {
		return s.reload(context.WithoutCancel(ctx), trigger), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.DebugContext(ctx, "Joined in-flight reload", slog.String("trigger", trigger))
		}
		return res.Val.(LoadStatus), res.Err
	case <-ctx.Done():
		return LoadStatus{}, ctx.Err()
	}
}

func (s *DataService) reload(ctx context.Context, trigger string) LoadStatus {
	start := time.Now()
	s.logger.InfoContext(ctx, "Reloading datasets", slog.String("trigger", trigger))

	cache := dp.LoadAll(ctx, s.loader, s.maxConcurrency)
	s.current.Store(&published{cache: cache, trigger: trigger})

	duration := time.Since(start)
	infrastructure.RecordCacheReload(ctx, s.metrics, trigger, duration)

	status := s.Status()
	s.logger.InfoContext(ctx, "Datasets reloaded",
		slog.String("load_id", status.LoadID),
		slog.String("trigger", trigger),
		slog.Int("total_records", status.TotalRecords),
		slog.Duration("duration", duration))

	s.notify(ctx, status)
	return status
}

// Snapshot returns the current snapshot, nil before the first load.
func (s *DataService) Snapshot() *dp.Cache {
	if p := s.current.Load(); p != nil {
		return p.cache
	}
	return nil
}

// Current returns the current snapshot or ErrNotLoaded.
func (s *DataService) Current() (*dp.Cache, error) {
	c := s.Snapshot()
	if c == nil {
		return nil, ErrNotLoaded
	}
	return c, nil
}

// Status describes the current snapshot.
func (s *DataService) Status() LoadStatus {
	p := s.current.Load()
	if p == nil {
		return LoadStatus{Datasets: []dp.DatasetStatus{}}
	}

	loadedAt := p.cache.LoadedAt()
	status := LoadStatus{
		Loaded:   true,
		LoadID:   p.cache.LoadID(),
		LoadedAt: &loadedAt,
		Trigger:  p.trigger,
		Datasets: p.cache.Status(),
	}
	for _, d := range status.Datasets {
		status.TotalRecords += d.Records
	}
	return status
}

// Subscribe registers fn to run after every reload and returns a function
// that removes it.
func (s *DataService) Subscribe(fn ReloadListener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *DataService) notify(ctx context.Context, status LoadStatus) {
	s.mu.RLock()
	fns := make([]ReloadListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, status)
	}
}
