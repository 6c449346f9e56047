package dataprocessing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DatasetLoader is satisfied by *Loader.
type DatasetLoader interface {
	LoadResult(ctx context.Context, name string) LoadResult
}

// DatasetStatus summarises one dataset of a snapshot.
type DatasetStatus struct {
	Name       string         `json:"name"`
	File       string         `json:"file"`
	Records    int            `json:"records"`
	Warnings   int            `json:"warnings"`
	Samples    []ParseWarning `json:"sampleWarnings,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"durationMs"`
}

// Cache is an immutable snapshot of every dataset taken by one load cycle.
// A new cycle produces a new Cache; readers holding the old one are unaffected.
type Cache struct {
	loadID   string
	loadedAt time.Time
	datasets map[string]Dataset
	status   []DatasetStatus
}

const sampleWarnings = 5

// LoadAll loads every built-in dataset, at most maxConcurrency at a time
// (unbounded when <= 0), and returns only after all of them have settled.
// A failed dataset is empty in the snapshot; it never aborts the batch.
func LoadAll(ctx context.Context, loader DatasetLoader, maxConcurrency int) *Cache {
	names := DatasetNames()
	results := make([]LoadResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = loader.LoadResult(gctx, name)
			return nil
		})
	}
	_ = g.Wait()

	c := &Cache{
		loadID:   uuid.NewString(),
		loadedAt: time.Now(),
		datasets: make(map[string]Dataset, len(names)),
		status:   make([]DatasetStatus, len(names)),
	}
	for i, r := range results {
		ds := r.Dataset
		if ds == nil {
			ds = Dataset{}
		}
		c.datasets[names[i]] = ds

		st := DatasetStatus{
			Name:       names[i],
			File:       r.File,
			Records:    len(ds),
			Warnings:   len(r.Warnings),
			DurationMS: r.Duration.Milliseconds(),
		}
		if len(r.Warnings) > 0 {
			st.Samples = r.Warnings[:min(len(r.Warnings), sampleWarnings)]
		}
		if r.Err != nil {
			st.Error = r.Err.Error()
		}
		c.status[i] = st
	}
	return c
}

// NewCache builds a snapshot from datasets already in memory. Missing
// built-in names are stored as empty datasets.
func NewCache(datasets map[string]Dataset) *Cache {
	c := &Cache{
		loadID:   uuid.NewString(),
		loadedAt: time.Now(),
		datasets: make(map[string]Dataset, len(datasets)),
	}
	for _, name := range DatasetNames() {
		ds := datasets[name]
		if ds == nil {
			ds = Dataset{}
		}
		c.datasets[name] = ds
		schema, _ := SchemaFor(name)
		c.status = append(c.status, DatasetStatus{Name: name, File: schema.File, Records: len(ds)})
	}
	return c
}

// LoadID identifies the load cycle that produced the snapshot.
func (c *Cache) LoadID() string {
	if c == nil {
		return ""
	}
	return c.loadID
}

// LoadedAt is when the snapshot was published.
func (c *Cache) LoadedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.loadedAt
}

// Status returns per-dataset load details in load order.
func (c *Cache) Status() []DatasetStatus {
	if c == nil {
		return []DatasetStatus{}
	}
	out := make([]DatasetStatus, len(c.status))
	copy(out, c.status)
	return out
}

// Dataset returns the named dataset, empty when unknown or when c is nil.
func (c *Cache) Dataset(name string) Dataset {
	if c == nil {
		return Dataset{}
	}
	if ds, ok := c.datasets[name]; ok {
		return ds
	}
	return Dataset{}
}

func (c *Cache) WaterQuality() Dataset { return c.Dataset(WaterQuality) }
func (c *Cache) Distribution() Dataset { return c.Dataset(Distribution) }
func (c *Cache) Energy() Dataset       { return c.Dataset(Energy) }
func (c *Cache) Maintenance() Dataset  { return c.Dataset(Maintenance) }
func (c *Cache) Consumption() Dataset  { return c.Dataset(Consumption) }
func (c *Cache) Complaints() Dataset   { return c.Dataset(Complaints) }

// Empty reports whether every dataset in the snapshot has no records.
func (c *Cache) Empty() bool {
	if c == nil {
		return true
	}
	for _, ds := range c.datasets {
		if len(ds) > 0 {
			return false
		}
	}
	return true
}
