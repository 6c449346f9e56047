package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	apierrors "opsdash/internal/errors"
	"opsdash/internal/infrastructure"
)

// Source opens a named CSV file.
type Source interface {
	Open(ctx context.Context, file string) (io.ReadCloser, error)
	String() string
}

// HTTPSource fetches files below a base URL.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// Open issues a GET for BaseURL/file. Any non-2xx status is an error.
func (s *HTTPSource) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	target, err := url.JoinPath(s.BaseURL, file)
	if err != nil {
		return nil, fmt.Errorf("invalid dataset url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apierrors.NewTransportError("fetch "+target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, apierrors.NewTransportError(
			fmt.Sprintf("fetch %s: unexpected status %d", target, resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *HTTPSource) String() string { return s.BaseURL }

// DirSource reads files from a local directory.
type DirSource struct {
	Dir string
}

// Open opens Dir/file. The name must not escape Dir.
func (s *DirSource) Open(_ context.Context, file string) (io.ReadCloser, error) {
	if file != filepath.Base(file) {
		return nil, fmt.Errorf("invalid dataset file name %q", file)
	}
	return os.Open(filepath.Join(s.Dir, file))
}

func (s *DirSource) String() string { return s.Dir }

// NewSource picks an HTTPSource for http(s) locations and a DirSource otherwise.
func NewSource(location string, timeout time.Duration) Source {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &HTTPSource{BaseURL: location, Client: &http.Client{Timeout: timeout}}
	}
	return &DirSource{Dir: location}
}

// LoadResult is the outcome of loading one dataset.
type LoadResult struct {
	Name     string
	File     string
	Dataset  Dataset
	Warnings []ParseWarning
	Err      error
	Duration time.Duration
}

// Loader fetches and parses the built-in datasets.
type Loader struct {
	source      Source
	location    *time.Location
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *infrastructure.BusinessMetrics
	maxWarnings int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger; a "component" attribute is added.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithLocation sets the zone used for timestamps without an offset.
func WithLocation(loc *time.Location) LoaderOption {
	return func(l *Loader) {
		if loc != nil {
			l.location = loc
		}
	}
}

// WithTracer sets the tracer used for one span per load.
func WithTracer(tracer trace.Tracer) LoaderOption {
	return func(l *Loader) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithMetrics records load outcomes on m.
func WithMetrics(m *infrastructure.BusinessMetrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// WithMaxWarnings caps how many parse warnings are logged per dataset.
// All warnings are still counted and returned.
func WithMaxWarnings(n int) LoaderOption {
	return func(l *Loader) { l.maxWarnings = n }
}

// NewLoader creates a loader reading from source.
func NewLoader(source Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		source:      source,
		location:    time.Local,
		logger:      slog.Default(),
		tracer:      tracenoop.NewTracerProvider().Tracer("dataprocessing"),
		maxWarnings: 20,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = infrastructure.WithComponent(l.logger, "dataset_loader")
	return l
}

// Load returns the named dataset. It never fails: unknown names, transport
// and parse errors are logged and yield an empty dataset.
func (l *Loader) Load(ctx context.Context, name string) Dataset {
	return l.LoadResult(ctx, name).Dataset
}

// LoadResult loads the named dataset and reports warnings and failures
// alongside it. Dataset is never nil.
func (l *Loader) LoadResult(ctx context.Context, name string) LoadResult {
	ctx, span := l.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("dataset", name)))
	defer span.End()

	start := time.Now()
	result := l.load(ctx, name)
	result.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("dataset.records", len(result.Dataset)),
		attribute.Int("dataset.warnings", len(result.Warnings)),
	)
	infrastructure.RecordError(ctx, result.Err)
	infrastructure.RecordDatasetLoad(ctx, l.metrics, name, len(result.Dataset), len(result.Warnings), result.Duration, result.Err)

	l.logResult(ctx, result)
	return result
}

func (l *Loader) load(ctx context.Context, name string) LoadResult {
	result := LoadResult{Name: name, Dataset: Dataset{}}

	schema, ok := SchemaFor(name)
	if !ok {
		result.Err = fmt.Errorf("unknown dataset %q", name)
		return result
	}
	result.File = schema.File

	body, err := l.source.Open(ctx, schema.File)
	if err != nil {
		result.Err = err
		return result
	}
	defer body.Close()

	dataset, warnings, err := ParseCSV(body, schema, l.location)
	result.Warnings = warnings
	if err != nil {
		result.Err = apierrors.NewParsingError("parse "+schema.File, err).WithContext("dataset", name)
		return result
	}
	result.Dataset = dataset
	return result
}

func (l *Loader) logResult(ctx context.Context, result LoadResult) {
	if result.Err != nil {
		l.logger.ErrorContext(ctx, "Dataset load failed, using empty dataset",
			slog.String("dataset", result.Name),
			slog.String("source", l.source.String()),
			slog.String("error", result.Err.Error()))
		return
	}

	for i, w := range result.Warnings {
		if i >= l.maxWarnings {
			l.logger.WarnContext(ctx, "Further parse warnings suppressed",
				slog.String("dataset", result.Name),
				slog.Int("suppressed", len(result.Warnings)-l.maxWarnings))
			break
		}
		l.logger.WarnContext(ctx, "Cell does not match declared type",
			slog.String("dataset", w.Dataset),
			slog.Int("line", w.Line),
			slog.String("field", w.Field),
			slog.String("value", w.Value),
			slog.String("expected", w.Expected.String()))
	}

	l.logger.InfoContext(ctx, "Dataset loaded",
		slog.String("dataset", result.Name),
		slog.Int("records", len(result.Dataset)),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("duration", result.Duration))
}
