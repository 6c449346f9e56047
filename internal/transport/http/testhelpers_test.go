package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opsdash/internal/config"
	dp "opsdash/internal/dataprocessing"
	apierrors "opsdash/internal/errors"
	"opsdash/internal/kpi"
	"opsdash/internal/middleware"
	"opsdash/internal/services"
	"opsdash/internal/shared/testutil"
	apiv1 "opsdash/pkg/contracts/api/v1"
)

// envelope is the decoded form of both API envelopes
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// newFixtureServices loads the fixture datasets and returns the services
// built on them.
func newFixtureServices(t *testing.T) (*services.DataService, *services.AnalyticsService) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	dir := testutil.WriteDatasetDir(t, nil)
	loader := dp.NewLoader(dp.NewSource(dir, time.Second), dp.WithLocation(time.UTC), dp.WithLogger(logger))
	data := services.NewDataService(loader, config.DatasetsConfig{MaxConcurrency: 3}, logger, nil)
	_, err := data.Load(context.Background())
	require.NoError(t, err)
	return data, services.NewAnalyticsService(data, kpi.DefaultThresholds(), time.UTC, logger)
}

func newAnalyticsRouter(t *testing.T, svc AnalyticsServiceInterface) (http.Handler, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	h := NewAnalyticsHandler(svc, middleware.NewQueryValidator(logger), logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	return r, handler
}

// MockAnalyticsService is a testify mock for AnalyticsServiceInterface
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Overview(ctx context.Context) (services.Overview, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.Overview), args.Error(1)
}

func (m *MockAnalyticsService) WaterQualityAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.WaterQualityAnalysis, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(services.WaterQualityAnalysis), args.Error(1)
}

func (m *MockAnalyticsService) DistributionAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.DistributionAnalysis, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(services.DistributionAnalysis), args.Error(1)
}

func (m *MockAnalyticsService) NRWAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (kpi.NRWAnalysis, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(kpi.NRWAnalysis), args.Error(1)
}

func (m *MockAnalyticsService) EnergyAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.EnergyAnalysis, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(services.EnergyAnalysis), args.Error(1)
}

func (m *MockAnalyticsService) MaintenanceAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.MaintenanceAnalysis, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(services.MaintenanceAnalysis), args.Error(1)
}

func (m *MockAnalyticsService) CustomerAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.CustomerAnalysis, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(services.CustomerAnalysis), args.Error(1)
}

func (m *MockAnalyticsService) ComplianceReport(ctx context.Context) (kpi.ComplianceReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(kpi.ComplianceReport), args.Error(1)
}

func (m *MockAnalyticsService) Alerts(ctx context.Context) ([]kpi.Alert, error) {
	args := m.Called(ctx)
	alerts, _ := args.Get(0).([]kpi.Alert)
	return alerts, args.Error(1)
}

func (m *MockAnalyticsService) Records(ctx context.Context, dataset string, req apiv1.RecordsRequest) (dp.Dataset, error) {
	args := m.Called(ctx, dataset, req)
	ds, _ := args.Get(0).(dp.Dataset)
	return ds, args.Error(1)
}

// MockDatasetService is a testify mock for DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Status() services.LoadStatus {
	return m.Called().Get(0).(services.LoadStatus)
}

func (m *MockDatasetService) Reload(ctx context.Context, trigger string) (services.LoadStatus, error) {
	args := m.Called(ctx, trigger)
	return args.Get(0).(services.LoadStatus), args.Error(1)
}
