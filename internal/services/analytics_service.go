package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dp "opsdash/internal/dataprocessing"
	apierrors "opsdash/internal/errors"
	"opsdash/internal/infrastructure"
	"opsdash/internal/kpi"
	apiv1 "opsdash/pkg/contracts/api/v1"
)

// SnapshotProvider is satisfied by *DataService.
type SnapshotProvider interface {
	Snapshot() *dp.Cache
}

// Overview is the dashboard landing payload.
type Overview struct {
	LoadID               string                           `json:"loadId"`
	WaterQuality         kpi.WaterQualitySummary          `json:"waterQuality"`
	Distribution         kpi.DistributionSummary          `json:"distribution"`
	Energy               kpi.EnergySummary                `json:"energy"`
	Maintenance          kpi.MaintenanceSummary           `json:"maintenance"`
	Customer             kpi.CustomerSummary              `json:"customer"`
	ComplaintsByPriority []kpi.ComplaintPriorityBreakdown `json:"complaintsByPriority"`
	AlertCount           int                              `json:"alertCount"`
	CriticalAlertCount   int                              `json:"criticalAlertCount"`
}

// WaterQualityAnalysis is the payload of /api/water-quality/analysis.
type WaterQualityAnalysis struct {
	Summary   kpi.WaterQualitySummary `json:"summary"`
	ByStation []kpi.StationBreakdown  `json:"byStation"`
	Trend     []kpi.WaterQualityMonth `json:"trend"`
}

// DistributionAnalysis is the payload of /api/distribution/analysis.
type DistributionAnalysis struct {
	Summary kpi.DistributionSummary `json:"summary"`
	ByZone  []kpi.ZoneBreakdown     `json:"byZone"`
	Trend   []kpi.DistributionMonth `json:"trend"`
}

// EnergyAnalysis is the payload of /api/energy/analysis.
type EnergyAnalysis struct {
	Summary      kpi.EnergySummary         `json:"summary"`
	ByFacility   []kpi.FacilityBreakdown   `json:"byFacility"`
	ByRatePeriod []kpi.RatePeriodBreakdown `json:"byRatePeriod"`
	Trend        []kpi.EnergyMonth         `json:"trend"`
}

// MaintenanceAnalysis is the payload of /api/maintenance/analysis.
type MaintenanceAnalysis struct {
	Summary       kpi.MaintenanceSummary     `json:"summary"`
	ByAssetType   []kpi.AssetTypeBreakdown   `json:"byAssetType"`
	ByFailureMode []kpi.FailureModeBreakdown `json:"byFailureMode"`
	Trend         []kpi.MaintenanceMonth     `json:"trend"`
}

// CustomerAnalysis is the payload of /api/customers/analysis.
type CustomerAnalysis struct {
	Summary              kpi.CustomerSummary              `json:"summary"`
	ByType               []kpi.CustomerTypeBreakdown      `json:"byType"`
	ComplaintsByType     []kpi.ComplaintTypeBreakdown     `json:"complaintsByType"`
	ComplaintsByPriority []kpi.ComplaintPriorityBreakdown `json:"complaintsByPriority"`
	Trend                []kpi.ComplaintsMonth            `json:"trend"`
}

// AnalyticsService computes KPI payloads from the current snapshot.
type AnalyticsService struct {
	snapshots  SnapshotProvider
	thresholds kpi.Thresholds
	location   *time.Location
	logger     *slog.Logger
}

// NewAnalyticsService creates an analytics service. loc is the zone in
// which from/to dates are interpreted.
func NewAnalyticsService(snapshots SnapshotProvider, thresholds kpi.Thresholds, loc *time.Location, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{
		snapshots:  snapshots,
		thresholds: thresholds,
		location:   loc,
		logger:     infrastructure.WithComponent(logger, "analytics_service"),
	}
}

// Thresholds returns the alert thresholds in use.
func (s *AnalyticsService) Thresholds() kpi.Thresholds {
	return s.thresholds
}

// Overview returns the five domain summaries, complaint priorities and the
// alert counts.
func (s *AnalyticsService) Overview(ctx context.Context) (Overview, error) {
	if err := ctx.Err(); err != nil {
		return Overview{}, err
	}
	c := s.snapshots.Snapshot()
	alerts := kpi.Alerts(c, s.thresholds)

	critical := 0
	for _, a := range alerts {
		if a.Severity == kpi.SeverityCritical {
			critical++
		}
	}

	return Overview{
		LoadID:               c.LoadID(),
		WaterQuality:         kpi.CalculateWaterQuality(c.WaterQuality()),
		Distribution:         kpi.CalculateDistribution(c.Distribution()),
		Energy:               kpi.CalculateEnergy(c.Energy()),
		Maintenance:          kpi.CalculateMaintenance(c.Maintenance()),
		Customer:             kpi.CalculateCustomer(c.Consumption(), c.Complaints()),
		ComplaintsByPriority: kpi.ComplaintsByPriority(c.Complaints()),
		AlertCount:           len(alerts),
		CriticalAlertCount:   critical,
	}, nil
}

// WaterQualityAnalysis returns the water quality summary, station
// breakdown and monthly trend within the requested range.
func (s *AnalyticsService) WaterQualityAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (WaterQualityAnalysis, error) {
	ds, err := s.dataset(ctx, dp.WaterQuality, req.DateRangeRequest)
	if err != nil {
		return WaterQualityAnalysis{}, err
	}
	return WaterQualityAnalysis{
		Summary:   kpi.CalculateWaterQuality(ds),
		ByStation: kpi.WaterQualityByStation(ds),
		Trend:     kpi.WaterQualityTrend(ds),
	}, nil
}

// DistributionAnalysis returns the network summary, zone breakdown and
// monthly trend within the requested range.
func (s *AnalyticsService) DistributionAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (DistributionAnalysis, error) {
	ds, err := s.dataset(ctx, dp.Distribution, req.DateRangeRequest)
	if err != nil {
		return DistributionAnalysis{}, err
	}
	return DistributionAnalysis{
		Summary: kpi.CalculateDistribution(ds),
		ByZone:  kpi.DistributionByZone(ds),
		Trend:   kpi.DistributionTrend(ds),
	}, nil
}

// NRWAnalysis returns the non-revenue water breakdown within the
// requested range.
func (s *AnalyticsService) NRWAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (kpi.NRWAnalysis, error) {
	ds, err := s.dataset(ctx, dp.Distribution, req.DateRangeRequest)
	if err != nil {
		return kpi.NRWAnalysis{}, err
	}
	return kpi.AnalyzeNRW(ds), nil
}

// EnergyAnalysis returns the energy summary and breakdowns within the
// requested range.
func (s *AnalyticsService) EnergyAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (EnergyAnalysis, error) {
	ds, err := s.dataset(ctx, dp.Energy, req.DateRangeRequest)
	if err != nil {
		return EnergyAnalysis{}, err
	}
	return EnergyAnalysis{
		Summary:      kpi.CalculateEnergy(ds),
		ByFacility:   kpi.EnergyByFacility(ds),
		ByRatePeriod: kpi.EnergyByRatePeriod(ds),
		Trend:        kpi.EnergyTrend(ds),
	}, nil
}

// MaintenanceAnalysis returns the maintenance summary and breakdowns
// within the requested range.
func (s *AnalyticsService) MaintenanceAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (MaintenanceAnalysis, error) {
	ds, err := s.dataset(ctx, dp.Maintenance, req.DateRangeRequest)
	if err != nil {
		return MaintenanceAnalysis{}, err
	}
	return MaintenanceAnalysis{
		Summary:       kpi.CalculateMaintenance(ds),
		ByAssetType:   kpi.MaintenanceByAssetType(ds),
		ByFailureMode: kpi.MaintenanceByFailureMode(ds),
		Trend:         kpi.MaintenanceTrend(ds),
	}, nil
}

// CustomerAnalysis returns the customer summary and complaint breakdowns.
// The range applies to billing dates and complaint dates alike.
func (s *AnalyticsService) CustomerAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (CustomerAnalysis, error) {
	consumption, err := s.dataset(ctx, dp.Consumption, req.DateRangeRequest)
	if err != nil {
		return CustomerAnalysis{}, err
	}
	complaints, err := s.dataset(ctx, dp.Complaints, req.DateRangeRequest)
	if err != nil {
		return CustomerAnalysis{}, err
	}
	return CustomerAnalysis{
		Summary:              kpi.CalculateCustomer(consumption, complaints),
		ByType:               kpi.CustomersByType(consumption),
		ComplaintsByType:     kpi.ComplaintsByType(complaints),
		ComplaintsByPriority: kpi.ComplaintsByPriority(complaints),
		Trend:                kpi.ComplaintsTrend(complaints),
	}, nil
}

// ComplianceReport returns the regulatory compliance report.
func (s *AnalyticsService) ComplianceReport(ctx context.Context) (kpi.ComplianceReport, error) {
	if err := ctx.Err(); err != nil {
		return kpi.ComplianceReport{}, err
	}
	c := s.snapshots.Snapshot()
	return kpi.BuildComplianceReport(c.WaterQuality(), c.Distribution(), s.thresholds), nil
}

// Alerts returns the current alerts, critical first.
func (s *AnalyticsService) Alerts(ctx context.Context) ([]kpi.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return kpi.Alerts(s.snapshots.Snapshot(), s.thresholds), nil
}

// Records returns the raw records of the named dataset filtered by date
// range, station and zone, truncated to Limit when set.
func (s *AnalyticsService) Records(ctx context.Context, name string, req apiv1.RecordsRequest) (dp.Dataset, error) {
	ds, err := s.dataset(ctx, name, req.DateRangeRequest)
	if err != nil {
		return nil, err
	}
	if req.Station != "" {
		ds = dp.Filter(ds, dp.FieldEquals("station", req.Station))
	}
	if req.Zone != "" {
		ds = dp.Filter(ds, dp.FieldEquals("zone", req.Zone))
	}
	if req.Limit > 0 && len(ds) > req.Limit {
		ds = ds[:req.Limit]
	}
	return ds, nil
}

// dataset returns the named dataset of the current snapshot restricted to
// the date range on the dataset's time field.
func (s *AnalyticsService) dataset(ctx context.Context, name string, dr apiv1.DateRangeRequest) (dp.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	schema, ok := dp.SchemaFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}

	ds := s.snapshots.Snapshot().Dataset(name)
	if dr.Empty() {
		return ds, nil
	}

	from, to, err := dr.Bounds(s.location)
	if err != nil {
		return nil, apierrors.ErrValidation("from", err.Error())
	}
	s.logger.DebugContext(ctx, "Applying date range",
		slog.String("dataset", name),
		slog.String("from", dr.From),
		slog.String("to", dr.To))

	return dp.Filter(ds, func(r dp.Record) bool {
		t, ok := r.Time(schema.TimeField)
		if !ok {
			return false
		}
		if !from.IsZero() && t.Before(from) {
			return false
		}
		if !to.IsZero() && t.After(to) {
			return false
		}
		return true
	}), nil
}
