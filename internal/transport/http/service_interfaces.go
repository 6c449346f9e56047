package http

import (
	"context"

	dp "opsdash/internal/dataprocessing"
	"opsdash/internal/kpi"
	"opsdash/internal/services"
	apiv1 "opsdash/pkg/contracts/api/v1"
)

// AnalyticsServiceInterface defines the KPI operations served over HTTP
type AnalyticsServiceInterface interface {
	Overview(ctx context.Context) (services.Overview, error)
	WaterQualityAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.WaterQualityAnalysis, error)
	DistributionAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.DistributionAnalysis, error)
	NRWAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (kpi.NRWAnalysis, error)
	EnergyAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.EnergyAnalysis, error)
	MaintenanceAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.MaintenanceAnalysis, error)
	CustomerAnalysis(ctx context.Context, req apiv1.AnalysisRequest) (services.CustomerAnalysis, error)
	ComplianceReport(ctx context.Context) (kpi.ComplianceReport, error)
	Alerts(ctx context.Context) ([]kpi.Alert, error)
	Records(ctx context.Context, dataset string, req apiv1.RecordsRequest) (dp.Dataset, error)
}

// DatasetServiceInterface defines the snapshot operations served over HTTP
type DatasetServiceInterface interface {
	Status() services.LoadStatus
	Reload(ctx context.Context, trigger string) (services.LoadStatus, error)
}
