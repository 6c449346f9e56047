package kpi

import (
	dp "opsdash/internal/dataprocessing"
)

const (
	mntDate        = "maintenance_date"
	mntAssetType   = "asset_type"
	mntType        = "maintenance_type"
	mntFailureMode = "failure_mode"
	mntDowntime    = "downtime_hours"
	mntCost        = "cost_usd"
	mntParts       = "parts_replaced"
	mntPriority    = "priority"
	mntCompleted   = "completed"
)

// Work order types.
const (
	Emergency  = "Emergency"
	Preventive = "Preventive"
	Corrective = "Corrective"
)

// MaintenanceSummary aggregates work orders.
type MaintenanceSummary struct {
	TotalWorkOrders     int     `json:"totalWorkOrders"`
	CompletedWorkOrders int     `json:"completedWorkOrders"`
	CompletionRate      float64 `json:"completionRate"`
	AvgDowntime         float64 `json:"avgDowntime"`
	TotalCost           float64 `json:"totalCost"`
	CriticalCount       int     `json:"criticalCount"`
	EmergencyCount      int     `json:"emergencyCount"`
	PreventiveCount     int     `json:"preventiveCount"`
	CorrectiveCount     int     `json:"correctiveCount"`
}

// AssetTypeBreakdown summarises work orders for one asset type.
type AssetTypeBreakdown struct {
	AssetType     string  `json:"assetType"`
	Count         int     `json:"count"`
	TotalCost     float64 `json:"totalCost"`
	AvgDowntime   float64 `json:"avgDowntime"`
	PartsReplaced int     `json:"partsReplaced"`
}

// FailureModeBreakdown summarises work orders for one failure mode.
type FailureModeBreakdown struct {
	FailureMode string  `json:"failureMode"`
	Count       int     `json:"count"`
	AvgDowntime float64 `json:"avgDowntime"`
	TotalCost   float64 `json:"totalCost"`
}

// MaintenanceMonth is one point of the monthly work-order trend.
type MaintenanceMonth struct {
	Month      string  `json:"month"`
	Preventive int     `json:"preventive"`
	Corrective int     `json:"corrective"`
	Emergency  int     `json:"emergency"`
	Total      int     `json:"total"`
	Cost       float64 `json:"cost"`
}

// CalculateMaintenance computes work-order counts, completion rate
// (completed == "Yes"), downtime and cost.
func CalculateMaintenance(ds dp.Dataset) MaintenanceSummary {
	total := len(ds)
	if total == 0 {
		return MaintenanceSummary{}
	}

	completed := dp.CountWhere(ds, dp.FieldEquals(mntCompleted, "Yes"))
	return MaintenanceSummary{
		TotalWorkOrders:     total,
		CompletedWorkOrders: completed,
		CompletionRate:      dp.Rate(completed, total),
		AvgDowntime:         dp.Average(ds, mntDowntime),
		TotalCost:           dp.Sum(ds, mntCost),
		CriticalCount:       dp.CountWhere(ds, dp.FieldEquals(mntPriority, "Critical")),
		EmergencyCount:      dp.CountWhere(ds, dp.FieldEquals(mntType, Emergency)),
		PreventiveCount:     dp.CountWhere(ds, dp.FieldEquals(mntType, Preventive)),
		CorrectiveCount:     dp.CountWhere(ds, dp.FieldEquals(mntType, Corrective)),
	}
}

// MaintenanceByAssetType returns one row per asset type.
func MaintenanceByAssetType(ds dp.Dataset) []AssetTypeBreakdown {
	out := []AssetTypeBreakdown{}
	for _, g := range dp.GroupBy(ds, mntAssetType) {
		out = append(out, AssetTypeBreakdown{
			AssetType:     groupLabel(g),
			Count:         len(g.Records),
			TotalCost:     dp.Sum(g.Records, mntCost),
			AvgDowntime:   dp.Average(g.Records, mntDowntime),
			PartsReplaced: dp.CountWhere(g.Records, dp.FieldEquals(mntParts, "Yes")),
		})
	}
	return out
}

// MaintenanceByFailureMode returns one row per failure mode. Work orders
// without a failure mode (preventive and scheduled work) are not failures
// and are left out.
func MaintenanceByFailureMode(ds dp.Dataset) []FailureModeBreakdown {
	failures := dp.Filter(ds, func(r dp.Record) bool { return r.Truthy(mntFailureMode) })

	out := []FailureModeBreakdown{}
	for _, g := range dp.GroupBy(failures, mntFailureMode) {
		out = append(out, FailureModeBreakdown{
			FailureMode: groupLabel(g),
			Count:       len(g.Records),
			AvgDowntime: dp.Average(g.Records, mntDowntime),
			TotalCost:   dp.Sum(g.Records, mntCost),
		})
	}
	return out
}

// MaintenanceTrend returns monthly work-order counts by type and cost.
func MaintenanceTrend(ds dp.Dataset) []MaintenanceMonth {
	out := []MaintenanceMonth{}
	for _, b := range dp.AggregateByMonth(ds, mntDate) {
		out = append(out, MaintenanceMonth{
			Month:      b.Key,
			Preventive: dp.CountWhere(b.Records, dp.FieldEquals(mntType, Preventive)),
			Corrective: dp.CountWhere(b.Records, dp.FieldEquals(mntType, Corrective)),
			Emergency:  dp.CountWhere(b.Records, dp.FieldEquals(mntType, Emergency)),
			Total:      b.Count,
			Cost:       dp.Sum(b.Records, mntCost),
		})
	}
	return out
}
