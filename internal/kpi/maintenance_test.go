package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dp "opsdash/internal/dataprocessing"
)

func maintenanceFixture() dp.Dataset {
	return dp.Dataset{
		{"maintenance_date": ts("2024-01-10 00:00:00"), "asset_type": "Pump", "maintenance_type": "Preventive",
			"failure_mode": "", "downtime_hours": 2.0, "cost_usd": 500.0, "parts_replaced": "No", "priority": "Low", "completed": "Yes"},
		{"maintenance_date": ts("2024-01-15 00:00:00"), "asset_type": "Pump", "maintenance_type": "Corrective",
			"failure_mode": "Seal Leak", "downtime_hours": 6.0, "cost_usd": 1500.0, "parts_replaced": "Yes", "priority": "High", "completed": "Yes"},
		{"maintenance_date": ts("2024-02-01 00:00:00"), "asset_type": "Valve", "maintenance_type": "Emergency",
			"failure_mode": "Seal Leak", "downtime_hours": 10.0, "cost_usd": 3000.0, "parts_replaced": "Yes", "priority": "Critical", "completed": "No"},
		{"maintenance_date": ts("2024-02-05 00:00:00"), "asset_type": "Meter", "maintenance_type": "Corrective",
			"failure_mode": "Electrical Fault", "downtime_hours": nil, "cost_usd": 200.0, "parts_replaced": "No", "priority": "Critical", "completed": "Yes"},
	}
}

func TestCalculateMaintenance(t *testing.T) {
	got := CalculateMaintenance(maintenanceFixture())

	assert.Equal(t, MaintenanceSummary{
		TotalWorkOrders:     4,
		CompletedWorkOrders: 3,
		CompletionRate:      75,
		AvgDowntime:         6,
		TotalCost:           5200,
		CriticalCount:       2,
		EmergencyCount:      1,
		PreventiveCount:     1,
		CorrectiveCount:     2,
	}, got)
}

func TestCalculateMaintenanceEmpty(t *testing.T) {
	assert.Equal(t, MaintenanceSummary{}, CalculateMaintenance(dp.Dataset{}))
}

func TestMaintenanceByAssetType(t *testing.T) {
	got := MaintenanceByAssetType(maintenanceFixture())
	require.Len(t, got, 3)

	assert.Equal(t, AssetTypeBreakdown{AssetType: "Pump", Count: 2, TotalCost: 2000, AvgDowntime: 4, PartsReplaced: 1}, got[0])
	assert.Equal(t, "Valve", got[1].AssetType)
	assert.Equal(t, "Meter", got[2].AssetType)
	assert.Zero(t, got[2].AvgDowntime)
}

func TestMaintenanceByFailureModeSkipsNonFailures(t *testing.T) {
	got := MaintenanceByFailureMode(maintenanceFixture())
	require.Len(t, got, 2)

	assert.Equal(t, "Seal Leak", got[0].FailureMode)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 8.0, got[0].AvgDowntime, 1e-9)
	assert.InDelta(t, 4500.0, got[0].TotalCost, 1e-9)
	assert.Equal(t, "Electrical Fault", got[1].FailureMode)

	for _, row := range got {
		assert.NotEqual(t, UnknownGroup, row.FailureMode)
	}
}

func TestMaintenanceTrend(t *testing.T) {
	got := MaintenanceTrend(maintenanceFixture())
	require.Len(t, got, 2)

	assert.Equal(t, MaintenanceMonth{Month: "2024-01", Preventive: 1, Corrective: 1, Total: 2, Cost: 2000}, got[0])
	assert.Equal(t, MaintenanceMonth{Month: "2024-02", Corrective: 1, Emergency: 1, Total: 2, Cost: 3200}, got[1])
}
