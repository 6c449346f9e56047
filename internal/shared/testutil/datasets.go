package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Fixture CSV files, one per built-in dataset, spanning January and
// February 2024. Against the default thresholds they raise five alerts:
// Station-01-Downtown compliance (critical), Zone-H-Hills NRW and pressure,
// one open critical complaint and one pending critical work order.
const (
	WaterQualityCSV = `timestamp,station,chlorine_mg_l,ph,turbidity_ntu,chlorine_compliant,ph_compliant,turbidity_compliant,overall_compliant
2024-01-05 08:00:00,Station-01-Downtown,1.2,7.2,0.3,Yes,Yes,Yes,Yes
2024-01-20 08:00:00,Station-01-Downtown,0.1,7.1,0.4,No,Yes,Yes,No
2024-02-03 08:00:00,Station-02-North,1.0,7.4,0.2,Yes,Yes,Yes,Yes
2024-02-17 08:00:00,Station-02-North,1.4,7.0,0.6,Yes,Yes,Yes,Yes
`

	DistributionCSV = `timestamp,zone,flow_rate_gpm,pressure_psi,billed_consumption_gpm,nrw_gpm,nrw_percent,pressure_compliant
2024-01-05 08:00:00,Zone-A-Central,1000,60,850,150,15,Yes
2024-01-20 08:00:00,Zone-A-Central,1100,58,950,150,13.6,Yes
2024-02-03 08:00:00,Zone-H-Hills,800,35,560,240,30,No
2024-02-17 08:00:00,Zone-H-Hills,820,42,590,230,28,Yes
`

	EnergyCSV = `timestamp,facility,energy_consumption_kwh,energy_cost_usd,energy_rate_per_kwh,rate_period,water_produced_gallons,energy_efficiency_gal_per_kwh
2024-01-05 08:00:00,Treatment-Plant-Main,5000,600,0.12,Peak,250000,50
2024-01-05 20:00:00,Treatment-Plant-Main,4000,320,0.08,Off-Peak,200000,50
2024-02-03 08:00:00,Pump-Station-North,1500,180,0.12,Peak,0,0
`

	MaintenanceCSV = `maintenance_date,asset_id,asset_type,maintenance_type,failure_mode,downtime_hours,cost_usd,parts_replaced,priority,completed
2024-01-10,PMP-001,Pump,Preventive,,2,500,Seal kit,Low,Yes
2024-01-22,VLV-014,Valve,Corrective,Corrosion,6,1200,Valve body,Medium,Yes
2024-02-08,PMP-002,Pump,Emergency,Bearing Failure,12,4800,Bearing,Critical,No
`

	ConsumptionCSV = `billing_date,customer_id,customer_type,consumption_gallons,bill_amount_usd,payment_status
2024-01-31,C-1001,Residential,6000,48.5,Paid
2024-01-31,C-2001,Commercial,45000,310,Overdue
2024-02-29,C-1001,Residential,5500,45,Paid
`

	ComplaintsCSV = `complaint_date,complaint_type,priority,status,resolution_date,resolution_hours,customer_satisfied
2024-01-08 09:00:00,Low Pressure,Medium,Resolved,2024-01-09 09:00:00,24,Yes
2024-01-25 14:00:00,Water Quality,Critical,Open,,,
2024-02-12 10:00:00,Billing,Low,Closed,2024-02-13 10:00:00,24,No
`
)

// FixtureAlertCount is the number of alerts the fixture files raise.
const FixtureAlertCount = 5

// DatasetFiles maps each source file name to its fixture content.
func DatasetFiles() map[string]string {
	return map[string]string{
		"water-quality-monitoring.csv":         WaterQualityCSV,
		"distribution-network-performance.csv": DistributionCSV,
		"energy-usage.csv":                     EnergyCSV,
		"maintenance-records.csv":              MaintenanceCSV,
		"customer-consumption.csv":             ConsumptionCSV,
		"customer-complaints.csv":              ComplaintsCSV,
	}
}

// WriteDatasetDir writes files into a fresh temporary directory and returns
// its path. With no overrides every fixture file is written; an override
// with empty content removes that file.
func WriteDatasetDir(t *testing.T, overrides map[string]string) string {
	t.Helper()

	files := DatasetFiles()
	for name, content := range overrides {
		if content == "" {
			delete(files, name)
			continue
		}
		files[name] = content
	}

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
	return dir
}
