package exporter

import (
	"time"

	dp "opsdash/internal/dataprocessing"
	"opsdash/internal/kpi"
)

// OverviewTable is the name of the headline table, always first in a Report.
const OverviewTable = "Overview"

// Table is one named grid of report cells
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Report is a KPI report built from one snapshot
type Report struct {
	Title       string
	LoadID      string
	GeneratedAt time.Time
	Tables      []Table
}

// Table returns the table called name
func (r Report) Table(name string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// BuildReport computes every KPI over the snapshot. A nil cache yields a
// report of empty tables.
func BuildReport(c *dp.Cache, th kpi.Thresholds, now time.Time) Report {
	wq := c.WaterQuality()
	dist := c.Distribution()
	energy := c.Energy()
	maint := c.Maintenance()
	consumption := c.Consumption()
	complaints := c.Complaints()

	alerts := kpi.Alerts(c, th)

	report := Report{
		Title:       "Water Utility KPI Report",
		LoadID:      c.LoadID(),
		GeneratedAt: now,
	}
	report.Tables = append(report.Tables,
		overviewTable(c, alerts),
		stationsTable(kpi.WaterQualityByStation(wq)),
		waterQualityTrendTable(kpi.WaterQualityTrend(wq)),
		zonesTable(kpi.DistributionByZone(dist)),
		nrwTable(kpi.AnalyzeNRW(dist)),
		distributionTrendTable(kpi.DistributionTrend(dist)),
		facilitiesTable(kpi.EnergyByFacility(energy)),
		ratePeriodsTable(kpi.EnergyByRatePeriod(energy)),
		energyTrendTable(kpi.EnergyTrend(energy)),
		assetTypesTable(kpi.MaintenanceByAssetType(maint)),
		failureModesTable(kpi.MaintenanceByFailureMode(maint)),
		maintenanceTrendTable(kpi.MaintenanceTrend(maint)),
		customerTypesTable(kpi.CustomersByType(consumption)),
		complaintTypesTable(kpi.ComplaintsByType(complaints)),
		complaintPrioritiesTable(kpi.ComplaintsByPriority(complaints)),
		complaintsTrendTable(kpi.ComplaintsTrend(complaints)),
		alertsTable(alerts),
	)
	return report
}

func overviewTable(c *dp.Cache, alerts []kpi.Alert) Table {
	wq := kpi.CalculateWaterQuality(c.WaterQuality())
	dist := kpi.CalculateDistribution(c.Distribution())
	energy := kpi.CalculateEnergy(c.Energy())
	maint := kpi.CalculateMaintenance(c.Maintenance())
	cust := kpi.CalculateCustomer(c.Consumption(), c.Complaints())

	critical := 0
	for _, a := range alerts {
		if a.Severity == kpi.SeverityCritical {
			critical++
		}
	}

	row := func(section, metric, value string) []string {
		return []string{section, metric, value}
	}
	return Table{
		Name:    OverviewTable,
		Headers: []string{"Section", "Metric", "Value"},
		Rows: [][]string{
			row("Water Quality", "Overall Compliance (%)", formatFloat(wq.OverallCompliance)),
			row("Water Quality", "Chlorine Compliance (%)", formatFloat(wq.ChlorineCompliance)),
			row("Water Quality", "pH Compliance (%)", formatFloat(wq.PHCompliance)),
			row("Water Quality", "Turbidity Compliance (%)", formatFloat(wq.TurbidityCompliance)),
			row("Water Quality", "Stations", formatInt(wq.StationCount)),
			row("Water Quality", "Readings", formatInt(wq.TotalReadings)),
			row("Distribution", "Average NRW (%)", formatFloat(dist.AvgNRW)),
			row("Distribution", "Average Pressure (psi)", formatFloat(dist.AvgPressure)),
			row("Distribution", "Pressure Compliance (%)", formatFloat(dist.PressureCompliance)),
			row("Distribution", "Zones", formatInt(dist.ZoneCount)),
			row("Energy", "Total Consumption (kWh)", formatFloat(energy.TotalConsumption)),
			row("Energy", "Total Cost (USD)", formatFloat(energy.TotalCost)),
			row("Energy", "Average Efficiency (gal/kWh)", formatFloat(energy.AvgEfficiency)),
			row("Maintenance", "Work Orders", formatInt(maint.TotalWorkOrders)),
			row("Maintenance", "Completion Rate (%)", formatFloat(maint.CompletionRate)),
			row("Maintenance", "Total Cost (USD)", formatFloat(maint.TotalCost)),
			row("Customers", "Customers", formatInt(cust.TotalCustomers)),
			row("Customers", "Collection Rate (%)", formatFloat(cust.CollectionRate)),
			row("Customers", "Open Complaints", formatInt(cust.OpenComplaints)),
			row("Customers", "Satisfaction Rate (%)", formatFloat(cust.SatisfactionRate)),
			row("Alerts", "Total", formatInt(len(alerts))),
			row("Alerts", "Critical", formatInt(critical)),
		},
	}
}

func stationsTable(in []kpi.StationBreakdown) Table {
	t := Table{Name: "Stations", Headers: []string{"Station", "Station ID", "Compliance (%)", "Avg Chlorine (mg/L)", "Avg pH", "Avg Turbidity (NTU)", "Readings"}}
	for _, s := range in {
		t.Rows = append(t.Rows, []string{s.Station, s.StationID, formatFloat(s.Compliance), formatFloat(s.AvgChlorine), formatFloat(s.AvgPH), formatFloat(s.AvgTurbidity), formatInt(s.Readings)})
	}
	return t
}

func waterQualityTrendTable(in []kpi.WaterQualityMonth) Table {
	t := Table{Name: "Water Quality Trend", Headers: []string{"Month", "Avg Chlorine (mg/L)", "Avg pH", "Avg Turbidity (NTU)", "Compliance (%)", "Readings"}}
	for _, m := range in {
		t.Rows = append(t.Rows, []string{m.Month, formatFloat(m.AvgChlorine), formatFloat(m.AvgPH), formatFloat(m.AvgTurbidity), formatFloat(m.Compliance), formatInt(m.Readings)})
	}
	return t
}

func zonesTable(in []kpi.ZoneBreakdown) Table {
	t := Table{Name: "Zones", Headers: []string{"Zone", "Zone ID", "Avg Flow (gpm)", "Avg Pressure (psi)", "Avg NRW (%)", "Pressure Compliance (%)", "Readings"}}
	for _, z := range in {
		t.Rows = append(t.Rows, []string{z.Zone, z.ZoneID, formatFloat(z.AvgFlowRate), formatFloat(z.AvgPressure), formatFloat(z.AvgNRW), formatFloat(z.PressureCompliance), formatInt(z.Readings)})
	}
	return t
}

func nrwTable(in kpi.NRWAnalysis) Table {
	t := Table{Name: "NRW by Zone", Headers: []string{"Zone", "Zone ID", "Avg NRW (%)", "NRW Flow (gpm)", "Billed (gpm)"}}
	for _, z := range in.Zones {
		t.Rows = append(t.Rows, []string{z.Zone, z.ZoneID, formatFloat(z.AvgNRW), formatFloat(z.TotalNRWFlow), formatFloat(z.TotalBilled)})
	}
	return t
}

func distributionTrendTable(in []kpi.DistributionMonth) Table {
	t := Table{Name: "Distribution Trend", Headers: []string{"Month", "Avg Flow (gpm)", "Avg Pressure (psi)", "Avg NRW (%)", "Readings"}}
	for _, m := range in {
		t.Rows = append(t.Rows, []string{m.Month, formatFloat(m.AvgFlowRate), formatFloat(m.AvgPressure), formatFloat(m.AvgNRW), formatInt(m.Readings)})
	}
	return t
}

func facilitiesTable(in []kpi.FacilityBreakdown) Table {
	t := Table{Name: "Facilities", Headers: []string{"Facility", "Consumption (kWh)", "Cost (USD)", "Avg Efficiency (gal/kWh)", "Water Produced (gal)", "Avg Cost per kWh"}}
	for _, f := range in {
		t.Rows = append(t.Rows, []string{f.Facility, formatFloat(f.TotalConsumption), formatFloat(f.TotalCost), formatFloat(f.AvgEfficiency), formatFloat(f.TotalWaterProduced), formatFloat(f.AvgCostPerKwh)})
	}
	return t
}

func ratePeriodsTable(in []kpi.RatePeriodBreakdown) Table {
	t := Table{Name: "Rate Periods", Headers: []string{"Rate Period", "Consumption (kWh)", "Cost (USD)", "Avg Cost per kWh", "Readings"}}
	for _, r := range in {
		t.Rows = append(t.Rows, []string{r.RatePeriod, formatFloat(r.TotalConsumption), formatFloat(r.TotalCost), formatFloat(r.AvgCostPerKwh), formatInt(r.Readings)})
	}
	return t
}

func energyTrendTable(in []kpi.EnergyMonth) Table {
	t := Table{Name: "Energy Trend", Headers: []string{"Month", "Consumption (kWh)", "Cost (USD)"}}
	for _, m := range in {
		t.Rows = append(t.Rows, []string{m.Month, formatFloat(m.Consumption), formatFloat(m.Cost)})
	}
	return t
}

func assetTypesTable(in []kpi.AssetTypeBreakdown) Table {
	t := Table{Name: "Asset Types", Headers: []string{"Asset Type", "Work Orders", "Cost (USD)", "Avg Downtime (h)", "Parts Replaced"}}
	for _, a := range in {
		t.Rows = append(t.Rows, []string{a.AssetType, formatInt(a.Count), formatFloat(a.TotalCost), formatFloat(a.AvgDowntime), formatInt(a.PartsReplaced)})
	}
	return t
}

func failureModesTable(in []kpi.FailureModeBreakdown) Table {
	t := Table{Name: "Failure Modes", Headers: []string{"Failure Mode", "Count", "Avg Downtime (h)", "Cost (USD)"}}
	for _, f := range in {
		t.Rows = append(t.Rows, []string{f.FailureMode, formatInt(f.Count), formatFloat(f.AvgDowntime), formatFloat(f.TotalCost)})
	}
	return t
}

func maintenanceTrendTable(in []kpi.MaintenanceMonth) Table {
	t := Table{Name: "Maintenance Trend", Headers: []string{"Month", "Preventive", "Corrective", "Emergency", "Total", "Cost (USD)"}}
	for _, m := range in {
		t.Rows = append(t.Rows, []string{m.Month, formatInt(m.Preventive), formatInt(m.Corrective), formatInt(m.Emergency), formatInt(m.Total), formatFloat(m.Cost)})
	}
	return t
}

func customerTypesTable(in []kpi.CustomerTypeBreakdown) Table {
	t := Table{Name: "Customer Types", Headers: []string{"Customer Type", "Customers", "Consumption (gal)", "Revenue (USD)", "Avg Bill (USD)"}}
	for _, c := range in {
		t.Rows = append(t.Rows, []string{c.Type, formatInt(c.Customers), formatFloat(c.TotalConsumption), formatFloat(c.TotalRevenue), formatFloat(c.AvgBill)})
	}
	return t
}

func complaintTypesTable(in []kpi.ComplaintTypeBreakdown) Table {
	t := Table{Name: "Complaint Types", Headers: []string{"Complaint Type", "Count", "Avg Resolution (h)", "Satisfaction (%)"}}
	for _, c := range in {
		t.Rows = append(t.Rows, []string{c.Type, formatInt(c.Count), formatFloat(c.AvgResolutionTime), formatFloat(c.SatisfactionRate)})
	}
	return t
}

func complaintPrioritiesTable(in []kpi.ComplaintPriorityBreakdown) Table {
	t := Table{Name: "Complaint Priorities", Headers: []string{"Priority", "Count", "Open", "Avg Resolution (h)"}}
	for _, c := range in {
		t.Rows = append(t.Rows, []string{c.Priority, formatInt(c.Count), formatInt(c.Open), formatFloat(c.AvgResolutionTime)})
	}
	return t
}

func complaintsTrendTable(in []kpi.ComplaintsMonth) Table {
	t := Table{Name: "Complaints Trend", Headers: []string{"Month", "Total", "Open", "Resolved"}}
	for _, m := range in {
		t.Rows = append(t.Rows, []string{m.Month, formatInt(m.Total), formatInt(m.Open), formatInt(m.Resolved)})
	}
	return t
}

func alertsTable(in []kpi.Alert) Table {
	t := Table{Name: "Alerts", Headers: []string{"Severity", "Category", "Subject", "Message", "Value", "Threshold"}}
	for _, a := range in {
		t.Rows = append(t.Rows, []string{a.Severity, a.Category, a.Subject, a.Message, formatFloat(a.Value), formatFloat(a.Threshold)})
	}
	return t
}
