package kpi

import (
	"fmt"
	"sort"

	dp "opsdash/internal/dataprocessing"
)

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Alert categories.
const (
	CategoryWaterQuality = "water-quality"
	CategoryNRW          = "nrw"
	CategoryPressure     = "pressure"
	CategoryComplaints   = "complaints"
	CategoryMaintenance  = "maintenance"
)

// Thresholds are the targets the compliance report and alerts compare against.
type Thresholds struct {
	StationComplianceWarning  float64 `json:"stationComplianceWarning" yaml:"station_compliance_warning"`
	StationComplianceCritical float64 `json:"stationComplianceCritical" yaml:"station_compliance_critical"`
	ZoneNRWWarning            float64 `json:"zoneNRWWarning" yaml:"zone_nrw_warning"`
	ZoneNRWCritical           float64 `json:"zoneNRWCritical" yaml:"zone_nrw_critical"`
	PressureComplianceWarning float64 `json:"pressureComplianceWarning" yaml:"pressure_compliance_warning"`
}

// DefaultThresholds returns the regulatory targets used by the dashboard.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StationComplianceWarning:  95,
		StationComplianceCritical: 80,
		ZoneNRWWarning:            20,
		ZoneNRWCritical:           30,
		PressureComplianceWarning: 90,
	}
}

// ComplianceReport lists the stations and zones missing their targets.
type ComplianceReport struct {
	WaterQuality       WaterQualitySummary `json:"waterQuality"`
	Distribution       DistributionSummary `json:"distribution"`
	StationsBelow      []StationBreakdown  `json:"stationsBelowTarget"`
	ZonesBelowPressure []ZoneBreakdown     `json:"zonesBelowPressureTarget"`
	Targets            Thresholds          `json:"targets"`
}

// Alert is one threshold breach.
type Alert struct {
	Severity  string  `json:"severity"`
	Category  string  `json:"category"`
	Subject   string  `json:"subject"`
	Message   string  `json:"message"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// BuildComplianceReport summarises regulatory compliance of water quality
// and distribution pressure.
func BuildComplianceReport(wq, dist dp.Dataset, th Thresholds) ComplianceReport {
	report := ComplianceReport{
		WaterQuality:       CalculateWaterQuality(wq),
		Distribution:       CalculateDistribution(dist),
		StationsBelow:      []StationBreakdown{},
		ZonesBelowPressure: []ZoneBreakdown{},
		Targets:            th,
	}
	for _, s := range WaterQualityByStation(wq) {
		if s.Compliance < th.StationComplianceWarning {
			report.StationsBelow = append(report.StationsBelow, s)
		}
	}
	for _, z := range DistributionByZone(dist) {
		if z.PressureCompliance < th.PressureComplianceWarning {
			report.ZonesBelowPressure = append(report.ZonesBelowPressure, z)
		}
	}
	return report
}

// Alerts evaluates every rule against the cached datasets. Critical alerts
// come first, then alerts are ordered by category and subject.
func Alerts(c *dp.Cache, th Thresholds) []Alert {
	alerts := []Alert{}

	for _, s := range WaterQualityByStation(c.WaterQuality()) {
		switch {
		case s.Compliance < th.StationComplianceCritical:
			alerts = append(alerts, Alert{
				Severity: SeverityCritical, Category: CategoryWaterQuality, Subject: s.Station,
				Message:  fmt.Sprintf("water quality compliance %.1f%% is below %.0f%%", s.Compliance, th.StationComplianceCritical),
				Value:    s.Compliance, Threshold: th.StationComplianceCritical,
			})
		case s.Compliance < th.StationComplianceWarning:
			alerts = append(alerts, Alert{
				Severity: SeverityWarning, Category: CategoryWaterQuality, Subject: s.Station,
				Message:  fmt.Sprintf("water quality compliance %.1f%% is below %.0f%%", s.Compliance, th.StationComplianceWarning),
				Value:    s.Compliance, Threshold: th.StationComplianceWarning,
			})
		}
	}

	for _, z := range DistributionByZone(c.Distribution()) {
		switch {
		case z.AvgNRW > th.ZoneNRWCritical:
			alerts = append(alerts, Alert{
				Severity: SeverityCritical, Category: CategoryNRW, Subject: z.Zone,
				Message:  fmt.Sprintf("non-revenue water %.1f%% exceeds %.0f%%", z.AvgNRW, th.ZoneNRWCritical),
				Value:    z.AvgNRW, Threshold: th.ZoneNRWCritical,
			})
		case z.AvgNRW > th.ZoneNRWWarning:
			alerts = append(alerts, Alert{
				Severity: SeverityWarning, Category: CategoryNRW, Subject: z.Zone,
				Message:  fmt.Sprintf("non-revenue water %.1f%% exceeds %.0f%%", z.AvgNRW, th.ZoneNRWWarning),
				Value:    z.AvgNRW, Threshold: th.ZoneNRWWarning,
			})
		}
		if z.PressureCompliance < th.PressureComplianceWarning {
			alerts = append(alerts, Alert{
				Severity: SeverityWarning, Category: CategoryPressure, Subject: z.Zone,
				Message:  fmt.Sprintf("pressure compliance %.1f%% is below %.0f%%", z.PressureCompliance, th.PressureComplianceWarning),
				Value:    z.PressureCompliance, Threshold: th.PressureComplianceWarning,
			})
		}
	}

	openCritical := dp.CountWhere(c.Complaints(), func(r dp.Record) bool {
		return r.Is(cmpPriority, "Critical") && r.Is(cmpStatus, statusOpen)
	})
	if openCritical > 0 {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning, Category: CategoryComplaints, Subject: "Critical complaints",
			Message: fmt.Sprintf("%d critical complaints are open", openCritical),
			Value:   float64(openCritical),
		})
	}

	pendingCritical := dp.CountWhere(c.Maintenance(), func(r dp.Record) bool {
		return r.Is(mntPriority, "Critical") && !r.Is(mntCompleted, "Yes")
	})
	if pendingCritical > 0 {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning, Category: CategoryMaintenance, Subject: "Critical work orders",
			Message: fmt.Sprintf("%d critical work orders are not completed", pendingCritical),
			Value:   float64(pendingCritical),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityCritical
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Subject < b.Subject
	})
	return alerts
}
