package kpi

import (
	"sort"

	dp "opsdash/internal/dataprocessing"
)

const (
	distTimestamp  = "timestamp"
	distZone       = "zone"
	distFlow       = "flow_rate_gpm"
	distPressure   = "pressure_psi"
	distBilled     = "billed_consumption_gpm"
	distNRWFlow    = "nrw_gpm"
	distNRWPercent = "nrw_percent"
	distPressureOK = "pressure_compliant"
)

// DistributionSummary aggregates distribution-network readings.
type DistributionSummary struct {
	AvgNRW                 float64 `json:"avgNRW"`
	AvgFlowRate            float64 `json:"avgFlowRate"`
	AvgPressure            float64 `json:"avgPressure"`
	PressureCompliance     float64 `json:"pressureCompliance"`
	ZoneCount              int     `json:"zoneCount"`
	TotalBilledConsumption float64 `json:"totalBilledConsumption"`
	TotalReadings          int     `json:"totalReadings"`
}

// ZoneBreakdown is the distribution summary of one pressure zone.
type ZoneBreakdown struct {
	Zone               string  `json:"zone"`
	ZoneID             string  `json:"zoneId"`
	AvgFlowRate        float64 `json:"avgFlowRate"`
	AvgPressure        float64 `json:"avgPressure"`
	AvgNRW             float64 `json:"avgNRW"`
	PressureCompliance float64 `json:"pressureCompliance"`
	Readings           int     `json:"readings"`
}

// DistributionMonth is one point of the monthly distribution trend.
type DistributionMonth struct {
	Month       string  `json:"month"`
	AvgFlowRate float64 `json:"avgFlowRate"`
	AvgPressure float64 `json:"avgPressure"`
	AvgNRW      float64 `json:"avgNRW"`
	Readings    int     `json:"readings"`
}

// ZoneNRW ranks a zone by its non-revenue water.
type ZoneNRW struct {
	Zone         string  `json:"zone"`
	ZoneID       string  `json:"zoneId"`
	AvgNRW       float64 `json:"avgNRW"`
	TotalNRWFlow float64 `json:"totalNRWFlow"`
	TotalBilled  float64 `json:"totalBilled"`
}

// NRWAnalysis breaks non-revenue water down by zone and month.
type NRWAnalysis struct {
	AvgNRW       float64             `json:"avgNRW"`
	TotalNRWFlow float64             `json:"totalNRWFlow"`
	TotalBilled  float64             `json:"totalBilled"`
	Zones        []ZoneNRW           `json:"zones"`
	Trend        []DistributionMonth `json:"trend"`
}

// CalculateDistribution computes network averages and pressure compliance.
func CalculateDistribution(ds dp.Dataset) DistributionSummary {
	total := len(ds)
	if total == 0 {
		return DistributionSummary{}
	}

	return DistributionSummary{
		AvgNRW:                 dp.Average(ds, distNRWPercent),
		AvgFlowRate:            dp.Average(ds, distFlow),
		AvgPressure:            dp.Average(ds, distPressure),
		PressureCompliance:     dp.Rate(dp.CountWhere(ds, dp.FieldEquals(distPressureOK, "Yes")), total),
		ZoneCount:              len(dp.UniqueValues(ds, distZone)),
		TotalBilledConsumption: dp.Sum(ds, distBilled),
		TotalReadings:          total,
	}
}

// DistributionByZone returns one row per zone.
func DistributionByZone(ds dp.Dataset) []ZoneBreakdown {
	out := []ZoneBreakdown{}
	for _, g := range dp.GroupBy(ds, distZone) {
		out = append(out, ZoneBreakdown{
			Zone:               zoneName(g),
			ZoneID:             g.Key,
			AvgFlowRate:        dp.Average(g.Records, distFlow),
			AvgPressure:        dp.Average(g.Records, distPressure),
			AvgNRW:             dp.Average(g.Records, distNRWPercent),
			PressureCompliance: dp.Rate(dp.CountWhere(g.Records, dp.FieldEquals(distPressureOK, "Yes")), len(g.Records)),
			Readings:           len(g.Records),
		})
	}
	return out
}

// DistributionTrend returns monthly flow, pressure and NRW averages.
func DistributionTrend(ds dp.Dataset) []DistributionMonth {
	out := []DistributionMonth{}
	for _, b := range dp.AggregateByMonth(ds, distTimestamp) {
		out = append(out, DistributionMonth{
			Month:       b.Key,
			AvgFlowRate: dp.Average(b.Records, distFlow),
			AvgPressure: dp.Average(b.Records, distPressure),
			AvgNRW:      dp.Average(b.Records, distNRWPercent),
			Readings:    b.Count,
		})
	}
	return out
}

// AnalyzeNRW ranks zones by average NRW percentage, worst first. Ties keep
// first-occurrence order.
func AnalyzeNRW(ds dp.Dataset) NRWAnalysis {
	analysis := NRWAnalysis{
		AvgNRW:       dp.Average(ds, distNRWPercent),
		TotalNRWFlow: dp.Sum(ds, distNRWFlow),
		TotalBilled:  dp.Sum(ds, distBilled),
		Zones:        []ZoneNRW{},
		Trend:        DistributionTrend(ds),
	}
	for _, g := range dp.GroupBy(ds, distZone) {
		analysis.Zones = append(analysis.Zones, ZoneNRW{
			Zone:         zoneName(g),
			ZoneID:       g.Key,
			AvgNRW:       dp.Average(g.Records, distNRWPercent),
			TotalNRWFlow: dp.Sum(g.Records, distNRWFlow),
			TotalBilled:  dp.Sum(g.Records, distBilled),
		})
	}
	sort.SliceStable(analysis.Zones, func(i, j int) bool {
		return analysis.Zones[i].AvgNRW > analysis.Zones[j].AvgNRW
	})
	return analysis
}
