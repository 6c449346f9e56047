package kpi

import (
	dp "opsdash/internal/dataprocessing"
)

const (
	wqTimestamp  = "timestamp"
	wqStation    = "station"
	wqChlorine   = "chlorine_mg_l"
	wqPH         = "ph"
	wqTurbidity  = "turbidity_ntu"
	wqOverall    = "overall_compliant"
	wqChlorineOK = "chlorine_compliant"
	wqPHOK       = "ph_compliant"
	wqTurbidOK   = "turbidity_compliant"
)

// WaterQualitySummary aggregates water-quality readings.
type WaterQualitySummary struct {
	OverallCompliance   float64 `json:"overallCompliance"`
	ChlorineCompliance  float64 `json:"chlorineCompliance"`
	PHCompliance        float64 `json:"phCompliance"`
	TurbidityCompliance float64 `json:"turbidityCompliance"`
	AvgChlorine         float64 `json:"avgChlorine"`
	AvgPH               float64 `json:"avgPH"`
	AvgTurbidity        float64 `json:"avgTurbidity"`
	StationCount        int     `json:"stationCount"`
	TotalReadings       int     `json:"totalReadings"`
}

// StationBreakdown is the water-quality summary of one monitoring station.
type StationBreakdown struct {
	Station      string  `json:"station"`
	StationID    string  `json:"stationId"`
	Compliance   float64 `json:"compliance"`
	AvgChlorine  float64 `json:"avgChlorine"`
	AvgPH        float64 `json:"avgPH"`
	AvgTurbidity float64 `json:"avgTurbidity"`
	Readings     int     `json:"readings"`
}

// WaterQualityMonth is one point of the monthly water-quality trend.
type WaterQualityMonth struct {
	Month        string  `json:"month"`
	AvgChlorine  float64 `json:"avgChlorine"`
	AvgPH        float64 `json:"avgPH"`
	AvgTurbidity float64 `json:"avgTurbidity"`
	Compliance   float64 `json:"compliance"`
	Readings     int     `json:"readings"`
}

// CalculateWaterQuality computes compliance rates ("Yes" in the matching
// *_compliant column) and chemistry averages.
func CalculateWaterQuality(ds dp.Dataset) WaterQualitySummary {
	total := len(ds)
	if total == 0 {
		return WaterQualitySummary{}
	}

	return WaterQualitySummary{
		OverallCompliance:   dp.Rate(dp.CountWhere(ds, dp.FieldEquals(wqOverall, "Yes")), total),
		ChlorineCompliance:  dp.Rate(dp.CountWhere(ds, dp.FieldEquals(wqChlorineOK, "Yes")), total),
		PHCompliance:        dp.Rate(dp.CountWhere(ds, dp.FieldEquals(wqPHOK, "Yes")), total),
		TurbidityCompliance: dp.Rate(dp.CountWhere(ds, dp.FieldEquals(wqTurbidOK, "Yes")), total),
		AvgChlorine:         dp.Average(ds, wqChlorine),
		AvgPH:               dp.Average(ds, wqPH),
		AvgTurbidity:        dp.Average(ds, wqTurbidity),
		StationCount:        len(dp.UniqueValues(ds, wqStation)),
		TotalReadings:       total,
	}
}

// WaterQualityByStation returns one row per station.
func WaterQualityByStation(ds dp.Dataset) []StationBreakdown {
	out := []StationBreakdown{}
	for _, g := range dp.GroupBy(ds, wqStation) {
		out = append(out, StationBreakdown{
			Station:      stationName(g),
			StationID:    g.Key,
			Compliance:   dp.Rate(dp.CountWhere(g.Records, dp.FieldEquals(wqOverall, "Yes")), len(g.Records)),
			AvgChlorine:  dp.Average(g.Records, wqChlorine),
			AvgPH:        dp.Average(g.Records, wqPH),
			AvgTurbidity: dp.Average(g.Records, wqTurbidity),
			Readings:     len(g.Records),
		})
	}
	return out
}

// WaterQualityTrend returns monthly chemistry averages and compliance.
func WaterQualityTrend(ds dp.Dataset) []WaterQualityMonth {
	out := []WaterQualityMonth{}
	for _, b := range dp.AggregateByMonth(ds, wqTimestamp) {
		out = append(out, WaterQualityMonth{
			Month:        b.Key,
			AvgChlorine:  dp.Average(b.Records, wqChlorine),
			AvgPH:        dp.Average(b.Records, wqPH),
			AvgTurbidity: dp.Average(b.Records, wqTurbidity),
			Compliance:   dp.Rate(dp.CountWhere(b.Records, dp.FieldEquals(wqOverall, "Yes")), b.Count),
			Readings:     b.Count,
		})
	}
	return out
}
