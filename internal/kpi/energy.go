package kpi

import (
	dp "opsdash/internal/dataprocessing"
)

const (
	energyTimestamp  = "timestamp"
	energyFacility   = "facility"
	energyKWh        = "energy_consumption_kwh"
	energyCost       = "energy_cost_usd"
	energyRate       = "energy_rate_per_kwh"
	energyRatePeriod = "rate_period"
	energyProduced   = "water_produced_gallons"
	energyEfficiency = "energy_efficiency_gal_per_kwh"
)

// EnergySummary aggregates facility energy usage.
type EnergySummary struct {
	TotalConsumption   float64 `json:"totalConsumption"`
	TotalCost          float64 `json:"totalCost"`
	AvgEfficiency      float64 `json:"avgEfficiency"`
	TotalWaterProduced float64 `json:"totalWaterProduced"`
	FacilityCount      int     `json:"facilityCount"`
	AvgCostPerKwh      float64 `json:"avgCostPerKwh"`
}

// FacilityBreakdown is the energy summary of one facility.
type FacilityBreakdown struct {
	Facility           string  `json:"facility"`
	TotalConsumption   float64 `json:"totalConsumption"`
	TotalCost          float64 `json:"totalCost"`
	AvgEfficiency      float64 `json:"avgEfficiency"`
	TotalWaterProduced float64 `json:"totalWaterProduced"`
	AvgCostPerKwh      float64 `json:"avgCostPerKwh"`
}

// RatePeriodBreakdown splits usage by tariff period (Peak, Mid, Off-Peak).
type RatePeriodBreakdown struct {
	RatePeriod       string  `json:"ratePeriod"`
	TotalConsumption float64 `json:"totalConsumption"`
	TotalCost        float64 `json:"totalCost"`
	AvgCostPerKwh    float64 `json:"avgCostPerKwh"`
	Readings         int     `json:"readings"`
}

// EnergyMonth is one point of the monthly energy trend.
type EnergyMonth struct {
	Month       string  `json:"month"`
	Consumption float64 `json:"consumption"`
	Cost        float64 `json:"cost"`
}

// hasProduction is true for records with a positive numeric
// water_produced_gallons. Efficiency is only meaningful for those records,
// so the summary and every breakdown average efficiency over this subset.
func hasProduction(r dp.Record) bool {
	v, ok := r.Number(energyProduced)
	return ok && v > 0
}

// CalculateEnergy computes consumption and cost totals and the average
// pumping efficiency of producing records.
func CalculateEnergy(ds dp.Dataset) EnergySummary {
	if len(ds) == 0 {
		return EnergySummary{}
	}

	producing := dp.Filter(ds, hasProduction)
	return EnergySummary{
		TotalConsumption:   dp.Sum(ds, energyKWh),
		TotalCost:          dp.Sum(ds, energyCost),
		AvgEfficiency:      dp.Average(producing, energyEfficiency),
		TotalWaterProduced: dp.Sum(producing, energyProduced),
		FacilityCount:      len(dp.UniqueValues(ds, energyFacility)),
		AvgCostPerKwh:      dp.Average(ds, energyRate),
	}
}

// EnergyByFacility returns one row per facility.
func EnergyByFacility(ds dp.Dataset) []FacilityBreakdown {
	out := []FacilityBreakdown{}
	for _, g := range dp.GroupBy(ds, energyFacility) {
		producing := dp.Filter(g.Records, hasProduction)
		out = append(out, FacilityBreakdown{
			Facility:           groupLabel(g),
			TotalConsumption:   dp.Sum(g.Records, energyKWh),
			TotalCost:          dp.Sum(g.Records, energyCost),
			AvgEfficiency:      dp.Average(producing, energyEfficiency),
			TotalWaterProduced: dp.Sum(producing, energyProduced),
			AvgCostPerKwh:      dp.Average(g.Records, energyRate),
		})
	}
	return out
}

// EnergyByRatePeriod returns one row per tariff period.
func EnergyByRatePeriod(ds dp.Dataset) []RatePeriodBreakdown {
	out := []RatePeriodBreakdown{}
	for _, g := range dp.GroupBy(ds, energyRatePeriod) {
		out = append(out, RatePeriodBreakdown{
			RatePeriod:       groupLabel(g),
			TotalConsumption: dp.Sum(g.Records, energyKWh),
			TotalCost:        dp.Sum(g.Records, energyCost),
			AvgCostPerKwh:    dp.Average(g.Records, energyRate),
			Readings:         len(g.Records),
		})
	}
	return out
}

// EnergyTrend returns monthly consumption and cost totals.
func EnergyTrend(ds dp.Dataset) []EnergyMonth {
	out := []EnergyMonth{}
	for _, b := range dp.AggregateByMonth(ds, energyTimestamp) {
		out = append(out, EnergyMonth{
			Month:       b.Key,
			Consumption: dp.Sum(b.Records, energyKWh),
			Cost:        dp.Sum(b.Records, energyCost),
		})
	}
	return out
}
