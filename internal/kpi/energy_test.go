package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dp "opsdash/internal/dataprocessing"
)

func energyFixture() dp.Dataset {
	return dp.Dataset{
		{"timestamp": ts("2024-03-01 01:00:00"), "facility": "Treatment Plant", "rate_period": "Off-Peak",
			"energy_consumption_kwh": 100.0, "energy_cost_usd": 10.0, "energy_rate_per_kwh": 0.10,
			"water_produced_gallons": 5000.0, "energy_efficiency_gal_per_kwh": 50.0},
		{"timestamp": ts("2024-03-01 14:00:00"), "facility": "Treatment Plant", "rate_period": "Peak",
			"energy_consumption_kwh": 200.0, "energy_cost_usd": 40.0, "energy_rate_per_kwh": 0.20,
			"water_produced_gallons": 6000.0, "energy_efficiency_gal_per_kwh": 30.0},
		// A booster station reports no production; its efficiency column is 0.
		{"timestamp": ts("2024-04-02 14:00:00"), "facility": "Booster North", "rate_period": "Peak",
			"energy_consumption_kwh": 50.0, "energy_cost_usd": 10.0, "energy_rate_per_kwh": 0.20,
			"water_produced_gallons": 0.0, "energy_efficiency_gal_per_kwh": 0.0},
		{"timestamp": ts("2024-04-03 14:00:00"), "facility": "Booster North", "rate_period": "Mid",
			"energy_consumption_kwh": 50.0, "energy_cost_usd": 7.5, "energy_rate_per_kwh": 0.15,
			"water_produced_gallons": "", "energy_efficiency_gal_per_kwh": 99.0},
	}
}

func TestCalculateEnergy(t *testing.T) {
	got := CalculateEnergy(energyFixture())

	assert.InDelta(t, 400.0, got.TotalConsumption, 1e-9)
	assert.InDelta(t, 67.5, got.TotalCost, 1e-9)
	assert.InDelta(t, 40.0, got.AvgEfficiency, 1e-9, "efficiency averages producing records only")
	assert.InDelta(t, 11000.0, got.TotalWaterProduced, 1e-9)
	assert.Equal(t, 2, got.FacilityCount)
	assert.InDelta(t, 0.1625, got.AvgCostPerKwh, 1e-9)
}

func TestCalculateEnergyEmpty(t *testing.T) {
	assert.Equal(t, EnergySummary{}, CalculateEnergy(nil))
}

func TestEnergyByFacilityMatchesSummaryPredicate(t *testing.T) {
	got := EnergyByFacility(energyFixture())
	require.Len(t, got, 2)

	assert.Equal(t, "Treatment Plant", got[0].Facility)
	assert.InDelta(t, 300.0, got[0].TotalConsumption, 1e-9)
	assert.InDelta(t, 40.0, got[0].AvgEfficiency, 1e-9)

	assert.Equal(t, "Booster North", got[1].Facility)
	assert.InDelta(t, 100.0, got[1].TotalConsumption, 1e-9)
	assert.Zero(t, got[1].AvgEfficiency, "a facility with no production has no efficiency")
	assert.Zero(t, got[1].TotalWaterProduced)
}

func TestEnergyByRatePeriod(t *testing.T) {
	got := EnergyByRatePeriod(energyFixture())
	require.Len(t, got, 3)

	assert.Equal(t, "Off-Peak", got[0].RatePeriod)
	assert.Equal(t, "Peak", got[1].RatePeriod)
	assert.InDelta(t, 250.0, got[1].TotalConsumption, 1e-9)
	assert.InDelta(t, 50.0, got[1].TotalCost, 1e-9)
	assert.Equal(t, 2, got[1].Readings)
	assert.Equal(t, "Mid", got[2].RatePeriod)
}

func TestEnergyTrend(t *testing.T) {
	got := EnergyTrend(energyFixture())
	require.Len(t, got, 2)

	assert.Equal(t, EnergyMonth{Month: "2024-03", Consumption: 300, Cost: 50}, got[0])
	assert.Equal(t, "2024-04", got[1].Month)
	assert.InDelta(t, 17.5, got[1].Cost, 1e-9)
}
