package irrigation

import (
	"fmt"

	"github.com/farmtech/irrigation/pkg/plugin"
)

// Costs are the pump and utility rates used for cost estimates.
type Costs struct {
	WaterCostPerM3           float64 `mapstructure:"water_cost_per_m3" json:"water_cost_per_m3"`
	PumpFlowLPH              float64 `mapstructure:"pump_flow_lph" json:"pump_flow_lph"`
	DefaultIrrigationMinutes float64 `mapstructure:"default_irrigation_minutes" json:"default_irrigation_minutes"`
	EnergyCostPerKWh         float64 `mapstructure:"energy_cost_per_kwh" json:"energy_cost_per_kwh"`
	PumpPowerKW              float64 `mapstructure:"pump_power_kw" json:"pump_power_kw"`
}

// DefaultCosts returns the factory rates.
func DefaultCosts() Costs {
	return Costs{
		WaterCostPerM3:           5.0,
		PumpFlowLPH:              1000,
		DefaultIrrigationMinutes: 15,
		EnergyCostPerKWh:         0.75,
		PumpPowerKW:              0.75,
	}
}

// CostsFromConfig reads the "costs" section over the defaults.
func CostsFromConfig(cfg plugin.Config) (Costs, error) {
	c := DefaultCosts()
	if cfg == nil {
		return c, nil
	}
	if err := cfg.Sub("costs").Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshal costs: %w", err)
	}
	return c, nil
}

// RunCost is the water and energy bill for running the pump for a while.
type RunCost struct {
	Minutes    float64 `json:"minutes"`
	WaterM3    float64 `json:"water_m3"`
	WaterCost  float64 `json:"water_cost"`
	EnergyKWh  float64 `json:"energy_kwh"`
	EnergyCost float64 `json:"energy_cost"`
	Total      float64 `json:"total"`
}

// ForMinutes prices a pump run of the given length.
func (c Costs) ForMinutes(minutes float64) RunCost {
	hours := minutes / 60
	water := c.PumpFlowLPH / 1000 * hours
	energy := c.PumpPowerKW * hours
	rc := RunCost{
		Minutes:    minutes,
		WaterM3:    water,
		WaterCost:  water * c.WaterCostPerM3,
		EnergyKWh:  energy,
		EnergyCost: energy * c.EnergyCostPerKWh,
	}
	rc.Total = rc.WaterCost + rc.EnergyCost
	return rc
}
