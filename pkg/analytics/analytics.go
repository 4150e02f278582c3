// Package analytics provides the public result types of the FarmTech
// analysis pipeline. Handlers encode these directly as JSON.
package analytics

import "time"

// Numeric reading columns understood by the pipeline.
const (
	ColumnHumidity    = "humidity"
	ColumnPH          = "ph"
	ColumnTemperature = "temperature"
)

// NumericColumns lists the columns used for statistics and correlation.
var NumericColumns = []string{ColumnHumidity, ColumnPH, ColumnTemperature}

// ColumnStats is the descriptive summary of one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// CorrelationMatrix is a symmetric Pearson matrix. Values[i][j] pairs
// Columns[i] with Columns[j]; undefined pairs are reported as null.
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// HistorySummary aggregates the stored irrigation decisions.
type HistorySummary struct {
	TotalEmergencies   int    `json:"total_emergencies"`
	PHCritical         int    `json:"ph_critical"`
	MostCommonDecision string `json:"most_common_decision,omitempty"`
}

// SystemMetrics are the operational KPIs over a reading window.
type SystemMetrics struct {
	IrrigationCycles int     `json:"irrigation_cycles"`
	AvgHumidity      float64 `json:"avg_humidity"`
	HumidityStd      float64 `json:"humidity_std"`
	PHStd            float64 `json:"ph_std"`
	CriticalEvents   int     `json:"critical_events"`
	Efficiency       float64 `json:"efficiency"` // 0-100
}

// Summary bundles everything the history view needs.
type Summary struct {
	Readings        int               `json:"readings"`
	Columns         []ColumnStats     `json:"columns"`
	Correlation     CorrelationMatrix `json:"correlation"`
	History         HistorySummary    `json:"history"`
	Metrics         *SystemMetrics    `json:"metrics,omitempty"`
	Recommendations []string          `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// AnomalyRow is the z-score verdict for one reading.
type AnomalyRow struct {
	ReadingID int64     `json:"reading_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	ZScore    *float64  `json:"z_score,omitempty"`
	Anomaly   bool      `json:"anomaly"`
}

// AnomalyReport is the result of flagging one column.
type AnomalyReport struct {
	Column    string       `json:"column"`
	Method    string       `json:"method"`
	Threshold float64      `json:"threshold"`
	Flagged   int          `json:"flagged"`
	Rows      []AnomalyRow `json:"rows"`
}

// ForestParams describes one random forest configuration.
// MaxDepth 0 means unlimited depth.
type ForestParams struct {
	Trees    int `json:"n_estimators"`
	MaxDepth int `json:"max_depth"`
	MinLeaf  int `json:"min_samples_leaf"`
}

// ClassifierResult is returned by both model trainers. When Trained is
// false the data did not contain both classes and Message says why.
type ClassifierResult struct {
	ModelID         string        `json:"model_id,omitempty"`
	Model           string        `json:"model"` // "risk", "maintenance"
	Trained         bool          `json:"trained"`
	Message         string        `json:"message,omitempty"`
	Accuracy        float64       `json:"accuracy"`
	ConfusionMatrix [2][2]int     `json:"confusion_matrix"`
	BestParams      *ForestParams `json:"best_params,omitempty"`
	CVScore         float64       `json:"cv_score,omitempty"`
	Features        []string      `json:"features,omitempty"`
	TrainSize       int           `json:"train_size"`
	TestSize        int           `json:"test_size"`
	TrainedAt       time.Time     `json:"trained_at"`
}

// RiskPrediction is the emergency probability for one hypothetical reading.
type RiskPrediction struct {
	ModelID     string  `json:"model_id"`
	Probability float64 `json:"probability"`
	Emergency   bool    `json:"emergency"`
}

// ForecastPoint is one projected humidity value.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Humidity  float64   `json:"humidity"`
}

// Trend is a linear fit of recent humidity over time.
type Trend struct {
	SlopePerHour    float64        `json:"slope_per_hour"`
	RSquared        float64        `json:"r_squared"`
	Threshold       float64        `json:"threshold"`
	TimeToThreshold *time.Duration `json:"time_to_threshold,omitempty"`
}

// ForecastAlert is raised when projected humidity drops below the
// irrigation threshold.
type ForecastAlert struct {
	Threshold float64   `json:"threshold"`
	FirstAt   time.Time `json:"first_at"`
	MinValue  float64   `json:"min_value"`
	Message   string    `json:"message"`
}

// Forecast is the ARIMA humidity projection.
type Forecast struct {
	Order       [3]int          `json:"order"` // p, d, q
	Interval    time.Duration   `json:"interval"`
	HistorySize int             `json:"history_size"`
	Sigma2      float64         `json:"sigma2"`
	Points      []ForecastPoint `json:"points"`
	Trend       *Trend          `json:"trend,omitempty"`
	Alert       *ForecastAlert  `json:"alert,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// CostReport estimates water and energy spend for a reading window.
type CostReport struct {
	PumpOnReadings int     `json:"pump_on_readings"`
	PumpOnMinutes  float64 `json:"pump_on_minutes"`
	WaterM3        float64 `json:"water_m3"`
	WaterCost      float64 `json:"water_cost"`
	EnergyKWh      float64 `json:"energy_kwh"`
	EnergyCost     float64 `json:"energy_cost"`
	TotalCost      float64 `json:"total_cost"`
	Cycles         int     `json:"cycles"`
	Message        string  `json:"message,omitempty"`
}

// Diagnostics are plain-language findings about system behaviour.
type Diagnostics struct {
	Readings              int      `json:"readings"`
	MeanHumidityAtPumpOn  *float64 `json:"mean_humidity_at_pump_on,omitempty"`
	MeanPH                float64  `json:"mean_ph"`
	CriticalHumidityCount int      `json:"critical_humidity_count"`
	CriticalPHCount       int      `json:"critical_ph_count"`
	Findings              []string `json:"findings"`
	Message               string   `json:"message,omitempty"`
}
