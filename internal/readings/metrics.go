package readings

import "github.com/prometheus/client_golang/prometheus"

var ingestedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "farmtech_readings_ingested_total",
		Help: "Sensor readings stored, by source.",
	},
	[]string{"source"},
)

func init() {
	prometheus.MustRegister(ingestedTotal)
}
