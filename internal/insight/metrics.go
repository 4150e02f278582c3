package insight

import "github.com/prometheus/client_golang/prometheus"

var trainingSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "farmtech_model_training_seconds",
		Help:    "Classifier training duration, by model.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"model"},
)

func init() {
	prometheus.MustRegister(trainingSeconds)
}
