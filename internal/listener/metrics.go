package listener

import "github.com/prometheus/client_golang/prometheus"

var samplesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "farmtech_listener_samples_total",
		Help: "Simulated samples taken by listeners, by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(samplesTotal)
}
