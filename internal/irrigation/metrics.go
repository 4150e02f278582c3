package irrigation

import "github.com/prometheus/client_golang/prometheus"

var decisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "farmtech_decisions_total",
		Help: "Irrigation decisions taken, by rule.",
	},
	[]string{"rule"},
)

func init() {
	prometheus.MustRegister(decisionsTotal)
}

// Observe counts d under its rule. Callers that act on a decision (store
// it, publish it) observe it; Decide itself stays side-effect free.
func Observe(d Decision) {
	decisionsTotal.WithLabelValues(string(d.Rule)).Inc()
}
