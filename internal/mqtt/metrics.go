package mqtt

import "github.com/prometheus/client_golang/prometheus"

var ingestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "farmtech_mqtt_ingest_total",
		Help: "Sensor payloads received over MQTT, by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(ingestTotal)
}
