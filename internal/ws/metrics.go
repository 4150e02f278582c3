package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	clientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "farmtech_ws_clients",
		Help: "Connected WebSocket clients.",
	})
	messagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmtech_ws_messages_dropped_total",
		Help: "Messages dropped because a client fell behind.",
	})
)

func init() {
	prometheus.MustRegister(clientsConnected, messagesDropped)
}
