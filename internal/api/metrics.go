package api

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/version"
)

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler writes Prometheus text format metrics.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.List()
	completed := 0
	for _, v := range sessions {
		if v.Terminated {
			completed++
		}
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	labels := fmt.Sprintf(`instance="%s",version="%s"`, hostname, version.Version)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	writeMetric := func(name, mtype, help string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	writeMetric("decisionsim_uptime_seconds", "gauge",
		"Number of seconds since the server started", time.Since(s.started).Seconds())
	writeMetric("decisionsim_scenarios", "gauge",
		"Number of scenarios in the catalog", s.manager.Catalog().Len())
	writeMetric("decisionsim_sessions_live", "gauge",
		"Number of live sessions", len(sessions))
	writeMetric("decisionsim_sessions_completed", "gauge",
		"Number of live sessions that reached an outcome", completed)
	writeMetric("decisionsim_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount())
	writeMetric("decisionsim_ws_clients", "gauge",
		"Number of active WebSocket event subscribers", events.SubscriberCount())
	writeMetric("decisionsim_storage_ready", "gauge",
		"Whether the session store is available (1) or not (0)", boolGauge(s.readiness.IsReady("storage")))
	writeMetric("decisionsim_mqtt_connected", "gauge",
		"Whether the MQTT broker is connected (1) or not (0)", boolGauge(s.readiness.IsReady("mqtt")))
}
