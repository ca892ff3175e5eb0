// Package metrics records factory activity in Prometheus.
//
// The forge package reports through its Recorder interface and defaults to a
// no-op implementation. Swap in a PrometheusRecorder to collect build
// durations, stage failures, depth truncations and persisted counts:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	users := forge.New(userBlueprint, forge.WithRecorder(rec))
//
// Short-lived processes can dump the registry with WriteTextfile for the
// node exporter textfile collector.
package metrics
