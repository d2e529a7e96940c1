// Package prometheus exposes jwtauth engine metrics as a prometheus.Collector.
//
// [NewPrometheusExporter] wraps an [jwtauth.Engine]. Each scrape reads
// [jwtauth.Engine.MetricsSnapshot] and emits jwtauth_*_total counters plus the
// jwtauth_validate_latency_seconds histogram. The exporter registers itself in a
// private registry; [PrometheusExporter.Handler] serves that registry, or callers can
// register the exporter into their own.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
