// Package promexport serves the service's operational metrics in Prometheus
// text exposition format: query counters and dataset size gauges. It builds
// metric families directly rather than registering collectors, since the
// handful of values here never warrants a registry.
package promexport
