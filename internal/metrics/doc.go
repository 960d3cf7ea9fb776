// Package metrics reduces a region's telemetry records into a latency/uptime
// summary: mean latency, interpolated 95th percentile, uptime ratio, and the
// count of records breaching a caller-supplied latency threshold.
//
// The reduction is a pure function of its inputs. Records without a usable
// numeric latency are excluded from the working set entirely — they are never
// coerced to zero, since that would drag down the mean and percentile. An
// empty working set yields the zero-value Summary, not an error.
package metrics
