package metrics

import (
	"math"
	"sort"

	"github.com/regionpulse/regionpulse/internal/telemetry"
)

// Uptime unit constants for Options.UptimeUnit.
const (
	UnitFraction = "fraction" // 0–1, rounded to 4 decimals
	UnitPercent  = "percent"  // 0–100, rounded to 2 decimals
)

// DefaultLatencyFields is the default fallback chain of record field names
// checked for a latency value, in order.
var DefaultLatencyFields = []string{"latency_ms", "latency"}

// Summary is the per-region reduction returned to callers. Instances are
// request-scoped: built fresh per query, never mutated after construction.
type Summary struct {
	AvgLatency float64 `json:"avg_latency"`
	P95Latency float64 `json:"p95_latency"`
	AvgUptime  float64 `json:"avg_uptime"`
	Breaches   int     `json:"breaches"`
}

// Options configures an Engine.
type Options struct {
	// UptimeUnit is UnitFraction (default) or UnitPercent.
	UptimeUnit string

	// LatencyFields overrides the latency field fallback chain.
	// Empty means DefaultLatencyFields.
	LatencyFields []string
}

// Engine computes Summary values. It holds no mutable state and is safe for
// concurrent use by any number of request handlers.
type Engine struct {
	unit   string
	fields []string
}

// New returns an Engine for the given options.
func New(opts Options) *Engine {
	unit := opts.UptimeUnit
	if unit == "" {
		unit = UnitFraction
	}
	fields := opts.LatencyFields
	if len(fields) == 0 {
		fields = DefaultLatencyFields
	}
	return &Engine{unit: unit, fields: fields}
}

// Summarize reduces records into a Summary against thresholdMs.
//
// The working set is the subset of records that yield a finite numeric
// latency via the field fallback chain. All four statistics are computed over
// that set; if it is empty the zero-value Summary is returned.
func (e *Engine) Summarize(records []telemetry.Record, thresholdMs float64) Summary {
	latencies := e.workingSet(records)
	n := len(latencies)
	if n == 0 {
		return Summary{}
	}

	var sum float64
	breaches := 0
	for _, v := range latencies {
		sum += v
		if v > thresholdMs {
			breaches++
		}
	}

	sorted := make([]float64, n)
	copy(sorted, latencies)
	sort.Float64s(sorted)

	return Summary{
		AvgLatency: round(sum/float64(n), 2),
		P95Latency: round(percentile(sorted, 0.95), 2),
		AvgUptime:  e.uptime(n, breaches),
		Breaches:   breaches,
	}
}

// Latency extracts r's latency via the fallback chain.
// ok is false when no field in the chain holds a finite value.
func (e *Engine) Latency(r telemetry.Record) (v float64, ok bool) {
	for _, f := range e.fields {
		if v, ok := r.Fields[f]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v, true
		}
	}
	return 0, false
}

// workingSet extracts the usable latency values from records, in input order.
func (e *Engine) workingSet(records []telemetry.Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := e.Latency(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// uptime returns (n - breaches) / n in the configured unit. The numerator and
// breach count are complementary over the same denominator.
func (e *Engine) uptime(n, breaches int) float64 {
	ratio := float64(n-breaches) / float64(n)
	if e.unit == UnitPercent {
		return round(ratio*100, 2)
	}
	return round(ratio, 4)
}

// percentile computes the p-th quantile of sorted by linear interpolation
// between order statistics: the continuous rank r = (n-1)*p either lands on
// an index or is interpolated between the two neighboring values weighted by
// its fractional part. For a single value that value is returned.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	r := float64(n-1) * p
	lo := int(math.Floor(r))
	hi := int(math.Ceil(r))
	if lo == hi {
		return sorted[lo]
	}
	frac := r - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
