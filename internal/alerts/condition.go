package alerts

import (
	"strconv"
	"strings"

	"github.com/regionpulse/regionpulse/internal/metrics"
)

// evalCondition evaluates a rule condition string against a region summary.
//
// Supported expressions (field operator value):
//
//	avg_latency > 250
//	p95_latency > 500
//	avg_uptime < 0.95
//	breaches > 0
//
// avg_uptime is compared in whatever unit the metrics engine is configured
// for — a percent-unit deployment writes "avg_uptime < 95".
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, sum metrics.Summary) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	v, ok := numericField(field, sum)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the summary.
func numericField(field string, sum metrics.Summary) (float64, bool) {
	switch field {
	case "avg_latency":
		return sum.AvgLatency, true
	case "p95_latency":
		return sum.P95Latency, true
	case "avg_uptime":
		return sum.AvgUptime, true
	case "breaches":
		return float64(sum.Breaches), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
