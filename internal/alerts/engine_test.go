package alerts

import (
	"testing"
	"time"

	"github.com/regionpulse/regionpulse/internal/config"
	"github.com/regionpulse/regionpulse/internal/metrics"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newEngine(rules ...config.AlertRule) *Engine {
	return New(config.AlertsConfig{Rules: rules})
}

func TestEvaluate_Fires(t *testing.T) {
	e := newEngine(config.AlertRule{
		Name: "slow", Condition: "p95_latency > 500", Severity: "critical",
	})

	e.Evaluate("eu-west", metrics.Summary{P95Latency: 750})

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d alerts, want 1", len(active))
	}
	a := active[0]
	if a.RuleName != "slow" || a.Region != "eu-west" || a.State != "firing" {
		t.Errorf("alert: got %+v", a)
	}
	if a.Value != 750 {
		t.Errorf("Value: got %v, want 750", a.Value)
	}
	if a.Severity != "critical" {
		t.Errorf("Severity: got %q, want critical", a.Severity)
	}
}

func TestEvaluate_NoFireBelowThreshold(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "slow", Condition: "p95_latency > 500"})

	e.Evaluate("eu-west", metrics.Summary{P95Latency: 200})

	if got := e.Active(); len(got) != 0 {
		t.Errorf("Active: got %d alerts, want 0", len(got))
	}
}

func TestEvaluate_Resolves(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "breachy", Condition: "breaches > 0"})

	e.Evaluate("us-east", metrics.Summary{Breaches: 3})
	e.Evaluate("us-east", metrics.Summary{Breaches: 0})

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d alerts, want 1 (recently resolved)", len(active))
	}
	if active[0].State != "resolved" || active[0].ResolvedAt == nil {
		t.Errorf("alert not resolved: %+v", active[0])
	}
}

func TestEvaluate_CooldownSuppressesRefire(t *testing.T) {
	base := time.Now()
	e := newEngine(config.AlertRule{
		Name: "slow", Condition: "avg_latency > 100", Cooldown: time.Minute,
	})

	e.now = fixedClock(base)
	e.Evaluate("eu-west", metrics.Summary{AvgLatency: 200})

	// Within cooldown: the existing alert stays, no second fire.
	e.now = fixedClock(base.Add(30 * time.Second))
	e.Evaluate("eu-west", metrics.Summary{AvgLatency: 300})

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d alerts, want 1", len(active))
	}
	if active[0].Value != 200 {
		t.Errorf("Value: got %v, want 200 (original fire, not a re-fire)", active[0].Value)
	}

	// Past cooldown: a new fire replaces the entry.
	e.now = fixedClock(base.Add(2 * time.Minute))
	e.Evaluate("eu-west", metrics.Summary{AvgLatency: 300})

	active = e.Active()
	if len(active) != 1 {
		t.Fatalf("Active after cooldown: got %d alerts, want 1", len(active))
	}
	if active[0].Value != 300 {
		t.Errorf("Value: got %v, want 300 (re-fired after cooldown)", active[0].Value)
	}
}

func TestEvaluate_IndependentRegions(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "slow", Condition: "avg_latency > 100"})

	e.Evaluate("eu-west", metrics.Summary{AvgLatency: 200})
	e.Evaluate("us-east", metrics.Summary{AvgLatency: 50})

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d alerts, want 1", len(active))
	}
	if active[0].Region != "eu-west" {
		t.Errorf("Region: got %q, want eu-west", active[0].Region)
	}
}

func TestEvaluate_NoRulesIsNoOp(t *testing.T) {
	e := newEngine()
	e.Evaluate("eu-west", metrics.Summary{AvgLatency: 1e6})
	if got := e.Active(); len(got) != 0 {
		t.Errorf("Active: got %d alerts, want 0", len(got))
	}
}

func TestEvalCondition(t *testing.T) {
	sum := metrics.Summary{
		AvgLatency: 250.5,
		P95Latency: 600,
		AvgUptime:  0.92,
		Breaches:   4,
	}

	cases := []struct {
		cond  string
		fires bool
		value float64
	}{
		{"avg_latency > 200", true, 250.5},
		{"avg_latency > 300", false, 0},
		{"p95_latency >= 600", true, 600},
		{"avg_uptime < 0.95", true, 0.92},
		{"avg_uptime <= 0.9", false, 0},
		{"breaches > 0", true, 4},
		{"breaches == 4", true, 4},
		{"bogus_field > 1", false, 0},
		{"avg_latency >", false, 0},
		{"avg_latency > banana", false, 0},
		{"", false, 0},
	}

	for _, tc := range cases {
		fires, value := evalCondition(tc.cond, sum)
		if fires != tc.fires {
			t.Errorf("%q: fires = %v, want %v", tc.cond, fires, tc.fires)
			continue
		}
		if fires && value != tc.value {
			t.Errorf("%q: value = %v, want %v", tc.cond, value, tc.value)
		}
	}
}
