package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/regionpulse/regionpulse/internal/alerts"
	"github.com/regionpulse/regionpulse/internal/api"
	"github.com/regionpulse/regionpulse/internal/config"
	"github.com/regionpulse/regionpulse/internal/metrics"
	"github.com/regionpulse/regionpulse/internal/telemetry"
)

// --- test helpers -----------------------------------------------------------

func rec(region string, latency float64) telemetry.Record {
	return telemetry.Record{
		Region: region,
		Fields: map[string]float64{"latency_ms": latency},
	}
}

func newHandler(records ...telemetry.Record) http.Handler {
	st := telemetry.FromRecords(records, telemetry.Options{})
	eng := metrics.New(metrics.Options{})
	al := alerts.New(config.AlertsConfig{})
	return api.New(st, eng, al, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- POST /api/v1/metrics/latency -------------------------------------------

func TestLatency_ReferenceExample(t *testing.T) {
	h := newHandler(
		rec("eu-west", 100), rec("eu-west", 120), rec("eu-west", 130),
		rec("eu-west", 140), rec("eu-west", 500),
	)
	rr := do(t, h, http.MethodPost, "/api/v1/metrics/latency",
		`{"regions": ["eu-west"], "threshold_ms": 150}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var resp map[string]metrics.Summary
	decode(t, rr, &resp)

	sum, ok := resp["eu-west"]
	if !ok {
		t.Fatalf("response missing eu-west: %v", resp)
	}
	want := metrics.Summary{AvgLatency: 198.0, P95Latency: 428.0, AvgUptime: 0.8, Breaches: 1}
	if sum != want {
		t.Errorf("summary: got %+v, want %+v", sum, want)
	}
}

func TestLatency_UnknownRegionIsZeroValue(t *testing.T) {
	h := newHandler(rec("eu-west", 100))
	rr := do(t, h, http.MethodPost, "/api/v1/metrics/latency",
		`{"regions": ["mars-north"], "threshold_ms": 150}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]metrics.Summary
	decode(t, rr, &resp)
	if sum := resp["mars-north"]; sum != (metrics.Summary{}) {
		t.Errorf("unknown region: got %+v, want zero value", sum)
	}
}

func TestLatency_MixedRegions(t *testing.T) {
	// A region with no usable data must not abort the rest of the query.
	h := newHandler(
		rec("eu-west", 100),
		telemetry.Record{Region: "ap-south", Fields: map[string]float64{"uptime": 1}},
	)
	rr := do(t, h, http.MethodPost, "/api/v1/metrics/latency",
		`{"regions": ["eu-west", "ap-south", "unknown"], "threshold_ms": 150}`)

	var resp map[string]metrics.Summary
	decode(t, rr, &resp)

	if len(resp) != 3 {
		t.Fatalf("entries: got %d, want 3", len(resp))
	}
	if resp["eu-west"].AvgLatency != 100 {
		t.Errorf("eu-west avg: got %v, want 100", resp["eu-west"].AvgLatency)
	}
	if resp["ap-south"] != (metrics.Summary{}) {
		t.Errorf("ap-south: got %+v, want zero value", resp["ap-south"])
	}
	if resp["unknown"] != (metrics.Summary{}) {
		t.Errorf("unknown: got %+v, want zero value", resp["unknown"])
	}
}

func TestLatency_DuplicateRegionsCollapse(t *testing.T) {
	h := newHandler(rec("eu-west", 100), rec("eu-west", 200))
	rr := do(t, h, http.MethodPost, "/api/v1/metrics/latency",
		`{"regions": ["eu-west", "eu-west"], "threshold_ms": 150}`)

	var resp map[string]metrics.Summary
	decode(t, rr, &resp)
	if len(resp) != 1 {
		t.Fatalf("entries: got %d, want 1 (duplicates collapse)", len(resp))
	}
	if resp["eu-west"].AvgLatency != 150 {
		t.Errorf("avg: got %v, want 150", resp["eu-west"].AvgLatency)
	}
}

func TestLatency_EmptyRegionsList(t *testing.T) {
	h := newHandler(rec("eu-west", 100))
	rr := do(t, h, http.MethodPost, "/api/v1/metrics/latency",
		`{"regions": [], "threshold_ms": 150}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]metrics.Summary
	decode(t, rr, &resp)
	if len(resp) != 0 {
		t.Errorf("entries: got %d, want 0", len(resp))
	}
}

func TestLatency_MalformedBody(t *testing.T) {
	cases := map[string]string{
		"invalid json":      `{"regions": [`,
		"missing regions":   `{"threshold_ms": 150}`,
		"missing threshold": `{"regions": ["eu-west"]}`,
		"wrong types":       `{"regions": "eu-west", "threshold_ms": 150}`,
	}
	h := newHandler(rec("eu-west", 100))

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/v1/metrics/latency", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (body: %s)", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			decode(t, rr, &resp)
			if resp["error"] == "" {
				t.Error("expected an error message in the body")
			}
		})
	}
}

func TestLatency_MethodNotAllowed(t *testing.T) {
	h := newHandler()
	rr := do(t, h, http.MethodGet, "/api/v1/metrics/latency", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- GET /api/v1/regions -----------------------------------------------------

func TestRegions(t *testing.T) {
	h := newHandler(rec("us-east", 10), rec("eu-west", 20), rec("us-east", 30))
	rr := do(t, h, http.MethodGet, "/api/v1/regions", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp []api.RegionResponse
	decode(t, rr, &resp)

	want := []api.RegionResponse{
		{Region: "eu-west", RecordCount: 1},
		{Region: "us-east", RecordCount: 2},
	}
	if len(resp) != len(want) {
		t.Fatalf("entries: got %d, want %d", len(resp), len(want))
	}
	for i, w := range want {
		if resp[i] != w {
			t.Errorf("regions[%d]: got %+v, want %+v", i, resp[i], w)
		}
	}
}

// --- GET /api/v1/health ------------------------------------------------------

func TestHealth(t *testing.T) {
	h := newHandler(rec("eu-west", 100))
	rr := do(t, h, http.MethodGet, "/api/v1/health", "")

	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
	if resp.RecordCount != 1 || resp.RegionCount != 1 {
		t.Errorf("counts: got records=%d regions=%d, want 1/1", resp.RecordCount, resp.RegionCount)
	}
}

func TestHealth_EmptyStoreIsDegraded(t *testing.T) {
	h := newHandler()
	rr := do(t, h, http.MethodGet, "/api/v1/health", "")

	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "degraded" {
		t.Errorf("status: got %q, want degraded", resp.Status)
	}
}

// --- GET /api/v1/alerts ------------------------------------------------------

func TestAlerts_EmptyWithoutRules(t *testing.T) {
	h := newHandler(rec("eu-west", 100))
	rr := do(t, h, http.MethodGet, "/api/v1/alerts", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp []alerts.Alert
	decode(t, rr, &resp)
	if len(resp) != 0 {
		t.Errorf("alerts: got %d, want 0", len(resp))
	}
}

func TestAlerts_FiredByQuery(t *testing.T) {
	st := telemetry.FromRecords([]telemetry.Record{rec("eu-west", 900)}, telemetry.Options{})
	al := alerts.New(config.AlertsConfig{
		Rules: []config.AlertRule{
			{Name: "slow-region", Condition: "avg_latency > 500", Severity: "critical"},
		},
	})
	h := api.New(st, metrics.New(metrics.Options{}), al, nil)

	do(t, h, http.MethodPost, "/api/v1/metrics/latency",
		`{"regions": ["eu-west"], "threshold_ms": 100}`)

	rr := do(t, h, http.MethodGet, "/api/v1/alerts", "")
	var resp []alerts.Alert
	decode(t, rr, &resp)

	if len(resp) != 1 {
		t.Fatalf("alerts: got %d, want 1", len(resp))
	}
	if resp[0].RuleName != "slow-region" || resp[0].Region != "eu-west" {
		t.Errorf("alert: got %+v", resp[0])
	}
}

// --- CORS framing ------------------------------------------------------------

func TestCORSHeaders(t *testing.T) {
	h := newHandler()
	rr := do(t, h, http.MethodGet, "/api/v1/health", "")
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: got %q, want *", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHandler()
	rr := do(t, h, http.MethodOptions, "/api/v1/metrics/latency", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status: got %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("preflight missing Allow-Methods header")
	}
}
