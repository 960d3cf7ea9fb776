package api

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/regionpulse/regionpulse/internal/alerts"
	"github.com/regionpulse/regionpulse/internal/metrics"
	"github.com/regionpulse/regionpulse/internal/promexport"
	"github.com/regionpulse/regionpulse/internal/telemetry"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads telemetry from the store, reduces it with the metrics engine, and
// returns JSON responses.
type Handler struct {
	store  *telemetry.Store
	engine *metrics.Engine
	alerts *alerts.Engine
	coll   *promexport.Collector
	mux    *http.ServeMux
}

// New creates a Handler wired to its collaborators and registers all routes.
// coll may be nil when no exposition counters are wanted (tests).
func New(st *telemetry.Store, eng *metrics.Engine, al *alerts.Engine, coll *promexport.Collector) http.Handler {
	h := &Handler{store: st, engine: eng, alerts: al, coll: coll, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/metrics/latency", h.latencySummaries)
	h.mux.HandleFunc("/api/v1/regions", h.regions)
	h.mux.HandleFunc("/api/v1/overview", h.overview)
	h.mux.HandleFunc("/api/v1/alerts", h.activeAlerts)
	h.mux.HandleFunc("/api/v1/health", h.health)

	return h
}

// ServeHTTP applies CORS framing, answers preflight, and dispatches.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// latencySummaries serves POST /api/v1/metrics/latency — the core query.
// Each requested region is reduced independently; a region with no usable
// data yields the zero-value summary rather than failing the request.
func (h *Handler) latencySummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LatencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, "invalid request body: "+err.Error())
		return
	}
	if req.Regions == nil {
		h.reject(w, "regions is required")
		return
	}
	if req.ThresholdMs == nil {
		h.reject(w, "threshold_ms is required")
		return
	}
	threshold := *req.ThresholdMs
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		h.reject(w, "threshold_ms must be a finite number")
		return
	}

	results := make(map[string]metrics.Summary, len(req.Regions))
	for _, region := range req.Regions {
		sum := h.engine.Summarize(h.store.RecordsFor(region), threshold)
		results[region] = sum
		if h.alerts != nil {
			h.alerts.Evaluate(region, sum)
		}
	}

	if h.coll != nil {
		h.coll.QueryServed(len(req.Regions))
	}
	jsonResp(w, http.StatusOK, results)
}

// regions serves GET /api/v1/regions — distinct regions with record counts.
func (h *Handler) regions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, toRegionResponses(h.store.Regions()))
}

// overview serves GET /api/v1/overview — the dataset overview also pushed to
// WebSocket clients.
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildOverview(h.store))
}

// activeAlerts serves GET /api/v1/alerts — firing plus recently resolved alerts.
func (h *Handler) activeAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// health serves GET /api/v1/health. Status is "degraded" when the store is
// empty — typically a soft-failed dataset load.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Status:      "ok",
		RecordCount: h.store.Count(),
		RegionCount: len(h.store.Regions()),
		DatasetPath: h.store.Path(),
	}
	if resp.RecordCount == 0 {
		resp.Status = "degraded"
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

// BuildOverview assembles the dataset overview served on /api/v1/overview and
// broadcast by the WebSocket hub.
func BuildOverview(st *telemetry.Store) OverviewResponse {
	return OverviewResponse{
		Regions:     toRegionResponses(st.Regions()),
		RecordCount: st.Count(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// reject answers a malformed request with 400 and counts it.
func (h *Handler) reject(w http.ResponseWriter, msg string) {
	if h.coll != nil {
		h.coll.BadRequest()
	}
	jsonErr(w, http.StatusBadRequest, msg)
}

// setCORS applies the permissive cross-origin headers the service has always
// shipped with; tighten at a reverse proxy if needed.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
