package api

import (
	"github.com/regionpulse/regionpulse/internal/telemetry"
)

// LatencyRequest is the body of POST /api/v1/metrics/latency.
//
// Regions is an ordered sequence and may contain duplicates; each occurrence
// is computed independently, and because the response is keyed by region the
// identical duplicate entries collapse deterministically into one.
// ThresholdMs is a pointer so an absent field is distinguishable from 0.
type LatencyRequest struct {
	Regions     []string `json:"regions"`
	ThresholdMs *float64 `json:"threshold_ms"`
}

// RegionResponse is one region entry in GET /api/v1/regions.
type RegionResponse struct {
	Region      string `json:"region"`
	RecordCount int    `json:"record_count"`
}

// OverviewResponse is the payload for GET /api/v1/overview and the WebSocket
// broadcast envelope body.
type OverviewResponse struct {
	Regions     []RegionResponse `json:"regions"`
	RecordCount int              `json:"record_count"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"` // "ok" | "degraded"
	RecordCount int    `json:"record_count"`
	RegionCount int    `json:"region_count"`
	DatasetPath string `json:"dataset_path,omitempty"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// toRegionResponses maps store region counts to their JSON representation.
func toRegionResponses(counts []telemetry.RegionCount) []RegionResponse {
	out := make([]RegionResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, RegionResponse{Region: c.Region, RecordCount: c.Records})
	}
	return out
}
