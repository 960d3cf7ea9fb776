// Package api implements the HTTP REST API for regionpulse-server.
//
// New(...) returns an http.Handler that serves:
//
//	POST /api/v1/metrics/latency — per-region latency/uptime summaries
//	GET  /api/v1/regions         — distinct regions with record counts
//	GET  /api/v1/overview        — dataset overview (regions + totals)
//	GET  /api/v1/alerts          — firing and recently resolved alerts
//	GET  /api/v1/health          — dataset status and record counts
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Carry permissive CORS headers; OPTIONS preflight answered with 204
//   - Return 405 for unsupported methods
//
// A malformed query body is the only caller-visible failure (400). Unknown
// regions, missing data files, and records without usable latency values all
// resolve to zero-value summaries — data quality never fails a request.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
