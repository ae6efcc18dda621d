// Package api implements the HTTP REST API.
//
// New(store, recorder, opts...) returns an http.Handler that serves:
//
//	POST /api/latency:  per-region stats for {"regions": [...], "threshold_ms": n}
//	GET  /api/regions:  regions in the dataset with their record counts
//	GET  /api/health:   dataset size, source and load time
//	GET  /metrics:      Prometheus text exposition
//
// All JSON endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for unsupported methods and 404 for unknown paths, with a
//     JSON error body
//   - Read the dataset table from the store once per request
//
// CORS is open to any origin unless WithCORS narrows it. Optional API key
// auth and rate limiting are enabled with WithAuth and WithRateLimit.
//
// Request validation: a body that is not valid JSON is a 400; a body whose
// shape is wrong (missing fields, regions not an array of strings,
// threshold_ms not an integer) is a 422.
package api
