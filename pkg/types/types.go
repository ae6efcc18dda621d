package types

// TelemetryRecord is one row of the telemetry dataset.
type TelemetryRecord struct {
	Region    string  `json:"region"`
	LatencyMs float64 `json:"latency_ms"`
	UptimePct float64 `json:"uptime_pct"`
}

// RegionStats is the summary computed for one region.
type RegionStats struct {
	AvgLatency float64 `json:"avg_latency"` // 2 decimals
	P95Latency float64 `json:"p95_latency"` // 2 decimals
	AvgUptime  float64 `json:"avg_uptime"`  // 3 decimals
	Breaches   int     `json:"breaches"`
}

// LatencyRequest is the decoded body of POST /api/latency.
type LatencyRequest struct {
	Regions     []string `json:"regions"`
	ThresholdMs int64    `json:"threshold_ms"`
}
