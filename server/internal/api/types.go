package api

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Records  int    `json:"records"`
	Regions  int    `json:"regions"`
	Source   string `json:"source"`
	LoadedAt string `json:"loaded_at"` // RFC3339
}

// RegionResponse is one entry in GET /api/regions.
type RegionResponse struct {
	Region  string `json:"region"`
	Records int    `json:"records"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
