// Package config loads the service configuration from config.yaml.
//
// Config fields:
//   - Server.HTTPPort:          port for the REST API (default 8080)
//   - Server.ShutdownTimeout:   graceful shutdown bound (default 10s)
//   - Server.Auth.Mode:         "apikey" or "none"
//   - Server.Auth.KeyEnv:       environment variable holding the expected API key
//   - Server.Auth.Header:       HTTP header name (default "x-api-key")
//   - Server.CORS:              allowed origins (default any)
//   - Server.RateLimit:         token bucket; disabled when requests_per_second is 0
//   - Dataset.Paths:            dataset files tried in order
//     (default telemetry.json, then data/telemetry.json)
//   - Dataset.Watch:            reload the dataset file on change
//   - Dataset.Object:           S3-compatible object to load instead of Paths
//
// Load(path) applies defaults before unmarshalling, then validates. An empty
// path skips the file and returns the defaults.
package config
