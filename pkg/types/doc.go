// Package types defines the shared Go types for telemetry rows and the
// per-region statistics derived from them. These are the canonical in-memory
// and JSON representations used by the dataset loader, the aggregator and the
// HTTP API.
package types
