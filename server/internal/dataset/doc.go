// Package dataset loads the telemetry table the service answers from.
//
// The table is a JSON array of records:
//
//	[{"region": "amer", "latency_ms": 151.2, "uptime_pct": 99.12}, ...]
//
// Sources:
//   - Load(paths...) tries each local path in order. A missing file falls
//     through to the next path; a file that exists but does not parse is an
//     error. When every path is missing Load returns ErrNotFound.
//   - ObjectSource fetches the same document from an S3-compatible bucket.
//
// A Table is immutable once built. Reloading builds a new Table.
package dataset
