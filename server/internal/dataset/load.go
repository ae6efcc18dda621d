package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/obsidianstack/regionstats/pkg/types"
)

// ErrNotFound is returned by Load when none of the candidate paths exist.
var ErrNotFound = errors.New("dataset: no dataset file found")

// rawRecord mirrors types.TelemetryRecord with pointer fields so missing keys
// can be told apart from zero values.
type rawRecord struct {
	Region    *string  `json:"region"`
	LatencyMs *float64 `json:"latency_ms"`
	UptimePct *float64 `json:"uptime_pct"`
}

// Decode parses a JSON array of telemetry records from r. Unknown fields are
// ignored. Every record must carry all three fields.
func Decode(r io.Reader) ([]types.TelemetryRecord, error) {
	var raw []rawRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("dataset: decode: %w", err)
	}

	out := make([]types.TelemetryRecord, 0, len(raw))
	for i, rr := range raw {
		switch {
		case rr.Region == nil:
			return nil, fmt.Errorf("dataset: record %d: missing region", i)
		case rr.LatencyMs == nil:
			return nil, fmt.Errorf("dataset: record %d: missing latency_ms", i)
		case rr.UptimePct == nil:
			return nil, fmt.Errorf("dataset: record %d: missing uptime_pct", i)
		}
		out = append(out, types.TelemetryRecord{
			Region:    *rr.Region,
			LatencyMs: *rr.LatencyMs,
			UptimePct: *rr.UptimePct,
		})
	}
	return out, nil
}

// LoadFile reads and decodes the dataset at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewTable(recs, path), nil
}

// Load tries each path in order and returns the first table that loads.
// Only a missing file moves on to the next candidate.
func Load(paths ...string) (*Table, error) {
	for _, p := range paths {
		t, err := LoadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("dataset: file not found, trying next path", "path", p)
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Info("dataset: loaded", "path", p, "records", t.Len(), "regions", len(t.Regions()))
		return t, nil
	}
	return nil, fmt.Errorf("%w (tried %v)", ErrNotFound, paths)
}
