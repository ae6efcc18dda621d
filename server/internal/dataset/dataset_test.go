package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `[
  {"region": "amer", "latency_ms": 150, "uptime_pct": 99.1, "service": "api"},
  {"region": "emea", "latency_ms": 120.5, "uptime_pct": 98.0},
  {"region": "amer", "latency_ms": 200, "uptime_pct": 97.5}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// --- Decode -----------------------------------------------------------------

func TestDecode_Valid(t *testing.T) {
	recs, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records: got %d, want 3", len(recs))
	}
	if recs[1].Region != "emea" || recs[1].LatencyMs != 120.5 || recs[1].UptimePct != 98.0 {
		t.Errorf("record 1: got %+v", recs[1])
	}
}

func TestDecode_MissingField(t *testing.T) {
	cases := map[string]string{
		"region":     `[{"latency_ms": 1, "uptime_pct": 2}]`,
		"latency_ms": `[{"region": "amer", "uptime_pct": 2}]`,
		"uptime_pct": `[{"region": "amer", "latency_ms": 1}]`,
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("error %q does not mention %s", err, field)
			}
		})
	}
}

func TestDecode_NotArray(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"region": "amer"}`)); err == nil {
		t.Fatal("expected error for object document, got nil")
	}
}

func TestDecode_Empty(t *testing.T) {
	recs, err := Decode(strings.NewReader(`[]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("records: got %d, want 0", len(recs))
	}
}

// --- Load -------------------------------------------------------------------

func TestLoad_Primary(t *testing.T) {
	dir := t.TempDir()
	primary := writeFile(t, dir, "telemetry.json", sample)
	fallback := writeFile(t, dir, "data/telemetry.json", `[]`)

	tbl, err := Load(primary, fallback)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Source() != primary {
		t.Errorf("Source: got %q, want %q", tbl.Source(), primary)
	}
	if tbl.Len() != 3 {
		t.Errorf("Len: got %d, want 3", tbl.Len())
	}
}

func TestLoad_FallsBack(t *testing.T) {
	dir := t.TempDir()
	fallback := writeFile(t, dir, "data/telemetry.json", sample)

	tbl, err := Load(filepath.Join(dir, "telemetry.json"), fallback)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Source() != fallback {
		t.Errorf("Source: got %q, want %q", tbl.Source(), fallback)
	}
}

func TestLoad_AllMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err: got %v, want ErrNotFound", err)
	}
}

func TestLoad_NoPaths(t *testing.T) {
	if _, err := Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err: got %v, want ErrNotFound", err)
	}
}

func TestLoad_InvalidPrimaryDoesNotFallBack(t *testing.T) {
	dir := t.TempDir()
	primary := writeFile(t, dir, "telemetry.json", `not json`)
	fallback := writeFile(t, dir, "data/telemetry.json", sample)

	_, err := Load(primary, fallback)
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("parse error reported as ErrNotFound: %v", err)
	}
}

// --- Table ------------------------------------------------------------------

func TestTable_SelectAndRegions(t *testing.T) {
	recs, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tbl := NewTable(recs, "mem")

	if got := len(tbl.Select("amer")); got != 2 {
		t.Errorf("Select(amer): got %d records, want 2", got)
	}
	if got := tbl.Select("apac"); len(got) != 0 {
		t.Errorf("Select(apac): got %d records, want 0", len(got))
	}
	regions := tbl.Regions()
	if len(regions) != 2 || regions[0] != "amer" || regions[1] != "emea" {
		t.Errorf("Regions: got %v, want [amer emea]", regions)
	}
	if tbl.Count("emea") != 1 {
		t.Errorf("Count(emea): got %d, want 1", tbl.Count("emea"))
	}
	if tbl.LoadedAt().IsZero() {
		t.Error("LoadedAt: zero")
	}
}

func TestTable_CopiesInput(t *testing.T) {
	recs, _ := Decode(strings.NewReader(sample))
	tbl := NewTable(recs, "mem")
	recs[0].LatencyMs = 9999

	if got := tbl.Select("amer")[0].LatencyMs; got != 150 {
		t.Errorf("table saw caller mutation: latency got %v, want 150", got)
	}
}

// --- ObjectSource -----------------------------------------------------------

func TestNewObjectSource_RequiresBucketAndKey(t *testing.T) {
	if _, err := NewObjectSource(ObjectConfig{Endpoint: "localhost:9000", Bucket: "telemetry"}); err == nil {
		t.Fatal("expected error without key, got nil")
	}
}

func TestObjectSource_URL(t *testing.T) {
	src, err := NewObjectSource(ObjectConfig{
		Endpoint: "localhost:9000",
		Bucket:   "telemetry",
		Key:      "2024/latency.json",
	})
	if err != nil {
		t.Fatalf("NewObjectSource: %v", err)
	}
	if got := src.URL(); got != "s3://telemetry/2024/latency.json" {
		t.Errorf("URL: got %q", got)
	}
}
