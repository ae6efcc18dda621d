package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/obsidianstack/regionstats/server/internal/config"
	"github.com/obsidianstack/regionstats/server/internal/dataset"
)

func TestLoadDataset_LocalFallback(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "data", "telemetry.json")
	if err := os.MkdirAll(filepath.Dir(fallback), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(fallback, []byte(`[{"region":"amer","latency_ms":150,"uptime_pct":99}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tbl, err := loadDataset(context.Background(), config.DatasetConfig{
		Paths: []string{filepath.Join(dir, "telemetry.json"), fallback},
	})
	if err != nil {
		t.Fatalf("loadDataset: %v", err)
	}
	if tbl.Source() != fallback {
		t.Errorf("Source: got %q, want %q", tbl.Source(), fallback)
	}
	if tbl.Count("amer") != 1 {
		t.Errorf("Count(amer): got %d, want 1", tbl.Count("amer"))
	}
}

func TestLoadDataset_NothingFound(t *testing.T) {
	dir := t.TempDir()
	_, err := loadDataset(context.Background(), config.DatasetConfig{
		Paths: []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")},
	})
	if !errors.Is(err, dataset.ErrNotFound) {
		t.Fatalf("err: got %v, want ErrNotFound", err)
	}
}

func TestLoadDataset_ObjectNeedsKey(t *testing.T) {
	_, err := loadDataset(context.Background(), config.DatasetConfig{
		Object: config.ObjectConfig{Endpoint: "localhost:9000", Bucket: "telemetry"},
	})
	if err == nil {
		t.Fatal("expected error for object without key, got nil")
	}
}
