package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/regionstats/pkg/types"
	"github.com/obsidianstack/regionstats/server/internal/dataset"
)

func table(regions ...string) *dataset.Table {
	recs := make([]types.TelemetryRecord, 0, len(regions))
	for _, r := range regions {
		recs = append(recs, types.TelemetryRecord{Region: r, LatencyMs: 100, UptimePct: 99})
	}
	return dataset.NewTable(recs, "mem")
}

func TestNewAndTable(t *testing.T) {
	tbl := table("amer")
	st := New(tbl)
	if st.Table() != tbl {
		t.Fatal("Table: did not return the table passed to New")
	}
}

func TestReplace_ReturnsPrevious(t *testing.T) {
	first, second := table("amer"), table("emea", "apac")
	st := New(first)

	prev := st.Replace(second)
	if prev != first {
		t.Error("Replace: did not return previous table")
	}
	if st.Table() != second {
		t.Error("Table after Replace: got old table")
	}
}

func TestConcurrentReadAndReplace(t *testing.T) {
	st := New(table("amer"))
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.Replace(table("amer", "emea"))
		}()
		go func() {
			defer wg.Done()
			if tbl := st.Table(); tbl == nil || tbl.Len() == 0 {
				t.Error("reader saw an empty table")
			}
		}()
	}
	wg.Wait()
}

// --- Watch ------------------------------------------------------------------

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.json")
	if err := os.WriteFile(path, []byte(`[{"region":"amer","latency_ms":1,"uptime_pct":99}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	initial, err := dataset.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	st := New(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *dataset.Table, 8)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- st.Watch(ctx, path, func(tbl *dataset.Table) { reloaded <- tbl })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	body := `[{"region":"amer","latency_ms":1,"uptime_pct":99},{"region":"emea","latency_ms":2,"uptime_pct":98}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case tbl := <-reloaded:
			if tbl.Len() != 2 {
				continue
			}
			if st.Table().Count("emea") != 1 {
				t.Errorf("store table: emea count %d, want 1", st.Table().Count("emea"))
			}
			cancel()
			if err := <-watchErr; err != nil {
				t.Errorf("Watch returned %v", err)
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatch_ReloadsOnRenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.json")
	if err := os.WriteFile(path, []byte(`[{"region":"amer","latency_ms":1,"uptime_pct":99}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	st := New(table("amer"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *dataset.Table, 8)
	go st.Watch(ctx, path, func(tbl *dataset.Table) { reloaded <- tbl }) //nolint:errcheck

	time.Sleep(100 * time.Millisecond)
	tmp := filepath.Join(dir, "telemetry.json.tmp")
	body := `[{"region":"apac","latency_ms":3,"uptime_pct":97}]`
	if err := os.WriteFile(tmp, []byte(body), 0o600); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case tbl := <-reloaded:
			if tbl.Count("apac") != 1 {
				continue
			}
			if st.Table() != tbl {
				t.Error("store is not serving the reloaded table")
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for reload after rename")
		}
	}
}

func TestWatch_FailedReloadKeepsTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	orig := table("amer")
	st := New(orig)

	attempted := make(chan struct{}, 8)
	st.load = func(string) (*dataset.Table, error) {
		attempted <- struct{}{}
		return nil, errors.New("boom")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.Watch(ctx, path, func(*dataset.Table) { t.Error("onReload called after failed load") }) //nolint:errcheck

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`garbage`), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case <-attempted:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload attempt")
	}
	if st.Table() != orig {
		t.Error("table replaced after failed reload")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	st := New(table("amer"))
	err := st.Watch(context.Background(), filepath.Join(t.TempDir(), "nope.json"), nil)
	if err == nil {
		t.Fatal("expected error watching a missing file, got nil")
	}
}
