package dataset

import (
	"sort"
	"time"

	"github.com/obsidianstack/regionstats/pkg/types"
)

// Table is an immutable, region-indexed view of the telemetry dataset.
type Table struct {
	records  []types.TelemetryRecord
	byRegion map[string][]types.TelemetryRecord
	source   string
	loadedAt time.Time
}

// NewTable builds a Table from records. The slice is copied so later changes
// by the caller are not visible through the Table.
func NewTable(records []types.TelemetryRecord, source string) *Table {
	own := make([]types.TelemetryRecord, len(records))
	copy(own, records)

	idx := make(map[string][]types.TelemetryRecord)
	for _, r := range own {
		idx[r.Region] = append(idx[r.Region], r)
	}
	return &Table{
		records:  own,
		byRegion: idx,
		source:   source,
		loadedAt: time.Now().UTC(),
	}
}

// Select returns the records for region in dataset order. The returned slice
// must not be modified.
func (t *Table) Select(region string) []types.TelemetryRecord {
	return t.byRegion[region]
}

// Len returns the total number of records.
func (t *Table) Len() int { return len(t.records) }

// Regions returns the distinct region names, sorted.
func (t *Table) Regions() []string {
	out := make([]string, 0, len(t.byRegion))
	for r := range t.byRegion {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of records for region.
func (t *Table) Count(region string) int { return len(t.byRegion[region]) }

// Source is the path or object URL the table was loaded from.
func (t *Table) Source() string { return t.source }

// LoadedAt is when the table was built.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }
