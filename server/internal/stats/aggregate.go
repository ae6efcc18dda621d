package stats

import (
	"bytes"
	"encoding/json"

	"github.com/obsidianstack/regionstats/pkg/types"
)

// P95 is the quantile reported as p95_latency.
const P95 = 0.95

// Selector returns the records belonging to one region.
type Selector interface {
	Select(region string) []types.TelemetryRecord
}

// Result maps region to its stats and remembers the order regions were
// requested in. It marshals to a JSON object in that order.
type Result struct {
	order []string
	stats map[string]types.RegionStats
}

// Aggregate computes RegionStats for every requested region that has records.
// Regions without records are omitted. A region requested more than once is
// computed once and keeps its first position.
func Aggregate(src Selector, regions []string, thresholdMs int64) *Result {
	res := &Result{stats: make(map[string]types.RegionStats, len(regions))}
	for _, region := range regions {
		if _, done := res.stats[region]; done {
			continue
		}
		st, ok := Compute(src.Select(region), thresholdMs)
		if !ok {
			continue
		}
		res.order = append(res.order, region)
		res.stats[region] = st
	}
	return res
}

// Compute summarises one region's records. ok is false when recs is empty.
func Compute(recs []types.TelemetryRecord, thresholdMs int64) (st types.RegionStats, ok bool) {
	if len(recs) == 0 {
		return types.RegionStats{}, false
	}

	latency := make([]float64, len(recs))
	uptime := make([]float64, len(recs))
	threshold := float64(thresholdMs)
	for i, r := range recs {
		latency[i] = r.LatencyMs
		uptime[i] = r.UptimePct
		if r.LatencyMs > threshold {
			st.Breaches++
		}
	}

	st.AvgLatency = Round(Mean(latency), 2)
	st.P95Latency = Round(Quantile(latency, P95), 2)
	st.AvgUptime = Round(Mean(uptime), 3)
	return st, true
}

// Regions returns the regions present in the result, in request order.
func (r *Result) Regions() []string { return r.order }

// Get returns the stats for region.
func (r *Result) Get(region string) (types.RegionStats, bool) {
	st, ok := r.stats[region]
	return st, ok
}

// Len is the number of regions in the result.
func (r *Result) Len() int { return len(r.order) }

// Map returns a copy of the result as a plain map.
func (r *Result) Map() map[string]types.RegionStats {
	out := make(map[string]types.RegionStats, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the result as an object keyed by region, in request order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, region := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(region)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.stats[region])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
