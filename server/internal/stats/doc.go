// Package stats computes per-region latency and uptime summaries.
//
// Aggregate walks the requested regions in order and, for every region that
// has at least one record, derives:
//
//   - avg_latency: mean latency_ms, rounded to 2 decimals
//   - p95_latency: 0.95 quantile of latency_ms with linear interpolation
//     between order statistics, rounded to 2 decimals
//   - avg_uptime:  mean uptime_pct, rounded to 3 decimals
//   - breaches:    records with latency_ms strictly above the threshold
//
// The numeric helpers reproduce the reference numeric stack bit for bit:
// Mean uses pairwise summation, Quantile uses the two-sided lerp of the
// "linear" quantile method and Round rounds the exact binary value half to
// even.
package stats
