// Package metrics records service counters on a private Prometheus registry
// and serves them for scraping.
//
// Families:
//
//	regionstats_http_requests_total{route,code}       counter
//	regionstats_http_request_duration_seconds{route}   histogram
//	regionstats_region_queries_total{result}           counter: found | missing
//	regionstats_breaches_reported_total                counter
//	regionstats_dataset_records                        gauge
//	regionstats_dataset_regions                        gauge
//	regionstats_dataset_loaded_timestamp_seconds       gauge
//	regionstats_dataset_reloads_total                  counter
//
// The registry is owned by the Recorder; nothing is added to the global
// default registry.
package metrics
