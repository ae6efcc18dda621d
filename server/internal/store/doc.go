// Package store holds the process-wide dataset table. The table is loaded
// once at startup; with dataset.watch enabled, Watch rebuilds it from disk on
// change and swaps the new table in without touching the one in-flight
// requests are reading.
package store
