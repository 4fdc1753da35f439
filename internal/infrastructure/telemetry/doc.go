// Package telemetry ships synthetic readings to InfluxDB.
//
// When enabled, the broadcaster records each generated reading and the
// per-tick network counters to a bucket, giving the simulated network a
// queryable history beyond the bounded in-memory window.
//
// Telemetry is disabled by default and the server runs fully without it.
package telemetry
