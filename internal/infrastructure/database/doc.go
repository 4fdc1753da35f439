// Package database provides the SQLite handle backing the bounded
// reading-history window.
//
// The default data source is an in-memory database, so history is bounded
// to the process lifetime as well as to the configured per-device window.
package database
