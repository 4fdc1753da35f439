// Package logging provides structured logging for NodeX Core.
//
// It wraps log/slog with configuration-driven format and level selection
// and attaches service identity fields to every record.
package logging
