package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/nodex-core/internal/infrastructure/database"
)

// ReadingRecord is one row of the bounded reading-history window.
type ReadingRecord struct {
	DeviceID   string    `json:"deviceId"`
	Reading    Reading   `json:"data"`
	RecordedAt time.Time `json:"recordedAt"`
}

// History is the bounded per-device reading log.
//
// Each insert prunes the device's rows down to the configured window
// size, so the table never grows beyond maxPerDevice rows per device.
// The backing database is in-memory; nothing survives a restart.
type History struct {
	db           *database.DB
	maxPerDevice int
}

// NewHistory creates a history window over the given database.
// maxPerDevice values below 1 fall back to a window of 50.
func NewHistory(db *database.DB, maxPerDevice int) *History {
	if maxPerDevice < 1 {
		maxPerDevice = 50
	}
	return &History{
		db:           db,
		maxPerDevice: maxPerDevice,
	}
}

// Record appends a reading for a device and prunes rows beyond the window.
//
// Insert and prune run in one transaction so a crash between them cannot
// leave the window oversized.
func (h *History) Record(ctx context.Context, deviceID string, reading Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshalling reading: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reading_history (device_id, reading, recorded_at) VALUES (?, ?, ?)`,
		deviceID, string(payload), reading.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM reading_history
		 WHERE device_id = ?
		   AND id NOT IN (
		       SELECT id FROM reading_history
		       WHERE device_id = ?
		       ORDER BY id DESC
		       LIMIT ?
		   )`,
		deviceID, deviceID, h.maxPerDevice,
	)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history transaction: %w", err)
	}
	return nil
}

// Recent returns up to limit readings for a device, newest first.
// A limit below 1 or above the window size returns the full window.
func (h *History) Recent(ctx context.Context, deviceID string, limit int) ([]ReadingRecord, error) {
	if limit < 1 || limit > h.maxPerDevice {
		limit = h.maxPerDevice
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT device_id, reading, recorded_at
		 FROM reading_history
		 WHERE device_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var records []ReadingRecord
	for rows.Next() {
		var (
			rec        ReadingRecord
			payload    string
			recordedAt string
		)
		if err := rows.Scan(&rec.DeviceID, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Reading); err != nil {
			return nil, fmt.Errorf("unmarshalling reading: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		rec.RecordedAt = ts
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}

	return records, nil
}

// MaxPerDevice returns the configured window size.
func (h *History) MaxPerDevice() int {
	return h.maxPerDevice
}
