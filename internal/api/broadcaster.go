package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
	"github.com/nerrad567/nodex-core/internal/infrastructure/logging"
	"github.com/nerrad567/nodex-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/nodex-core/internal/infrastructure/telemetry"
	"github.com/nerrad567/nodex-core/internal/registry"
)

// historyRecordTimeout bounds each per-tick history insert.
const historyRecordTimeout = 2 * time.Second

// BroadcasterDeps holds the dependencies of the broadcast loop.
type BroadcasterDeps struct {
	Config    config.BroadcastConfig
	Hub       *Hub
	Registry  *registry.Registry
	History   *registry.History // optional
	Telemetry *telemetry.Client // optional
	MQTT      *mqtt.Client      // optional
	Logger    *logging.Logger
}

// Broadcaster drives the snapshot cadence of the network.
//
// The ticker runs for the process lifetime. On each tick with at least
// one connected observer it regenerates readings, records history, writes
// telemetry, exports to MQTT, and pushes one update snapshot to every
// observer. With no observers connected the tick is a no-op, so readings
// stay frozen while nobody is watching.
type Broadcaster struct {
	cfg       config.BroadcastConfig
	hub       *Hub
	registry  *registry.Registry
	history   *registry.History
	telemetry *telemetry.Client
	mqtt      *mqtt.Client
	logger    *logging.Logger
}

// NewBroadcaster creates a broadcaster. It does not start ticking until
// Run is called.
func NewBroadcaster(deps BroadcasterDeps) *Broadcaster {
	return &Broadcaster{
		cfg:       deps.Config,
		hub:       deps.Hub,
		registry:  deps.Registry,
		history:   deps.History,
		telemetry: deps.Telemetry,
		mqtt:      deps.MQTT,
		logger:    deps.Logger,
	}
}

// Run ticks at the configured interval until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	interval := b.cfg.GetInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info("broadcaster started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("broadcaster stopped")
			return
		case now := <-ticker.C:
			b.tick(ctx, now.UTC())
		}
	}
}

// tick performs one broadcast cycle.
func (b *Broadcaster) tick(ctx context.Context, now time.Time) {
	if b.hub.ClientCount() == 0 {
		return
	}

	b.registry.RefreshReadings(now)
	stats, devices := b.registry.Snapshot()

	msg := &registry.SnapshotMessage{
		Type:         registry.SnapshotUpdate,
		Timestamp:    now,
		NetworkStats: stats,
		Devices:      devices,
	}
	b.hub.BroadcastSnapshot(msg)

	b.recordHistory(ctx, devices)
	b.writeTelemetry(stats, devices)
	b.exportSnapshot(msg)
}

// recordHistory appends the fresh readings of online devices to the
// bounded history window.
func (b *Broadcaster) recordHistory(ctx context.Context, devices []registry.Device) {
	if b.history == nil {
		return
	}

	recCtx, cancel := context.WithTimeout(ctx, historyRecordTimeout)
	defer cancel()

	for i := range devices {
		d := &devices[i]
		if d.Status != registry.StatusOnline {
			continue
		}
		if err := b.history.Record(recCtx, d.ID, d.Reading); err != nil {
			b.logger.Warn("failed to record reading history", "device_id", d.ID, "error", err)
			return
		}
	}
}

// writeTelemetry ships numeric reading fields and the network counters
// to InfluxDB. Writes are batched and non-blocking.
func (b *Broadcaster) writeTelemetry(stats registry.NetworkStats, devices []registry.Device) {
	if b.telemetry == nil {
		return
	}

	for i := range devices {
		d := &devices[i]
		switch {
		case d.Reading.Temperatura != nil:
			b.telemetry.WriteReading(d.ID, string(d.Type), "temperatura", *d.Reading.Temperatura)
		case d.Reading.Sonido != nil:
			b.telemetry.WriteReading(d.ID, string(d.Type), "sonido", float64(*d.Reading.Sonido))
		case d.Reading.Movimiento != nil:
			v := 0.0
			if *d.Reading.Movimiento {
				v = 1.0
			}
			b.telemetry.WriteReading(d.ID, string(d.Type), "movimiento", v)
		}
	}

	b.telemetry.WriteNetworkStats(stats.TotalDevices, stats.OnlineDevices,
		stats.NetworkQuality, stats.MotionDetected)
}

// exportSnapshot mirrors the snapshot to the retained MQTT topic.
func (b *Broadcaster) exportSnapshot(msg *registry.SnapshotMessage) {
	if b.mqtt == nil {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal snapshot for export", "error", err)
		return
	}
	if err := b.mqtt.PublishSnapshot(payload); err != nil {
		b.logger.Warn("snapshot export failed", "error", err)
	}
}
