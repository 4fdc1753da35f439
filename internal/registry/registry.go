package registry

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// NetworkQuality is the fixed quality indicator reported in stats.
const NetworkQuality = 85

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the authoritative in-memory device store.
//
// It owns device identity, status, synthetic readings, and the aggregate
// network counters. Every mutation recomputes the counters from the device
// set inside the same critical section, so stats can never drift from the
// devices they describe. MotionDetected is the one cumulative counter and
// is carried forward rather than recomputed.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*Device
	order   []string // insertion order of active device IDs

	// retired holds tombstones of unregistered devices so they can be
	// reactivated later with their identity intact.
	retired map[string]*Device

	stats  NetworkStats
	rng    *rand.Rand
	now    func() time.Time
	logger Logger
}

// New creates a registry seeded with the permanent devices.
//
// server-1 and pc-1 exist from startup, are online, and can never be
// unregistered.
func New() *Registry {
	r := &Registry{
		devices: make(map[string]*Device),
		retired: make(map[string]*Device),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Simulation, not crypto
		now:     time.Now,
		logger:  noopLogger{},
	}

	seeds := []*Device{
		{
			ID:      PermanentRootID,
			Type:    DeviceTypeComputer,
			Name:    "Servidor NodeX",
			Details: "Servidor IoT dedicado",
			Status:  StatusOnline,
		},
		{
			ID:      PermanentControlID,
			Type:    DeviceTypeComputer,
			Name:    "PC Control",
			Details: "Unidad central de control",
			Status:  StatusOnline,
		},
	}
	now := r.now()
	for _, d := range seeds {
		d.Reading = Reading{Timestamp: now}
		r.devices[d.ID] = d
		r.order = append(r.order, d.ID)
	}

	r.recomputeStatsLocked()
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register creates a new device of the given type and returns it with
// the resulting network stats.
//
// The device ID is derived from the type and the registration time in
// unix milliseconds. Registration collisions within the same millisecond
// bump the suffix until the ID is unique.
//
// Returns ErrInvalidDeviceType for an empty type and ErrUnknownDeviceType
// for a type the registry does not recognise.
func (r *Registry) Register(deviceType string) (*Device, NetworkStats, error) {
	if deviceType == "" {
		return nil, NetworkStats{}, ErrInvalidDeviceType
	}
	t := DeviceType(deviceType)
	if !t.IsValid() {
		return nil, NetworkStats{}, fmt.Errorf("%w: %q", ErrUnknownDeviceType, deviceType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	id := r.uniqueIDLocked(t, now)

	d := &Device{
		ID:     id,
		Type:   t,
		Status: StatusOnline,
	}
	d.Reading = GenerateReading(t, now, r.rng)
	r.applyMotionLocked(d.Reading)

	r.devices[id] = d
	r.order = append(r.order, id)
	r.recomputeStatsLocked()

	r.logger.Info("device registered", "device_id", id, "type", t)
	return d.DeepCopy(), r.stats, nil
}

// uniqueIDLocked derives a unique device ID of the form <type>-<unix-millis>.
// If the ID is already taken (same millisecond, or a tombstone), the
// millisecond value is bumped until it is free.
func (r *Registry) uniqueIDLocked(t DeviceType, now time.Time) string {
	millis := now.UnixMilli()
	for {
		id := fmt.Sprintf("%s-%d", t, millis)
		if _, active := r.devices[id]; !active {
			if _, tombstoned := r.retired[id]; !tombstoned {
				return id
			}
		}
		millis++
	}
}

// Unregister removes a device from the active set and retains it as a
// tombstone for later reactivation.
//
// Permanent seed devices return ErrPermanentDevice. An unknown ID is a
// no-op: stats are still recomputed and returned, matching the lenient
// delete-if-present contract of the HTTP API.
func (r *Registry) Unregister(id string) (NetworkStats, error) {
	if IsPermanent(id) {
		return NetworkStats{}, fmt.Errorf("%w: %s", ErrPermanentDevice, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.devices[id]; ok {
		delete(r.devices, id)
		r.order = removeID(r.order, id)
		d.Status = StatusOffline
		r.retired[id] = d
		r.logger.Info("device unregistered", "device_id", id, "type", d.Type)
	}

	r.recomputeStatsLocked()
	return r.stats, nil
}

// Reactivate restores a tombstoned device to the active set, or
// idempotently sets an already-active device online.
//
// A restored device is appended to the insertion order. Unknown IDs
// return ErrDeviceNotFound.
func (r *Registry) Reactivate(id string) (NetworkStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.devices[id]; ok {
		d.Status = StatusOnline
		r.recomputeStatsLocked()
		return r.stats, nil
	}

	d, ok := r.retired[id]
	if !ok {
		return NetworkStats{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	delete(r.retired, id)
	d.Status = StatusOnline
	r.devices[id] = d
	r.order = append(r.order, id)
	r.recomputeStatsLocked()

	r.logger.Info("device reactivated", "device_id", id, "type", d.Type)
	return r.stats, nil
}

// Get retrieves an active device by ID.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d.DeepCopy(), nil
}

// Snapshot returns the current network stats and an insertion-ordered
// deep copy of the active device set.
func (r *Registry) Snapshot() (NetworkStats, []Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		devices = append(devices, *r.devices[id].DeepCopy())
	}
	return r.stats, devices
}

// Stats returns the current network stats.
func (r *Registry) Stats() NetworkStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// RefreshReadings regenerates synthetic readings for all online devices.
// Offline devices keep their last reading. Camera motion detected during
// regeneration increments the cumulative motion counter.
func (r *Registry) RefreshReadings(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		d := r.devices[id]
		if d.Status != StatusOnline {
			continue
		}
		d.Reading = GenerateReading(d.Type, now, r.rng)
		r.applyMotionLocked(d.Reading)
	}
}

// applyMotionLocked increments the cumulative motion counter if the
// reading reports motion. Caller must hold r.mu.
func (r *Registry) applyMotionLocked(reading Reading) {
	if reading.Movimiento != nil && *reading.Movimiento {
		r.stats.MotionDetected++
	}
}

// recomputeStatsLocked rebuilds all derived counters from the active
// device set. MotionDetected is carried forward. Caller must hold r.mu.
func (r *Registry) recomputeStatsLocked() {
	online := 0
	cameras := 0
	for _, d := range r.devices {
		if d.Status == StatusOnline {
			online++
			if d.Type == DeviceTypeCamera {
				cameras++
			}
		}
	}

	r.stats.TotalDevices = len(r.devices)
	r.stats.OnlineDevices = online
	r.stats.OfflineDevices = len(r.devices) - online
	r.stats.NetworkQuality = NetworkQuality
	r.stats.ActiveCameras = cameras
}

// removeID returns order with the first occurrence of id removed.
func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
