package registry

import "time"

// DeviceType classifies a simulated device.
type DeviceType string

// Device types supported by the registry.
const (
	DeviceTypeTemperature DeviceType = "temperature"
	DeviceTypeSound       DeviceType = "sound"
	DeviceTypeCamera      DeviceType = "camera"
	DeviceTypeSpeaker     DeviceType = "speaker"
	DeviceTypeComputer    DeviceType = "computer"
)

// AllDeviceTypes returns all registrable device types.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		DeviceTypeTemperature,
		DeviceTypeSound,
		DeviceTypeCamera,
		DeviceTypeSpeaker,
		DeviceTypeComputer,
	}
}

// IsValid returns true if the device type is one the registry accepts.
func (t DeviceType) IsValid() bool {
	switch t {
	case DeviceTypeTemperature, DeviceTypeSound, DeviceTypeCamera,
		DeviceTypeSpeaker, DeviceTypeComputer:
		return true
	}
	return false
}

// Status represents device availability.
type Status string

// Device statuses.
const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Permanent seed device IDs. These devices exist from startup and can
// never be unregistered.
const (
	PermanentRootID    = "server-1"
	PermanentControlID = "pc-1"
)

// IsPermanent reports whether the id belongs to a permanent seed device.
func IsPermanent(id string) bool {
	return id == PermanentRootID || id == PermanentControlID
}

// Reading is the type-tagged synthetic payload carried by a device.
//
// Exactly one value field is set depending on the device type:
// temperatura for temperature sensors, sonido for sound sensors,
// movimiento for cameras. Speakers and computers carry only the
// timestamp. Field names match the original wire format.
type Reading struct {
	Temperatura *float64  `json:"temperatura,omitempty"`
	Sonido      *int      `json:"sonido,omitempty"`
	Movimiento  *bool     `json:"movimiento,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// DeepCopy creates an independent copy of the Reading.
// Pointer fields are cloned so modifications to the copy do not
// affect the original.
func (r Reading) DeepCopy() Reading {
	cpy := r
	if r.Temperatura != nil {
		v := *r.Temperatura
		cpy.Temperatura = &v
	}
	if r.Sonido != nil {
		v := *r.Sonido
		cpy.Sonido = &v
	}
	if r.Movimiento != nil {
		v := *r.Movimiento
		cpy.Movimiento = &v
	}
	return cpy
}

// Device represents a simulated device in the registry.
type Device struct {
	ID      string     `json:"id"`
	Type    DeviceType `json:"type"`
	Name    string     `json:"name,omitempty"`
	Details string     `json:"details,omitempty"`
	Status  Status     `json:"status"`
	Reading Reading    `json:"data"`
}

// DeepCopy creates a complete independent copy of the Device.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	cpy.Reading = d.Reading.DeepCopy()
	return &cpy
}

// NetworkStats are the aggregate counters broadcast with every snapshot.
//
// All counters except MotionDetected are recomputed from the device set
// on every mutation. MotionDetected is cumulative and only ever grows.
type NetworkStats struct {
	TotalDevices   int `json:"totalDevices"`
	OnlineDevices  int `json:"onlineDevices"`
	OfflineDevices int `json:"offlineDevices"`
	NetworkQuality int `json:"networkQuality"`
	ActiveCameras  int `json:"activeCameras"`
	MotionDetected int `json:"motionDetected"`
}

// Snapshot message types on the broadcast channel.
const (
	// SnapshotInit is sent once to each observer on connect.
	SnapshotInit = "init"

	// SnapshotUpdate is sent to every observer on each broadcast tick.
	SnapshotUpdate = "update"
)

// SnapshotMessage is the wire format of the broadcast channel.
//
// Every message carries the complete network state. Observers replace
// their view wholesale; there are no deltas.
type SnapshotMessage struct {
	Type         string       `json:"type"`
	Timestamp    time.Time    `json:"timestamp"`
	NetworkStats NetworkStats `json:"networkStats"`
	Devices      []Device     `json:"devices"`
}
