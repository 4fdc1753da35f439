package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading writes a single synthetic reading field to InfluxDB.
//
// This is the primary method for recording simulated sensor output.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the device (e.g., "temperature-1712345678901")
//   - deviceType: The device type tag (e.g., "temperature", "sound")
//   - field: The reading field name (e.g., "temperatura", "sonido")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteReading("temperature-1712345678901", "temperature", "temperatura", 22.47)
func (c *Client) WriteReading(deviceID, deviceType, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_readings",
		map[string]string{
			"device_id": deviceID,
			"type":      deviceType,
			"field":     field,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteNetworkStats writes aggregate network counters.
//
// Called once per broadcast tick so the bucket carries the same view
// observers receive over the WebSocket channel.
//
// Parameters:
//   - total: Total registered devices
//   - online: Devices currently online
//   - quality: Fixed network quality indicator
//   - motion: Cumulative motion detection count
func (c *Client) WriteNetworkStats(total, online, quality, motion int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"network_stats",
		map[string]string{},
		map[string]interface{}{
			"total_devices":   total,
			"online_devices":  online,
			"network_quality": quality,
			"motion_detected": motion,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
