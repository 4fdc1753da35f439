// Package mqtt provides optional snapshot export over MQTT.
//
// When enabled, the server mirrors every broadcast snapshot to a retained
// broker topic so non-WebSocket consumers (dashboards, recorders) can
// follow the simulated network without holding a socket open.
//
// The client wraps paho.mqtt.golang with:
//   - Auto-reconnect with exponential backoff
//   - Last Will and Testament for crash detection
//   - Publish-only surface (no subscriptions)
//
// Export is disabled by default and the server runs fully without it.
package mqtt
