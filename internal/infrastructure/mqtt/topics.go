package mqtt

// Topic layout for NodeX export.
//
// NodeX publishes only; nothing in the system subscribes through this
// client. Both topics carry retained messages so subscribers joining
// late see the current state immediately.
const (
	// TopicSystemStatus carries online/offline lifecycle messages,
	// including the LWT published by the broker on unexpected disconnect.
	TopicSystemStatus = "nodex/system/status"

	// TopicSnapshot carries the full network snapshot, published on the
	// same cadence as the WebSocket broadcast.
	TopicSnapshot = "nodex/snapshot"
)
