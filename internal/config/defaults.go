package config

// DefaultClientAddr is the default listen address for the client-facing
// WebSocket listener. Port 8765 matches the historical server.
const DefaultClientAddr = "0.0.0.0:8765"

// DefaultDeviceAddr is the default listen address for the device-agent
// WebSocket listener.
const DefaultDeviceAddr = "0.0.0.0:8766"

// DefaultDeviceTimeoutSec bounds device command and status-query waits.
const DefaultDeviceTimeoutSec = 5
