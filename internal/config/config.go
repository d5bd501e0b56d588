// Package config provides TOML configuration file loading for the gateway.
// The configuration file lives at ~/.iotify/config.toml by default, but can
// be overridden with the --config flag. CLI flags always take precedence over
// file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the gateway configuration file structure.
// Field names map to snake_case keys in TOML files via struct tags.
type Config struct {
	// ClientAddr is the host:port for the client-facing WebSocket listener.
	// Default: 0.0.0.0:8765 (the port the historical server used)
	ClientAddr string `toml:"client_addr"`

	// DeviceAddr is the host:port for the device-agent WebSocket listener.
	// Default: 0.0.0.0:8766
	DeviceAddr string `toml:"device_addr"`

	// Database is the path to the SQLite directory database.
	// Default: ~/.iotify/iotify.db
	Database string `toml:"database"`

	// DeviceTimeoutSec bounds how long the gateway waits for the device to
	// answer one command or status query. Default: 5
	DeviceTimeoutSec int `toml:"device_timeout_sec"`

	// LegacyWire accepts and emits the historical Python-literal message
	// format instead of strict JSON. Only for old client builds.
	// Default: false
	LegacyWire bool `toml:"legacy_wire"`

	// SyntheticDevices makes the directory synthesize a fixed placeholder
	// device set when a user has no device rows. Demo/testing aid; must stay
	// off in production. Default: false
	SyntheticDevices bool `toml:"synthetic_devices"`

	// MdnsEnabled advertises the client endpoint on the local network via
	// mDNS/Bonjour so apps can discover the gateway without manual IP entry.
	// Default: false
	MdnsEnabled bool `toml:"mdns_enabled"`

	// MdnsName is the mDNS instance name. Defaults to the system hostname.
	MdnsName string `toml:"mdns_name"`
}

// DefaultConfigPath returns the default config file location: ~/.iotify/config.toml.
// Returns an error only if the user's home directory cannot be determined.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".iotify", "config.toml"), nil
}

// DefaultDatabasePath returns the default SQLite database location:
// ~/.iotify/iotify.db.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".iotify", "iotify.db"), nil
}

// Load reads a TOML config file from the given path and returns a Config.
//
// Behavior:
//   - If path is empty, attempts to load from the default location
//     (~/.iotify/config.toml). Returns a default Config without error if the
//     default file doesn't exist.
//   - If path is specified, returns an error if the file doesn't exist.
//   - Returns an error if the file exists but cannot be parsed.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		// No explicit path: try default location, but don't error if missing.
		// This allows the gateway to start without any config file.
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			cfg.applyDefaults()
			return cfg, nil
		}
		if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		path = defaultPath
	} else {
		// Explicit path provided: error if file doesn't exist.
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in zero-valued fields.
func (c *Config) applyDefaults() {
	if c.ClientAddr == "" {
		c.ClientAddr = DefaultClientAddr
	}
	if c.DeviceAddr == "" {
		c.DeviceAddr = DefaultDeviceAddr
	}
	if c.Database == "" {
		if path, err := DefaultDatabasePath(); err == nil {
			c.Database = path
		}
	}
	if c.DeviceTimeoutSec <= 0 {
		c.DeviceTimeoutSec = DefaultDeviceTimeoutSec
	}
}

// DeviceTimeout returns the device request timeout as a duration.
func (c *Config) DeviceTimeout() time.Duration {
	return time.Duration(c.DeviceTimeoutSec) * time.Second
}

// WriteDefault creates a commented config file at the given path.
//
// Behavior:
//   - If the file already exists, returns without error (does not overwrite).
//   - Creates the parent directory if it doesn't exist.
//   - Returns an error if the file cannot be written.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, nothing to do
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := `# iotify gateway configuration

# Client-facing WebSocket listener
client_addr = "0.0.0.0:8765"

# Device-agent WebSocket listener
device_addr = "0.0.0.0:8766"

# Seconds to wait for the device to answer a command or status query
device_timeout_sec = 5

# Accept/emit the historical Python-literal wire format (old clients only)
legacy_wire = false

# Synthesize placeholder devices for users with no device rows (demo only)
synthetic_devices = false

# Advertise the client endpoint on the local network via mDNS
mdns_enabled = false
`

	// Restrictive permissions: the file may later carry credentials.
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
