package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
client_addr = "127.0.0.1:9000"
device_addr = "127.0.0.1:9001"
database = "/tmp/test.db"
device_timeout_sec = 2
legacy_wire = true
synthetic_devices = true
mdns_enabled = true
mdns_name = "bench-gateway"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ClientAddr != "127.0.0.1:9000" {
		t.Errorf("ClientAddr = %q", cfg.ClientAddr)
	}
	if cfg.DeviceAddr != "127.0.0.1:9001" {
		t.Errorf("DeviceAddr = %q", cfg.DeviceAddr)
	}
	if cfg.Database != "/tmp/test.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.DeviceTimeout() != 2*time.Second {
		t.Errorf("DeviceTimeout() = %v", cfg.DeviceTimeout())
	}
	if !cfg.LegacyWire || !cfg.SyntheticDevices || !cfg.MdnsEnabled {
		t.Error("boolean flags not loaded")
	}
	if cfg.MdnsName != "bench-gateway" {
		t.Errorf("MdnsName = %q", cfg.MdnsName)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ClientAddr != DefaultClientAddr {
		t.Errorf("ClientAddr = %q, want %q", cfg.ClientAddr, DefaultClientAddr)
	}
	if cfg.DeviceAddr != DefaultDeviceAddr {
		t.Errorf("DeviceAddr = %q, want %q", cfg.DeviceAddr, DefaultDeviceAddr)
	}
	if cfg.DeviceTimeout() != 5*time.Second {
		t.Errorf("DeviceTimeout() = %v, want 5s", cfg.DeviceTimeout())
	}
	if cfg.LegacyWire || cfg.SyntheticDevices || cfg.MdnsEnabled {
		t.Error("boolean flags should default to false")
	}
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("client_addr = [broken"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.toml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "client_addr") {
		t.Error("default config missing client_addr key")
	}

	// The written file must be loadable.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written default) error: %v", err)
	}
	if cfg.ClientAddr != "0.0.0.0:8765" {
		t.Errorf("ClientAddr = %q", cfg.ClientAddr)
	}

	// Second write must not overwrite.
	if err := os.WriteFile(path, []byte(`client_addr = "1.2.3.4:1"`), 0600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() second call error: %v", err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ClientAddr != "1.2.3.4:1" {
		t.Error("WriteDefault overwrote an existing file")
	}
}
