// Package mdns provides optional mDNS/Bonjour advertisement of the gateway.
//
// When enabled, the gateway announces its client port on the local network
// using DNS-SD, so phone apps and the device simulator can find it without
// typing an IP address. Advertisement is opt-in; discovery only reveals
// presence, credentials are still required to do anything.
package mdns

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type for gateway instances.
const ServiceType = "_iotify._tcp"

// ProtocolVersion identifies the advertised wire protocol for
// compatibility checks.
const ProtocolVersion = "1"

// Config holds configuration for mDNS advertisement.
type Config struct {
	// Port is the client WebSocket port to advertise.
	Port int

	// DevicePort is the device-agent WebSocket port, published as a TXT
	// record so device firmware can discover it too. Zero omits it.
	DevicePort int

	// Name is a human-readable name for this gateway.
	// Defaults to the system hostname if empty.
	Name string

	// LegacyWire is true when the gateway speaks the legacy wire format.
	// Advertised so clients can pick the right codec before connecting.
	LegacyWire bool
}

// Advertiser manages the DNS-SD registration for one gateway.
type Advertiser struct {
	config Config
	server *zeroconf.Server
	mu     sync.Mutex
}

// NewAdvertiser creates an mDNS advertiser with the given configuration.
func NewAdvertiser(cfg Config) *Advertiser {
	return &Advertiser{
		config: cfg,
	}
}

// Start begins advertising the gateway via mDNS.
// Safe to call multiple times; subsequent calls are no-ops while running.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	name := a.config.Name
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			name = "iotify-gateway"
		} else {
			name = hostname
		}
	}

	wireFormat := "json"
	if a.config.LegacyWire {
		wireFormat = "legacy"
	}

	txtRecords := []string{
		fmt.Sprintf("version=%s", ProtocolVersion),
		fmt.Sprintf("name=%s", name),
		fmt.Sprintf("wire=%s", wireFormat),
	}
	if a.config.DevicePort > 0 {
		txtRecords = append(txtRecords, fmt.Sprintf("devport=%d", a.config.DevicePort))
	}

	server, err := zeroconf.Register(
		name,
		ServiceType,
		"local.",
		a.config.Port,
		txtRecords,
		nil, // all network interfaces
	)
	if err != nil {
		return fmt.Errorf("mdns register: %w", err)
	}

	a.server = server
	return nil
}

// Stop unregisters the service. Safe to call multiple times or on an
// advertiser that was never started.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// IsRunning returns true if the advertiser is currently registered.
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// DiscoveredGateway is one gateway found on the local network.
type DiscoveredGateway struct {
	// Name is the human-readable gateway name.
	Name string

	// Host is the IP address or hostname.
	Host string

	// Port is the client WebSocket port.
	Port int

	// DevicePort is the device-agent WebSocket port, if advertised.
	DevicePort int

	// Version is the advertised protocol version.
	Version string

	// Wire is the advertised wire format ("json" or "legacy").
	Wire string
}

// Discover browses the local network for gateways until ctx expires.
// Used by the device simulator's discovery mode.
func Discover(ctx context.Context) ([]DiscoveredGateway, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	var (
		gateways []DiscoveredGateway
		mu       sync.Mutex
		wg       sync.WaitGroup
	)

	entries := make(chan *zeroconf.ServiceEntry)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			gw := DiscoveredGateway{
				Name: entry.Instance,
				Port: entry.Port,
			}

			// Prefer IPv4.
			if len(entry.AddrIPv4) > 0 {
				gw.Host = entry.AddrIPv4[0].String()
			} else if len(entry.AddrIPv6) > 0 {
				gw.Host = entry.AddrIPv6[0].String()
			}

			for _, txt := range entry.Text {
				switch {
				case len(txt) > 8 && txt[:8] == "version=":
					gw.Version = txt[8:]
				case len(txt) > 5 && txt[:5] == "name=":
					gw.Name = txt[5:]
				case len(txt) > 5 && txt[:5] == "wire=":
					gw.Wire = txt[5:]
				case len(txt) > 8 && txt[:8] == "devport=":
					if p, err := strconv.Atoi(txt[8:]); err == nil {
						gw.DevicePort = p
					}
				}
			}

			mu.Lock()
			gateways = append(gateways, gw)
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}

	// zeroconf closes the entries channel when ctx is done.
	<-ctx.Done()
	wg.Wait()

	return gateways, nil
}
