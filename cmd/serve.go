package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/iotify/gateway/internal/config"
	"github.com/iotify/gateway/internal/device"
	"github.com/iotify/gateway/internal/directory"
	"github.com/iotify/gateway/internal/gateway"
	"github.com/iotify/gateway/internal/mdns"
)

// ServeConfig holds the serve command's flag overrides. Zero values mean
// "not set on the command line"; the config file value wins then.
type ServeConfig struct {
	ConfigPath string
	ClientAddr string
	DeviceAddr string
	Database   string
	LegacyWire bool
	Synthetic  bool
	Mdns       bool
}

func runServe(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	sc := &ServeConfig{}
	fs.StringVar(&sc.ConfigPath, "config", "", "Path to config file (default: ~/.iotify/config.toml)")
	fs.StringVar(&sc.ClientAddr, "client-addr", "", "Client WebSocket listen address (overrides config)")
	fs.StringVar(&sc.DeviceAddr, "device-addr", "", "Device WebSocket listen address (overrides config)")
	fs.StringVar(&sc.Database, "db", "", "Path to the SQLite database (overrides config)")
	fs.BoolVar(&sc.LegacyWire, "legacy-wire", false, "Speak the historical Python-literal wire format")
	fs.BoolVar(&sc.Synthetic, "synthetic-devices", false, "Synthesize placeholder devices for empty accounts (demo)")
	fs.BoolVar(&sc.Mdns, "mdns", false, "Advertise the client endpoint via mDNS")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iotify serve [options]\n\nRun the gateway daemon.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.Load(sc.ConfigPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	applyServeOverrides(cfg, sc)

	store, err := directory.Open(cfg.Database)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to open directory database: %v\n", err)
		return 1
	}
	defer store.Close()

	link := device.NewLink(cfg.DeviceTimeout())
	link.SetStateHandler(persistStateHandler(store))

	sup := gateway.New(gateway.Options{
		ClientAddr: cfg.ClientAddr,
		DeviceAddr: cfg.DeviceAddr,
		Directory:  directory.NewAdapter(store, cfg.SyntheticDevices),
		Link:       link,
		LegacyWire: cfg.LegacyWire,
	})

	if err := <-sup.StartAsync(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer sup.Stop()

	fmt.Fprintf(stdout, "Gateway running\n")
	fmt.Fprintf(stdout, "  Clients: ws://%s/ws\n", sup.ClientAddr())
	fmt.Fprintf(stdout, "  Devices: ws://%s/ws\n", sup.DeviceAddr())

	var advertiser *mdns.Advertiser
	if cfg.MdnsEnabled {
		port, err := listenPort(sup.ClientAddr())
		if err != nil {
			fmt.Fprintf(stderr, "Warning: mDNS disabled: %v\n", err)
		} else {
			devicePort, _ := listenPort(sup.DeviceAddr())
			advertiser = mdns.NewAdvertiser(mdns.Config{
				Port:       port,
				DevicePort: devicePort,
				Name:       cfg.MdnsName,
				LegacyWire: cfg.LegacyWire,
			})
			if err := advertiser.Start(); err != nil {
				fmt.Fprintf(stderr, "Warning: mDNS advertisement failed: %v\n", err)
				advertiser = nil
			} else {
				fmt.Fprintf(stdout, "  mDNS:    advertising %s on port %d\n", mdns.ServiceType, port)
			}
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Fprintf(stdout, "Received %s, shutting down\n", sig)

	if advertiser != nil {
		advertiser.Stop()
	}
	if err := sup.Stop(); err != nil {
		fmt.Fprintf(stderr, "Error during shutdown: %v\n", err)
		return 1
	}
	return 0
}

// persistStateHandler returns the link callback that writes confirmed pin
// states back to the directory, so the stored view survives restarts.
func persistStateHandler(store *directory.Store) device.StateHandler {
	return func(pin, state string) {
		p, err := strconv.Atoi(pin)
		if err != nil {
			log.Printf("serve: ignoring state for non-numeric pin %q", pin)
			return
		}
		if err := store.UpdateCachedState(p, state); err != nil {
			log.Printf("serve: persisting state for pin %d: %v", p, err)
		}
	}
}

// applyServeOverrides copies set command-line flags over file values.
func applyServeOverrides(cfg *config.Config, sc *ServeConfig) {
	if sc.ClientAddr != "" {
		cfg.ClientAddr = sc.ClientAddr
	}
	if sc.DeviceAddr != "" {
		cfg.DeviceAddr = sc.DeviceAddr
	}
	if sc.Database != "" {
		cfg.Database = sc.Database
	}
	if sc.LegacyWire {
		cfg.LegacyWire = true
	}
	if sc.Synthetic {
		cfg.SyntheticDevices = true
	}
	if sc.Mdns {
		cfg.MdnsEnabled = true
	}
}

// listenPort extracts the numeric port from a bound host:port address.
func listenPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("cannot parse listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("cannot parse port %q: %w", portStr, err)
	}
	return port, nil
}

func runConfigInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", "", "Config file location (default: ~/.iotify/config.toml)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	target := *path
	if target == "" {
		var err error
		target, err = config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := config.WriteDefault(target); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Config file ready at %s\n", target)
	return 0
}
