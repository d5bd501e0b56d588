package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/iotify/gateway/internal/directory"
)

func runDevicesAdd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("devices add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "Path to the SQLite database (overrides config)")
	owner := fs.String("owner", "", "Username that owns the device (required)")
	name := fs.String("name", "", "Human-readable device name (required)")
	pin := fs.Int("pin", -1, "Controller pin number (required)")
	externalID := fs.String("external-id", "", "External device identifier (generated if omitted)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iotify devices add [options]\n\nAdd a device record to the directory.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *owner == "" || *name == "" || *pin < 0 {
		fs.Usage()
		return 1
	}

	store, err := openStoreFromFlags(*configPath, *dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	// Owner must exist; a dangling device row would never show up anywhere.
	if _, err := store.GetUser(*owner); err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			fmt.Fprintf(stderr, "Error: no such user %q. Add one with: iotify users add %s\n", *owner, *owner)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	record := directory.Record{
		Owner:      *owner,
		Name:       *name,
		ExternalID: *externalID,
		Pin:        *pin,
	}
	if err := store.AddDevice(&record); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Added device %q (pin %d, id %s) for %s\n", record.Name, record.Pin, record.ExternalID, record.Owner)
	return 0
}

func runDevicesList(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("devices list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "Path to the SQLite database (overrides config)")
	owner := fs.String("owner", "", "Username to list devices for (required)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iotify devices list --owner <username>\n\nList a user's device records.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *owner == "" {
		fs.Usage()
		return 1
	}

	store, err := openStoreFromFlags(*configPath, *dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	records, err := store.DevicesForOwner(*owner)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if len(records) == 0 {
		fmt.Fprintf(stdout, "No devices for %s. Add one with: iotify devices add --owner %s --name <name> --pin <pin>\n", *owner, *owner)
		return 0
	}

	fmt.Fprintf(stdout, "%-4s %-24s %-14s %s\n", "PIN", "NAME", "ID", "STATE")
	for _, r := range records {
		fmt.Fprintf(stdout, "%-4d %-24s %-14s %s\n", r.Pin, r.Name, r.ExternalID, r.CachedState)
	}
	return 0
}
