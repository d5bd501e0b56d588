package main

import (
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags.
// Example: go build -ldflags="-X main.Version=v0.1.0" ./cmd
var Version = "dev"

const usage = `iotify - WebSocket gateway for ESP-class pin controllers

Usage:
  iotify <command> [options]

Commands:
  serve                Run the gateway daemon
  users add <name>     Add a user (prompts for password)
  users list           List users
  devices add          Add a device record for a user
  devices list         List a user's device records
  url                  Print the client connection URL
  config init          Write a commented default config file

Run 'iotify <command> --help' for more information on a command.
`

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	switch args[1] {
	case "serve":
		return runServe(args[2:], stdout, stderr)
	case "users":
		if len(args) < 3 {
			fmt.Fprintln(stdout, "Usage: iotify users <add|list>")
			return 1
		}
		switch args[2] {
		case "add":
			return runUsersAdd(args[3:], stdout, stderr)
		case "list":
			return runUsersList(args[3:], stdout, stderr)
		default:
			fmt.Fprintf(stdout, "Unknown users command: %s\n", args[2])
			return 1
		}
	case "devices":
		if len(args) < 3 {
			fmt.Fprintln(stdout, "Usage: iotify devices <add|list>")
			return 1
		}
		switch args[2] {
		case "add":
			return runDevicesAdd(args[3:], stdout, stderr)
		case "list":
			return runDevicesList(args[3:], stdout, stderr)
		default:
			fmt.Fprintf(stdout, "Unknown devices command: %s\n", args[2])
			return 1
		}
	case "url":
		return runURL(args[2:], stdout, stderr)
	case "config":
		if len(args) < 3 || args[2] != "init" {
			fmt.Fprintln(stdout, "Usage: iotify config init")
			return 1
		}
		return runConfigInit(args[3:], stdout, stderr)
	case "--help", "-h", "help":
		fmt.Fprint(stdout, usage)
		return 0
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "iotify %s\n", Version)
		return 0
	default:
		fmt.Fprintf(stdout, "Unknown command: %s\n", args[1])
		fmt.Fprint(stdout, usage)
		return 1
	}
}
