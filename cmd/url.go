package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"

	"github.com/skip2/go-qrcode"

	"github.com/iotify/gateway/internal/config"
)

// URLConfig holds configuration for the url command.
type URLConfig struct {
	ConfigPath string
	Addr       string
	QR         bool
}

func runURL(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("url", flag.ContinueOnError)
	fs.SetOutput(stderr)

	uc := &URLConfig{}
	fs.StringVar(&uc.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&uc.Addr, "addr", "", "Address to display (default: detected LAN IP with the configured port)")
	fs.BoolVar(&uc.QR, "qr", false, "Display the connection URL as a QR code")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iotify url [options]\n\nPrint the URL a client app uses to reach this gateway.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.Load(uc.ConfigPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Displayed address must be reachable from the phone, so a wildcard
	// bind address is replaced with a detected network IP.
	// Priority: explicit flag > Tailscale IP > LAN IP > localhost.
	displayAddr := uc.Addr
	if displayAddr == "" {
		host, port, err := net.SplitHostPort(cfg.ClientAddr)
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot parse client_addr %q: %v\n", cfg.ClientAddr, err)
			return 1
		}
		if host == "" || host == "0.0.0.0" || host == "::" {
			if ip := GetTailscaleIP(); ip != "" {
				host = ip
			} else if ip := GetPreferredOutboundIP(); ip != "" {
				host = ip
			} else {
				fmt.Fprintf(stderr, "Warning: could not detect network IP, using localhost\n")
				host = "127.0.0.1"
			}
		}
		displayAddr = net.JoinHostPort(host, port)
	}

	wsURL := fmt.Sprintf("ws://%s/ws", displayAddr)

	if uc.QR {
		DisplayURLQRCode(stdout, wsURL)
	} else {
		fmt.Fprintln(stdout, wsURL)
	}
	return 0
}

// DisplayURLQRCode renders the connection URL as a terminal QR code with a
// plain-text fallback below it.
func DisplayURLQRCode(w io.Writer, wsURL string) {
	qr, err := qrcode.New(wsURL, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(w, "Error generating QR code: %v\n", err)
		fmt.Fprintln(w, wsURL)
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintln(w, "         SCAN TO CONNECT")
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintln(w, "")

	// ToSmallString(false) produces compact half-block output.
	fmt.Fprint(w, qr.ToSmallString(false))

	fmt.Fprintln(w, "-------------------------------------------")
	fmt.Fprintf(w, "  URL: %s\n", wsURL)
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintln(w, "")
}

// GetPreferredOutboundIP returns the machine's preferred outbound IPv4
// address. It dials a UDP connection to a public IP (no actual traffic is
// sent) and checks which local address the OS routing table selected.
// Returns empty string if detection fails.
func GetPreferredOutboundIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}

// tailscaleNet is the CGNAT range used by Tailscale (100.64.0.0/10).
var tailscaleNet = &net.IPNet{
	IP:   net.IPv4(100, 64, 0, 0),
	Mask: net.CIDRMask(10, 32),
}

// GetTailscaleIP scans network interfaces for a Tailscale IP address.
// Returns empty string if no Tailscale IP is found.
func GetTailscaleIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}

			ip := ipNet.IP.To4()
			if ip != nil && tailscaleNet.Contains(ip) {
				return ip.String()
			}
		}
	}

	return ""
}
