package wire

// device.go contains the device-side codec. The embedded agent speaks a
// plain-text protocol with no request ids: the gateway writes "<pin>,<state>"
// commands or the literal "status" query, and reads back status frames,
// "ack:"-prefixed acknowledgments, or free-form informational text.

import (
	"fmt"
	"strings"
)

// StatusQuery is the literal token that asks the device for a full
// pin-state report.
const StatusQuery = "status"

// ackPrefix marks an acknowledgment frame from the device.
const ackPrefix = "ack:"

// DeviceFrameKind identifies the decoded shape of a device frame.
type DeviceFrameKind int

const (
	// DeviceFrameInfo is free-form text from the agent. Logged, never an error.
	DeviceFrameInfo DeviceFrameKind = iota

	// DeviceFrameStatus is a "pin:state,pin:state" report.
	DeviceFrameStatus

	// DeviceFrameAck acknowledges a previously written command.
	DeviceFrameAck
)

// DeviceFrame is the decoded form of one inbound device message.
type DeviceFrame struct {
	Kind DeviceFrameKind

	// States holds the pin-to-state mapping for status frames.
	States map[string]string

	// Detail holds the text after "ack:" for acknowledgments, or the raw
	// text for informational frames.
	Detail string
}

// DecodeDeviceFrame classifies one raw message from the device agent.
// Acknowledgments are checked first, then the status-frame shape; anything
// else is informational.
func DecodeDeviceFrame(raw string) DeviceFrame {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, ackPrefix) {
		return DeviceFrame{
			Kind:   DeviceFrameAck,
			Detail: strings.TrimSpace(strings.TrimPrefix(raw, ackPrefix)),
		}
	}

	if states, ok := parseStatusFrame(raw); ok {
		return DeviceFrame{Kind: DeviceFrameStatus, States: states}
	}

	return DeviceFrame{Kind: DeviceFrameInfo, Detail: raw}
}

// parseStatusFrame parses "5:1,6:0" into {"5":"1","6":"0"}.
// Every comma-separated segment must be a non-empty pin:state pair.
func parseStatusFrame(raw string) (map[string]string, bool) {
	if !strings.Contains(raw, ":") {
		return nil, false
	}

	states := make(map[string]string)
	for _, segment := range strings.Split(raw, ",") {
		pin, state, found := strings.Cut(strings.TrimSpace(segment), ":")
		if !found {
			return nil, false
		}
		pin = strings.TrimSpace(pin)
		state = strings.TrimSpace(state)
		if pin == "" || state == "" {
			return nil, false
		}
		states[pin] = state
	}
	return states, true
}

// EncodeCommand renders a pin control command for the device socket.
func EncodeCommand(pin, state int) string {
	return fmt.Sprintf("%d,%d", pin, state)
}
