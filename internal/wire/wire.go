// Package wire implements the gateway's message codec.
//
// Two populations speak to the gateway and each has its own frame shapes:
//
// Client side (human-facing apps):
//   - control command: "<pin>,<state>" where both are integers
//   - action request: a key/value object, e.g. {"action":"login","username":"bob",...}
//
// Device side (embedded agent):
//   - status frame: "<pin>:<state>,<pin>:<state>,..."
//   - acknowledgment: "ack:" followed by optional detail
//   - anything else is informational and is logged, never treated as an error
//
// The canonical object format is strict JSON. Historical clients used a
// permissive Python-literal form ({'action': 'login', ...}); a legacy codec
// mode keeps those clients working and is enabled via configuration. New
// deployments should leave it off.
package wire

import (
	"strconv"
	"strings"
)

// FrameKind identifies the decoded shape of a client frame.
type FrameKind int

const (
	// FrameMalformed means the raw text matched neither recognized shape.
	FrameMalformed FrameKind = iota

	// FrameControl is a "<pin>,<state>" control command.
	FrameControl

	// FrameAction is a key/value action request (login, devices, ...).
	FrameAction
)

// ControlCommand is a request to drive one pin to a state.
type ControlCommand struct {
	Pin   int
	State int
}

// ActionRequest is a structured client request identified by its action field.
type ActionRequest struct {
	// Action is the request name, e.g. "login" or "devices".
	Action string

	// Fields holds the remaining key/value pairs of the request.
	// Values are always surfaced as strings regardless of the wire form.
	Fields map[string]string
}

// ClientFrame is the decoded form of one inbound client message.
// Exactly one of Control or Action is meaningful, selected by Kind.
type ClientFrame struct {
	Kind    FrameKind
	Control ControlCommand
	Action  ActionRequest
}

// Codec decodes and encodes client-facing frames.
// The zero value is the strict JSON codec; set Legacy to also accept and
// emit the historical Python-literal object form.
type Codec struct {
	Legacy bool
}

// DecodeClientFrame classifies and decodes one raw client message.
//
// Classification is applied in order: if the text contains exactly one comma
// and every other character is a digit or a sign, it is a control command.
// Otherwise it is parsed as a key/value object; if that fails too, the frame
// is malformed.
func (c *Codec) DecodeClientFrame(raw string) ClientFrame {
	raw = strings.TrimSpace(raw)

	if isControlShape(raw) {
		pinStr, stateStr, _ := strings.Cut(raw, ",")
		pin, err1 := strconv.Atoi(pinStr)
		state, err2 := strconv.Atoi(stateStr)
		if err1 != nil || err2 != nil {
			return ClientFrame{Kind: FrameMalformed}
		}
		return ClientFrame{
			Kind:    FrameControl,
			Control: ControlCommand{Pin: pin, State: state},
		}
	}

	fields, ok := c.decodeObject(raw)
	if !ok {
		return ClientFrame{Kind: FrameMalformed}
	}

	action := fields["action"]
	delete(fields, "action")
	return ClientFrame{
		Kind:   FrameAction,
		Action: ActionRequest{Action: action, Fields: fields},
	}
}

// isControlShape reports whether raw looks like a "<pin>,<state>" command:
// exactly one comma, at least one digit, and nothing but digits and signs
// elsewhere. Mirrors the historical classifier so frames like "5,1" and
// "-1,0" are commands while "{...}" and "hello,world" are not.
func isControlShape(raw string) bool {
	if strings.Count(raw, ",") != 1 {
		return false
	}
	digits := 0
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ',' || r == '-':
		default:
			return false
		}
	}
	return digits > 0
}
