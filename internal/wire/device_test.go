package wire

import (
	"reflect"
	"testing"
)

func TestDecodeDeviceFrame_Status(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "multi pin report",
			raw:  "5:1,6:0",
			want: map[string]string{"5": "1", "6": "0"},
		},
		{
			name: "single pin report",
			raw:  "7:1",
			want: map[string]string{"7": "1"},
		},
		{
			name: "whitespace between pairs",
			raw:  "5:0, 6:1, 8:0",
			want: map[string]string{"5": "0", "6": "1", "8": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := DecodeDeviceFrame(tt.raw)
			if frame.Kind != DeviceFrameStatus {
				t.Fatalf("kind = %v, want DeviceFrameStatus", frame.Kind)
			}
			if !reflect.DeepEqual(frame.States, tt.want) {
				t.Errorf("states = %v, want %v", frame.States, tt.want)
			}
		})
	}
}

func TestDecodeDeviceFrame_Ack(t *testing.T) {
	frame := DecodeDeviceFrame("ack:5,1")
	if frame.Kind != DeviceFrameAck {
		t.Fatalf("kind = %v, want DeviceFrameAck", frame.Kind)
	}
	if frame.Detail != "5,1" {
		t.Errorf("detail = %q, want %q", frame.Detail, "5,1")
	}

	// Bare ack with no detail is still an ack.
	frame = DecodeDeviceFrame("ack:")
	if frame.Kind != DeviceFrameAck || frame.Detail != "" {
		t.Errorf("bare ack decoded as %+v", frame)
	}
}

func TestDecodeDeviceFrame_Info(t *testing.T) {
	// Anything that is neither an ack nor a status frame is informational,
	// never an error.
	for _, raw := range []string{"booted", "wifi reconnected", "5:", ":1", "a:b,broken"} {
		frame := DecodeDeviceFrame(raw)
		if frame.Kind != DeviceFrameInfo {
			t.Errorf("DecodeDeviceFrame(%q).Kind = %v, want DeviceFrameInfo", raw, frame.Kind)
		}
	}
}

func TestEncodeCommand(t *testing.T) {
	if got := EncodeCommand(5, 1); got != "5,1" {
		t.Errorf("EncodeCommand(5,1) = %q", got)
	}
	if got := EncodeCommand(13, 0); got != "13,0" {
		t.Errorf("EncodeCommand(13,0) = %q", got)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	// A status frame produced by the device simulator format must decode
	// back to the same mapping.
	frame := DecodeDeviceFrame("5:1,6:0,7:0,8:1")
	want := map[string]string{"5": "1", "6": "0", "7": "0", "8": "1"}
	if !reflect.DeepEqual(frame.States, want) {
		t.Errorf("states = %v, want %v", frame.States, want)
	}
}
