package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodedError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CodedError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CodeDeviceNotConnected, "no device agent connected"),
			expected: "device.not_connected: no device agent connected",
		},
		{
			name:     "error with cause",
			err:      Wrap(CodeDirectoryUnavailable, "query failed", errors.New("database is locked")),
			expected: "directory.unavailable: query failed (database is locked)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCodedError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	err := Wrap(CodeInternal, "wrapped", cause)

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the original cause")
	}

	// Test without cause
	err2 := New(CodeDeviceTimeout, "timed out")
	if err2.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "CodedError",
			err:      NotConnected(),
			expected: CodeDeviceNotConnected,
		},
		{
			name:     "wrapped CodedError",
			err:      Wrap(CodeDeviceWriteFailed, "write failed", errors.New("broken pipe")),
			expected: CodeDeviceWriteFailed,
		},
		{
			name:     "CodedError behind fmt.Errorf",
			err:      fmt.Errorf("send command: %w", DeviceLost()),
			expected: CodeDeviceLost,
		},
		{
			name:     "plain error",
			err:      errors.New("some error"),
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetMessage(t *testing.T) {
	if got := GetMessage(nil); got != "" {
		t.Errorf("GetMessage(nil) = %q, want empty", got)
	}
	if got := GetMessage(DeviceTimeout()); got != "device did not respond in time" {
		t.Errorf("GetMessage() = %q", got)
	}
	if got := GetMessage(errors.New("plain")); got != "plain" {
		t.Errorf("GetMessage() = %q, want %q", got, "plain")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("request status: %w", DeviceLost())
	if !IsCode(err, CodeDeviceLost) {
		t.Error("IsCode() should match through wrapping")
	}
	if IsCode(err, CodeDeviceTimeout) {
		t.Error("IsCode() should not match a different code")
	}
}
