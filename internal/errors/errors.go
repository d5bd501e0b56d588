// Package errors provides standardized error codes for the gateway.
//
// Error codes follow the format {domain}.{error} where:
//   - domain: The subsystem that generated the error (protocol, auth, directory, device)
//   - error: The specific error type within that domain
//
// These codes are stable and can be used by client applications for
// programmatic error handling. Human-readable messages are provided
// alongside codes.
package errors

import (
	"errors"
	"fmt"
)

// Error codes by domain.
// These are stable identifiers that clients can rely on for error handling.
const (
	// Protocol domain - frame decoding and routing errors
	CodeProtocolMalformed     = "protocol.malformed"      // Frame could not be decoded
	CodeProtocolUnknownAction = "protocol.unknown_action" // Action value not recognized
	CodeProtocolRateLimited   = "protocol.rate_limited"   // Client exceeded frame rate limit

	// Auth domain - credential verification and session state
	CodeAuthRequired           = "auth.required"            // Operation requires a logged-in session
	CodeAuthNotFound           = "auth.not_found"           // Username does not exist
	CodeAuthNotAffirmed        = "auth.not_affirmed"        // Password did not match
	CodeAuthMissingCredentials = "auth.missing_credentials" // Username or password missing

	// Directory domain - credential/device store errors
	CodeDirectoryUnavailable = "directory.unavailable" // Store unreachable or query failed
	CodeDirectoryNotFound    = "directory.not_found"   // User or device record not found
	CodeDirectoryExists      = "directory.exists"      // Record already exists

	// Device domain - device link errors
	CodeDeviceNotConnected = "device.not_connected" // No device agent attached
	CodeDeviceTimeout      = "device.timeout"       // Device did not answer in time
	CodeDeviceLost         = "device.lost"          // Link detached while a request was in flight
	CodeDeviceWriteFailed  = "device.write_failed"  // Write to the device socket failed

	// General domain - catch-all errors
	CodeUnknown  = "error.unknown"  // Unknown error
	CodeInternal = "error.internal" // Internal gateway error
)

// CodedError wraps an error with a stable error code.
// This allows errors to carry both a code for programmatic handling
// and a message for human consumption.
type CodedError struct {
	Code    string // Stable error code (e.g., "device.timeout")
	Message string // Human-readable error message
	Cause   error  // Underlying error (may be nil)
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// New creates a new CodedError with the given code and message.
func New(code, message string) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new CodedError wrapping an existing error.
func Wrap(code, message string, cause error) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// GetCode extracts the error code from an error.
// If the error is a CodedError, returns its code.
// Falls back to CodeUnknown for unrecognized errors.
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}

	return CodeUnknown
}

// GetMessage extracts a human-readable message from an error.
// If the error is a CodedError, returns its message.
// Otherwise, returns the error's Error() string.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}

	return err.Error()
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}

// Common error constructors for frequently used error types.

// NotConnected creates a "device.not_connected" error.
func NotConnected() *CodedError {
	return New(CodeDeviceNotConnected, "no device agent connected")
}

// DeviceLost creates a "device.lost" error.
func DeviceLost() *CodedError {
	return New(CodeDeviceLost, "device link lost while request was in flight")
}

// DeviceTimeout creates a "device.timeout" error.
func DeviceTimeout() *CodedError {
	return New(CodeDeviceTimeout, "device did not respond in time")
}
