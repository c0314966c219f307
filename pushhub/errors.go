package pushhub

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the hub lacks input the caller must supply.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnsupportedPlatform means the device platform has no push back end.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrTimeout means GCM acknowledged the registration but never sent a token.
	ErrTimeout = errors.New("registration timed out")
	// ErrConcurrentRegistration means an earlier registration has not settled yet.
	ErrConcurrentRegistration = errors.New("registration already in progress")
	// ErrUnrecognizedEvent is reported for GCM event types the hub does not know.
	ErrUnrecognizedEvent = errors.New("unrecognized event")
)

// NativeError carries an error payload reported by the native layer, unchanged.
type NativeError struct {
	Op      string
	Payload any
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("native %s failed: %v", e.Op, e.Payload)
}

// Unwrap exposes the payload when the native layer reported a Go error.
func (e *NativeError) Unwrap() error {
	if err, ok := e.Payload.(error); ok {
		return err
	}
	return nil
}
