// ABOUTME: Error types for the connection layer
// ABOUTME: Normalizes dial timeouts, refusals and I/O failures into one connection error
package api

import "fmt"

// ConnError is the single error shape raised from the first Connect call.
// Timeouts, refusals and other socket failures all normalize to it; later
// failures are recovered internally via reconnect and never surface.
type ConnError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connection to %s:%d failed: %v", e.Host, e.Port, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}
