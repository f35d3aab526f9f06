// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown unifies orderly teardown of components.
type GracefulShutdown interface {
	// Shutdown stops intake, drains queued work and releases resources.
	Shutdown() error
}
