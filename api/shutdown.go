// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "context"

// GracefulShutdown is implemented by components that own executors.
type GracefulShutdown interface {
	// Shutdown stops all owned executors, waiting until they terminate or ctx
	// ends.
	Shutdown(ctx context.Context) error
}
