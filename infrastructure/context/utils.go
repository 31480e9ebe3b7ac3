// Package context holds timeout helpers shared by startup and health code.
package context

import (
	"context"
	"time"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown of background workers.
	DefaultShutdownTimeout = 30 * time.Second
	// DefaultPingTimeout bounds connectivity checks.
	DefaultPingTimeout = 5 * time.Second
)

// WithPingTimeout returns a background context bounded by DefaultPingTimeout.
func WithPingTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultPingTimeout)
}
