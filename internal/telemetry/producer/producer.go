// Package producer publishes telemetry events to a message broker.
package producer

import (
	"context"

	"account-service/internal/telemetry/domain"
)

// Producer emits telemetry events. Callers use it best-effort.
type Producer interface {
	Emit(ctx context.Context, event *domain.Event) error
	// Close flushes and releases the underlying writer. Safe to call twice.
	Close() error
}
