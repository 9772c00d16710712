package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"account-service/internal/telemetry/domain"
)

const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long the server waits after HTTP shutdown before
// closing exporters, so in-flight async emits can finish.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine on a fresh context bounded by emitTimeout,
// so request cancellation does not abort the write. A nil emitter or event is a no-op.
func EmitAsync(emitter EventEmitter, event *domain.Event, log *zap.Logger) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil && log != nil {
			log.Warn("telemetry emit failed", zap.String("event_type", event.EventType), zap.Error(err))
		}
	}()
}
