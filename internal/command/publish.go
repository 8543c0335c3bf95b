// Package command holds the write-side services.
package command

import (
	"context"
	"log/slog"
)

// EventPublisher is satisfied by events.Publisher and events.NopPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// publish runs after commit; a lost event never fails the request.
func publish(ctx context.Context, logger *slog.Logger, p EventPublisher, stream, eventType string, data any) {
	if err := p.Publish(ctx, stream, eventType, data); err != nil {
		logger.Warn("failed to publish event", "stream", stream, "type", eventType, "error", err)
	}
}
