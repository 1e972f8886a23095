package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamForwarder appends every dispatched event to a Redis stream so other
// processes can consume ticket activity.
type StreamForwarder struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamForwarder builds a forwarder for the given stream.
func NewStreamForwarder(client *redis.Client, stream string, logger *zap.Logger) *StreamForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamForwarder{client: client, stream: stream, logger: logger}
}

// Register subscribes the forwarder to all ticket events.
func (f *StreamForwarder) Register(dispatcher Dispatcher) {
	if f == nil || dispatcher == nil {
		return
	}
	for _, eventType := range AllEventTypes {
		dispatcher.Subscribe(eventType, f.Forward)
	}
}

// Forward writes one event to the stream.
func (f *StreamForwarder) Forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	if err := f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: f.stream,
		Values: map[string]any{
			"event_id":   event.ID,
			"event_type": string(event.Type),
			"ticket_id":  event.TicketID,
			"actor":      string(event.Actor),
			"timestamp":  event.Timestamp.UnixMilli(),
			"payload":    string(payload),
		},
	}).Err(); err != nil {
		return fmt.Errorf("forward event: %w", err)
	}

	f.logger.Debug("forwarded ticket event",
		zap.String("stream", f.stream),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID))
	return nil
}
