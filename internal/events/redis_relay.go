package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is the subset of a pub/sub client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NewRedisRelay returns a handler that forwards events as JSON to channel.
func NewRedisRelay(publisher Publisher, channel string) EventHandler {
	return func(ctx context.Context, event Event) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", event.ID, err)
		}
		return publisher.Publish(ctx, channel, payload)
	}
}
