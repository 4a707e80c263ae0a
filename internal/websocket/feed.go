package websocket

import (
	"context"

	"noteguard-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Feed subscribes to the in-process lifecycle topic and broadcasts every
// decodable event to the hub until ctx is cancelled.
func Feed(ctx context.Context, subscriber message.Subscriber, topic string, hub *Hub) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			msg.Ack()
			if _, err := events.Unmarshal(msg.Payload); err != nil {
				hub.logger.Warn("Hub", "Skipping undecodable event", map[string]interface{}{
					"message_id": msg.UUID,
					"error":      err.Error(),
				})
				continue
			}
			if !hub.Broadcast(msg.Payload) {
				return
			}
		}
	}()
	return nil
}
