package service

import (
	"context"
	"time"

	"noteguard-be/internal/pkg/logger"
	"noteguard-be/pkg/events"
	"noteguard-be/pkg/metrics"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
)

// EventSink is the downstream the relay forwards to (NATS JetStream in
// production).
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService relays lifecycle events from the in-process bus to the
// sink. Events arriving while the breaker is open are dropped and counted.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	sink       EventSink
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Collector
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	sink EventSink,
	collector *metrics.Collector,
	log logger.ILogger,
) IConsumerService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nats-relay",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("ConsumerService", "Circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		sink:       sink,
		breaker:    breaker,
		metrics:    collector,
		logger:     log,
	}
}

// Consume subscribes and processes messages in a goroutine until ctx is
// cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Relaying is best effort; every message is acked.
	defer msg.Ack()

	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.metrics.EventsRelayed.WithLabelValues("invalid").Inc()
		cs.logger.Error("ConsumerService", "Dropping undecodable event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = cs.breaker.Execute(func() (interface{}, error) {
		return nil, cs.sink.Publish(sendCtx, event)
	})
	switch {
	case err == nil:
		cs.metrics.EventsRelayed.WithLabelValues("sent").Inc()
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		cs.metrics.EventsRelayed.WithLabelValues("dropped").Inc()
	default:
		cs.metrics.EventsRelayed.WithLabelValues("failed").Inc()
		cs.logger.Warn("ConsumerService", "Failed to relay event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
