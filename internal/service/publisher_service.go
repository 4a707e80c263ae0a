package service

import (
	"context"
	"fmt"

	"noteguard-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const LifecycleTopic = "noteguard.lifecycle"

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.EventType())

	if err := ps.publisher.Publish(ps.topicName, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", event.EventType(), err)
	}
	return nil
}

type nopPublisher struct{}

// NewNopPublisher drops every event.
func NewNopPublisher() IPublisherService {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, events.Event) error {
	return nil
}
