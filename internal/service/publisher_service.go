package service

import (
	"context"
	"encoding/json"

	"acquisition-arena-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishFeedbackJob(ctx context.Context, sessionId uuid.UUID) error
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

func (ps *publisherService) PublishFeedbackJob(ctx context.Context, sessionId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishFeedbackJobMessage{SessionId: sessionId})
	if err != nil {
		return err
	}

	// The job outlives the request, so the request context is not attached.
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("session_id", sessionId.String())

	return ps.publisher.Publish(ps.topicName, msg)
}
