package service

import (
	"context"
	"encoding/json"
	"time"

	"acquisition-arena-be/internal/dto"
	"acquisition-arena-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

const consumerModule = "FEEDBACK_JOB"

type IConsumerService interface {
	// Consume runs the feedback worker until ctx is cancelled.
	Consume(ctx context.Context) error
}

// ConsumerOptions tune the job router.
type ConsumerOptions struct {
	MaxRetries    int
	RetryInterval time.Duration
	JobTimeout    time.Duration
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	jobs       IFeedbackJobService
	recovery   IFeedbackRecoveryService
	logger     logger.ILogger
	opts       ConsumerOptions
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	jobs IFeedbackJobService,
	recovery IFeedbackRecoveryService,
	logger logger.ILogger,
	opts ConsumerOptions,
) IConsumerService {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 2 * time.Minute
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		jobs:       jobs,
		recovery:   recovery,
		logger:     logger,
		opts:       opts,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	wmLogger := logger.NewWatermillAdapter(cs.logger, consumerModule)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return err
	}

	router.AddMiddleware(
		middleware.Retry{
			MaxRetries:      cs.opts.MaxRetries,
			InitialInterval: cs.opts.RetryInterval,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	router.AddNoPublisherHandler(
		"feedback_job",
		cs.topicName,
		cs.subscriber,
		cs.processMessage,
	)

	if cs.recovery != nil {
		go cs.requeueWhenRunning(ctx, router)
	}

	return router.Run(ctx)
}

// requeueWhenRunning waits for the handler to subscribe so requeued jobs
// are not published into a topic nobody listens on yet.
func (cs *consumerService) requeueWhenRunning(ctx context.Context, router *message.Router) {
	select {
	case <-router.Running():
	case <-ctx.Done():
		return
	}
	if _, err := cs.recovery.Requeue(ctx); err != nil {
		cs.logger.Error(consumerModule, "Failed to requeue pending feedback jobs", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (cs *consumerService) processMessage(msg *message.Message) error {
	var payload dto.PublishFeedbackJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		// Ack invalid messages to prevent infinite retry
		cs.logger.Error(consumerModule, "Failed to unmarshal job message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return nil
	}
	if payload.SessionId == uuid.Nil {
		cs.logger.Error(consumerModule, "Job message without session id", map[string]interface{}{"message_id": msg.UUID})
		return nil
	}

	ctx, cancel := context.WithTimeout(msg.Context(), cs.opts.JobTimeout)
	defer cancel()

	return cs.jobs.Run(ctx, payload.SessionId)
}
