package service

import (
	"context"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"
)

// IFeedbackRecoveryService re-enqueues feedback jobs that the in-process
// queue lost, typically across a restart.
type IFeedbackRecoveryService interface {
	// Requeue publishes a job for every session still generating feedback
	// and returns how many were published.
	Requeue(ctx context.Context) (int, error)
}

type feedbackRecoveryService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewFeedbackRecoveryService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	logger logger.ILogger,
) IFeedbackRecoveryService {
	return &feedbackRecoveryService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
	}
}

// Requeue may duplicate a job that is still queued. That is harmless since
// a job for a session that already reached a terminal state is a no-op.
func (s *feedbackRecoveryService) Requeue(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	stuck, err := uow.TrainingSessionRepository().FindAll(ctx,
		specification.WithStatus(entity.SessionStatusGeneratingFeedback),
	)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, session := range stuck {
		if err := s.publisher.PublishFeedbackJob(ctx, session.Id); err != nil {
			s.logger.Error(consumerModule, "Failed to requeue feedback job", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
			continue
		}
		published++
	}

	if len(stuck) > 0 {
		s.logger.Info(consumerModule, "Requeued pending feedback jobs", map[string]interface{}{
			"found":     len(stuck),
			"published": published,
		})
	}
	return published, nil
}
