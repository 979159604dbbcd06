package service

import (
	"context"
	"time"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	pkgEvents "acquisition-arena-be/pkg/events"

	"github.com/google/uuid"
)

// IEventService emits domain events. Publishing is best effort: failures are
// logged and never reach the caller.
type IEventService interface {
	SessionCreated(ctx context.Context, session *entity.TrainingSession)
	ConversationStarted(ctx context.Context, session *entity.TrainingSession, agentId string)
	FeedbackGenerationStarted(ctx context.Context, sessionId uuid.UUID)
	FeedbackGenerated(ctx context.Context, sessionId uuid.UUID, score int, grade string, degraded bool)
	SessionFailed(ctx context.Context, sessionId uuid.UUID, reason string)
	PersonaAgentProvisioned(ctx context.Context, personaId uuid.UUID, agentId string, recreated bool)
}

type eventService struct {
	publisher pkgEvents.Publisher
	logger    logger.ILogger
}

// NewEventService accepts a nil publisher, in which case events are dropped.
func NewEventService(publisher pkgEvents.Publisher, logger logger.ILogger) IEventService {
	return &eventService{
		publisher: publisher,
		logger:    logger,
	}
}

func (s *eventService) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	evt := pkgEvents.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}

	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *eventService) SessionCreated(ctx context.Context, session *entity.TrainingSession) {
	s.emit(ctx, pkgEvents.SessionCreated, map[string]interface{}{
		"session_id":  session.Id.String(),
		"user_id":     session.UserId.String(),
		"persona_id":  session.PersonaId.String(),
		"parcel_id":   session.ParcelId.String(),
		"entity_type": "training_session",
		"entity_id":   session.Id.String(),
	})
}

func (s *eventService) ConversationStarted(ctx context.Context, session *entity.TrainingSession, agentId string) {
	s.emit(ctx, pkgEvents.ConversationStarted, map[string]interface{}{
		"session_id":  session.Id.String(),
		"user_id":     session.UserId.String(),
		"persona_id":  session.PersonaId.String(),
		"agent_id":    agentId,
		"entity_type": "training_session",
		"entity_id":   session.Id.String(),
	})
}

func (s *eventService) FeedbackGenerationStarted(ctx context.Context, sessionId uuid.UUID) {
	s.emit(ctx, pkgEvents.FeedbackGenerationStarted, map[string]interface{}{
		"session_id":  sessionId.String(),
		"entity_type": "training_session",
		"entity_id":   sessionId.String(),
	})
}

func (s *eventService) FeedbackGenerated(ctx context.Context, sessionId uuid.UUID, score int, grade string, degraded bool) {
	s.emit(ctx, pkgEvents.FeedbackGenerated, map[string]interface{}{
		"session_id":  sessionId.String(),
		"score":       score,
		"grade":       grade,
		"degraded":    degraded,
		"entity_type": "training_session",
		"entity_id":   sessionId.String(),
	})
}

func (s *eventService) SessionFailed(ctx context.Context, sessionId uuid.UUID, reason string) {
	s.emit(ctx, pkgEvents.SessionFailed, map[string]interface{}{
		"session_id":  sessionId.String(),
		"reason":      reason,
		"entity_type": "training_session",
		"entity_id":   sessionId.String(),
	})
}

func (s *eventService) PersonaAgentProvisioned(ctx context.Context, personaId uuid.UUID, agentId string, recreated bool) {
	s.emit(ctx, pkgEvents.PersonaAgentProvisioned, map[string]interface{}{
		"persona_id":  personaId.String(),
		"agent_id":    agentId,
		"recreated":   recreated,
		"entity_type": "persona",
		"entity_id":   personaId.String(),
	})
}
