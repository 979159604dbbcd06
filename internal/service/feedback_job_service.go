package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"
	"acquisition-arena-be/pkg/feedback"
	"acquisition-arena-be/pkg/transcript"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errMissingConversation = errors.New("session has no conversation id")

// IFeedbackJobService turns a finished conversation into graded feedback.
type IFeedbackJobService interface {
	// Run processes one session. It is safe to call more than once for the
	// same session; a session that already reached a terminal state is left
	// untouched. A returned error means the session was marked failed.
	Run(ctx context.Context, sessionId uuid.UUID) error
}

type feedbackJobService struct {
	uowFactory unitofwork.RepositoryFactory
	broker     AgentBroker
	engine     FeedbackGenerator
	events     IEventService
	logger     logger.ILogger
	now        func() time.Time
}

func NewFeedbackJobService(
	uowFactory unitofwork.RepositoryFactory,
	broker AgentBroker,
	engine FeedbackGenerator,
	events IEventService,
	logger logger.ILogger,
) IFeedbackJobService {
	return &feedbackJobService{
		uowFactory: uowFactory,
		broker:     broker,
		engine:     engine,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *feedbackJobService) Run(ctx context.Context, sessionId uuid.UUID) (err error) {
	ctx, span := otel.Tracer("acquisition-arena/feedback-job").Start(ctx, "feedback_job.run",
		trace.WithAttributes(attribute.String("session.id", sessionId.String())))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("feedback job panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.fail(ctx, sessionId, err)
		}
	}()

	return s.run(ctx, sessionId)
}

func (s *feedbackJobService) run(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions := uow.TrainingSessionRepository()

	session, err := sessions.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		s.logger.Warn(consumerModule, "Session vanished before feedback", map[string]interface{}{"session_id": sessionId.String()})
		return nil
	}
	if session.Status.IsTerminal() {
		// Duplicate delivery.
		s.logger.Info(consumerModule, "Session already finished, skipping", map[string]interface{}{
			"session_id": sessionId.String(),
			"status":     string(session.Status),
		})
		return nil
	}
	if session.Status != entity.SessionStatusGeneratingFeedback {
		s.logger.Error(consumerModule, "Session is not awaiting feedback", map[string]interface{}{
			"session_id": sessionId.String(),
			"status":     string(session.Status),
		})
		return nil
	}

	conversationId := session.ConversationId()
	if conversationId == "" {
		return errMissingConversation
	}

	fetched := s.broker.FetchTranscript(ctx, conversationId)
	if !fetched.IsOk() {
		return fmt.Errorf("fetch transcript: %w", fetched.Error())
	}

	text := transcript.NormalizeTurns(fetched.Value())
	if err := sessions.UpdateFields(ctx, sessionId, map[string]interface{}{
		"conversation_transcript": text,
	}); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}
	s.logger.Info(consumerModule, "Transcript stored", map[string]interface{}{
		"session_id": sessionId.String(),
		"turns":      transcript.CountTurns(text),
	})

	persona, err := uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: session.PersonaId})
	if err != nil {
		return fmt.Errorf("load persona: %w", err)
	}
	if persona == nil {
		return entity.ErrPersonaNotFound
	}
	parcel, err := uow.ParcelRepository().FindOne(ctx, specification.ByID{ID: session.ParcelId})
	if err != nil {
		return fmt.Errorf("load parcel: %w", err)
	}
	if parcel == nil {
		return entity.ErrParcelNotFound
	}

	generated := s.engine.Generate(ctx, feedback.PromptInput{
		PersonaName:    persona.Name,
		PersonaTraits:  persona.Characteristics,
		ParcelFeatures: parcel.PropertyFeatures,
		Transcript:     text,
	})
	if !generated.IsOk() {
		return fmt.Errorf("generate feedback: %w", generated.Error())
	}
	outcome := generated.Value()

	changed, err := sessions.TransitionStatus(ctx, sessionId,
		entity.SessionStatusGeneratingFeedback, entity.SessionStatusCompleted,
		map[string]interface{}{
			"feedback_score":        outcome.Result.Score,
			"feedback_text":         outcome.Markdown,
			"feedback_generated_at": s.now(),
		})
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if !changed {
		s.logger.Info(consumerModule, "Session finished concurrently, feedback discarded", map[string]interface{}{"session_id": sessionId.String()})
		return nil
	}

	s.logger.Info(consumerModule, "Feedback generated", map[string]interface{}{
		"session_id": sessionId.String(),
		"score":      outcome.Result.Score,
		"grade":      outcome.Grade,
		"degraded":   outcome.Degraded,
	})
	s.events.FeedbackGenerated(ctx, sessionId, outcome.Result.Score, outcome.Grade, outcome.Degraded)
	return nil
}

// fail forces the session to failed. Score and text stay unset.
func (s *feedbackJobService) fail(ctx context.Context, sessionId uuid.UUID, cause error) {
	// The job context may be the one that expired.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	s.logger.Error(consumerModule, "Feedback job failed", map[string]interface{}{
		"session_id": sessionId.String(),
		"error":      cause.Error(),
	})

	uow := s.uowFactory.NewUnitOfWork(ctx)
	changed, err := uow.TrainingSessionRepository().MarkFailed(ctx, sessionId)
	if err != nil {
		s.logger.Error(consumerModule, "Failed to mark session failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return
	}
	if changed {
		s.events.SessionFailed(ctx, sessionId, cause.Error())
	}
}
