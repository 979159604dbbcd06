package service

import (
	"context"
	"fmt"

	"acquisition-arena-be/internal/dto"
	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/internal/repository/memory"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"
	"acquisition-arena-be/pkg/grade"

	"github.com/google/uuid"
)

const sessionModule = "SESSION"

type ITrainingSessionService interface {
	Create(ctx context.Context, externalUserId string, req *dto.CreateTrainingSessionRequest) (*dto.TrainingSessionResponse, error)
	StartConversation(ctx context.Context, externalUserId string, id uuid.UUID) (*dto.StartConversationResponse, error)
	EndConversation(ctx context.Context, externalUserId string, id uuid.UUID, req *dto.EndConversationRequest) (*dto.TrainingSessionResponse, error)
	Show(ctx context.Context, externalUserId string, id uuid.UUID) (*dto.TrainingSessionResponse, error)
	List(ctx context.Context, externalUserId string) ([]*dto.TrainingSessionResponse, error)
	Stats(ctx context.Context, externalUserId string) (*dto.TrainingSessionStatsResponse, error)
}

type trainingSessionService struct {
	uowFactory       unitofwork.RepositoryFactory
	broker           AgentBroker
	publisherService IPublisherService
	events           IEventService
	briefs           *memory.BriefCache
	logger           logger.ILogger
	initialAllowance int
}

func NewTrainingSessionService(
	uowFactory unitofwork.RepositoryFactory,
	broker AgentBroker,
	publisherService IPublisherService,
	events IEventService,
	briefs *memory.BriefCache,
	logger logger.ILogger,
	initialAllowance int,
) ITrainingSessionService {
	return &trainingSessionService{
		uowFactory:       uowFactory,
		broker:           broker,
		publisherService: publisherService,
		events:           events,
		briefs:           briefs,
		logger:           logger,
		initialAllowance: initialAllowance,
	}
}

func (s *trainingSessionService) user(ctx context.Context, uow unitofwork.UnitOfWork, externalUserId string) (*entity.User, error) {
	if externalUserId == "" {
		return nil, entity.ErrUserNotFound
	}
	return uow.UserRepository().FindOrCreate(ctx, externalUserId, s.initialAllowance)
}

// owned loads a session belonging to the user.
func (s *trainingSessionService) owned(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.TrainingSession, error) {
	session, err := uow.TrainingSessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, entity.ErrSessionNotFound
	}
	return session, nil
}

func (s *trainingSessionService) Create(ctx context.Context, externalUserId string, req *dto.CreateTrainingSessionRequest) (*dto.TrainingSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.user(ctx, uow, externalUserId)
	if err != nil {
		return nil, err
	}

	persona, err := uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: req.PersonaId})
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, entity.ErrPersonaNotFound
	}
	parcel, err := uow.ParcelRepository().FindOne(ctx, specification.ByID{ID: req.ParcelId})
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, entity.ErrParcelNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	ok, err := uow.UserRepository().DecrementSessions(ctx, user.Id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.ErrNoSessionsRemaining
	}

	session := &entity.TrainingSession{
		Id:        uuid.New(),
		UserId:    user.Id,
		PersonaId: persona.Id,
		ParcelId:  parcel.Id,
		Status:    entity.SessionStatusPending,
	}
	if err := uow.TrainingSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	session.Persona = persona
	session.Parcel = parcel

	s.logger.Info(sessionModule, "Training session created", map[string]interface{}{
		"session_id": session.Id.String(),
		"user_id":    user.Id.String(),
		"persona_id": persona.Id.String(),
		"parcel_id":  parcel.Id.String(),
	})
	s.events.SessionCreated(ctx, session)

	return toTrainingSessionResponse(session, false), nil
}

// StartConversation provisions the persona's agent if needed, mints a
// conversation token and moves the session to active.
func (s *trainingSessionService) StartConversation(ctx context.Context, externalUserId string, id uuid.UUID) (*dto.StartConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.user(ctx, uow, externalUserId)
	if err != nil {
		return nil, err
	}
	session, err := s.owned(ctx, uow, user.Id, id)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusPending {
		return nil, fmt.Errorf("%w: session already started", entity.ErrInvalidStateTransition)
	}

	persona, err := uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: session.PersonaId})
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, entity.ErrPersonaNotFound
	}
	parcel, err := uow.ParcelRepository().FindOne(ctx, specification.ByID{ID: session.ParcelId})
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, entity.ErrParcelNotFound
	}

	ensured := s.broker.EnsureAgent(ctx, toBrokerPersona(persona))
	if !ensured.IsOk() {
		s.logger.Error(sessionModule, "Persona agent unavailable", map[string]interface{}{
			"session_id": id.String(),
			"persona_id": persona.Id.String(),
			"error":      ensured.Error().Error(),
		})
		return nil, fmt.Errorf("%w: %v", entity.ErrAgentNotProvisioned, ensured.Error())
	}
	agentId := ensured.Value()

	participant := user.Email
	if participant == "" {
		participant = user.ExternalId
	}
	minted := s.broker.MintSessionToken(ctx, agentId, participant)
	if !minted.IsOk() {
		return nil, minted.Error()
	}
	token := minted.Value()

	changed, err := uow.TrainingSessionRepository().TransitionStatus(ctx, id,
		entity.SessionStatusPending, entity.SessionStatusActive,
		map[string]interface{}{
			"elevenlabs_session_token":   token.Token,
			"elevenlabs_conversation_id": token.ConversationID,
		})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: session already started", entity.ErrInvalidStateTransition)
	}

	s.logger.Info(sessionModule, "Conversation started", map[string]interface{}{
		"session_id": id.String(),
		"agent_id":   agentId,
	})
	s.events.ConversationStarted(ctx, session, agentId)

	return &dto.StartConversationResponse{
		Token:   token.Token,
		AgentId: agentId,
		DynamicVariables: dto.DynamicVariables{
			LandParcelSubDetails: cachedBrief(s.briefs, parcel),
		},
	}, nil
}

// EndConversation closes an active session and queues feedback generation.
// The job is enqueued only after the status change is committed.
func (s *trainingSessionService) EndConversation(ctx context.Context, externalUserId string, id uuid.UUID, req *dto.EndConversationRequest) (*dto.TrainingSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.user(ctx, uow, externalUserId)
	if err != nil {
		return nil, err
	}
	session, err := s.owned(ctx, uow, user.Id, id)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is not active", entity.ErrInvalidStateTransition)
	}

	fields := map[string]interface{}{}
	if req != nil {
		if req.ElevenLabsConversationId != "" {
			fields["elevenlabs_conversation_id"] = req.ElevenLabsConversationId
		}
		if req.SessionDuration != nil {
			fields["session_duration_in_seconds"] = *req.SessionDuration
		}
	}

	changed, err := uow.TrainingSessionRepository().TransitionStatus(ctx, id,
		entity.SessionStatusActive, entity.SessionStatusGeneratingFeedback, fields)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: session is not active", entity.ErrInvalidStateTransition)
	}

	if err := s.publisherService.PublishFeedbackJob(ctx, id); err != nil {
		s.logger.Error(sessionModule, "Failed to enqueue feedback job", map[string]interface{}{
			"session_id": id.String(),
			"error":      err.Error(),
		})
		if _, ferr := uow.TrainingSessionRepository().MarkFailed(ctx, id); ferr != nil {
			s.logger.Error(sessionModule, "Failed to mark session failed", map[string]interface{}{
				"session_id": id.String(),
				"error":      ferr.Error(),
			})
		}
		s.events.SessionFailed(ctx, id, err.Error())
		return nil, err
	}
	s.events.FeedbackGenerationStarted(ctx, id)

	session, err = s.owned(ctx, uow, user.Id, id)
	if err != nil {
		return nil, err
	}
	return toTrainingSessionResponse(session, false), nil
}

func (s *trainingSessionService) Show(ctx context.Context, externalUserId string, id uuid.UUID) (*dto.TrainingSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.user(ctx, uow, externalUserId)
	if err != nil {
		return nil, err
	}
	session, err := s.owned(ctx, uow, user.Id, id)
	if err != nil {
		return nil, err
	}

	if session.Persona, err = uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: session.PersonaId}); err != nil {
		return nil, err
	}
	if session.Parcel, err = uow.ParcelRepository().FindOne(ctx, specification.ByID{ID: session.ParcelId}); err != nil {
		return nil, err
	}

	return toTrainingSessionResponse(session, true), nil
}

// List returns the user's sessions, newest first, without transcripts.
func (s *trainingSessionService) List(ctx context.Context, externalUserId string) ([]*dto.TrainingSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.user(ctx, uow, externalUserId)
	if err != nil {
		return nil, err
	}

	sessions, err := uow.TrainingSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.NewestFirst(),
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.TrainingSessionResponse, 0, len(sessions))
	if len(sessions) == 0 {
		return result, nil
	}

	personaIds := make([]uuid.UUID, 0, len(sessions))
	parcelIds := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		personaIds = append(personaIds, session.PersonaId)
		parcelIds = append(parcelIds, session.ParcelId)
	}

	personas, err := uow.PersonaRepository().FindAll(ctx, specification.ByIDs{IDs: personaIds})
	if err != nil {
		return nil, err
	}
	parcels, err := uow.ParcelRepository().FindAll(ctx, specification.ByIDs{IDs: parcelIds})
	if err != nil {
		return nil, err
	}

	personaMap := make(map[uuid.UUID]*entity.Persona, len(personas))
	for _, p := range personas {
		personaMap[p.Id] = p
	}
	parcelMap := make(map[uuid.UUID]*entity.Parcel, len(parcels))
	for _, p := range parcels {
		parcelMap[p.Id] = p
	}

	for _, session := range sessions {
		session.Persona = personaMap[session.PersonaId]
		session.Parcel = parcelMap[session.ParcelId]
		result = append(result, toTrainingSessionResponse(session, false))
	}
	return result, nil
}

func (s *trainingSessionService) Stats(ctx context.Context, externalUserId string) (*dto.TrainingSessionStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.user(ctx, uow, externalUserId)
	if err != nil {
		return nil, err
	}

	sessions := uow.TrainingSessionRepository()
	owner := specification.UserOwnedBy{UserID: user.Id}

	total, err := sessions.Count(ctx, owner)
	if err != nil {
		return nil, err
	}
	completed, err := sessions.Count(ctx, owner, specification.WithStatus(entity.SessionStatusCompleted))
	if err != nil {
		return nil, err
	}
	best, err := sessions.BestScore(ctx, user.Id)
	if err != nil {
		return nil, err
	}

	stats := entity.SessionStats{
		TotalSessions:     total,
		CompletedSessions: completed,
		BestScore:         best,
		SessionsRemaining: user.SessionsRemaining,
	}
	stats.BestGrade = grade.ForScore(best)

	return &dto.TrainingSessionStatsResponse{
		TotalSessions:     stats.TotalSessions,
		CompletedSessions: stats.CompletedSessions,
		BestScore:         stats.BestScore,
		BestGrade:         stats.BestGrade,
		SessionsRemaining: stats.SessionsRemaining,
	}, nil
}

func toTrainingSessionResponse(session *entity.TrainingSession, withTranscript bool) *dto.TrainingSessionResponse {
	res := &dto.TrainingSessionResponse{
		Id:                       session.Id,
		Status:                   string(session.Status),
		PersonaId:                session.PersonaId,
		ParcelId:                 session.ParcelId,
		FeedbackScore:            session.FeedbackScore,
		Grade:                    session.Grade(),
		FeedbackText:             session.FeedbackText,
		FeedbackGeneratedAt:      session.FeedbackGeneratedAt,
		SessionDurationInSeconds: session.SessionDurationInSeconds,
		CreatedAt:                session.CreatedAt,
		UpdatedAt:                session.UpdatedAt,
	}
	if session.Persona != nil {
		res.Persona = &dto.TrainingSessionPersona{Id: session.Persona.Id, Name: session.Persona.Name}
	}
	if session.Parcel != nil {
		res.Parcel = &dto.TrainingSessionParcel{
			Id:           session.Parcel.Id,
			ParcelNumber: session.Parcel.ParcelNumber,
			Location:     session.Parcel.Location(),
		}
	}
	if withTranscript {
		res.ConversationTranscript = session.ConversationTranscript
	}
	return res
}
