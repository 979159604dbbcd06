package mapper

import (
	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/model"
)

type TrainingSessionMapper struct{}

func NewTrainingSessionMapper() *TrainingSessionMapper {
	return &TrainingSessionMapper{}
}

func (m *TrainingSessionMapper) ToEntity(s *model.TrainingSession) *entity.TrainingSession {
	if s == nil {
		return nil
	}
	return &entity.TrainingSession{
		Id:                       s.Id,
		UserId:                   s.UserId,
		PersonaId:                s.PersonaId,
		ParcelId:                 s.ParcelId,
		Status:                   entity.SessionStatus(s.Status),
		ElevenLabsSessionToken:   s.ElevenLabsSessionToken,
		ElevenLabsConversationId: s.ElevenLabsConversationId,
		ConversationTranscript:   s.ConversationTranscript,
		FeedbackScore:            s.FeedbackScore,
		FeedbackText:             s.FeedbackText,
		FeedbackGeneratedAt:      s.FeedbackGeneratedAt,
		SessionDurationInSeconds: s.SessionDurationInSeconds,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
	}
}

// ToModel leaves the association fields zero; gorm skips them on insert
// because they carry no primary key.
func (m *TrainingSessionMapper) ToModel(s *entity.TrainingSession) *model.TrainingSession {
	if s == nil {
		return nil
	}
	status := s.Status
	if status == "" {
		status = entity.SessionStatusPending
	}
	return &model.TrainingSession{
		Id:                       s.Id,
		UserId:                   s.UserId,
		PersonaId:                s.PersonaId,
		ParcelId:                 s.ParcelId,
		Status:                   string(status),
		ElevenLabsSessionToken:   s.ElevenLabsSessionToken,
		ElevenLabsConversationId: s.ElevenLabsConversationId,
		ConversationTranscript:   s.ConversationTranscript,
		FeedbackScore:            s.FeedbackScore,
		FeedbackText:             s.FeedbackText,
		FeedbackGeneratedAt:      s.FeedbackGeneratedAt,
		SessionDurationInSeconds: s.SessionDurationInSeconds,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
	}
}

func (m *TrainingSessionMapper) ToEntities(sessions []*model.TrainingSession) []*entity.TrainingSession {
	entities := make([]*entity.TrainingSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
