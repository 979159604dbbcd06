package entity

import (
	"time"

	"acquisition-arena-be/pkg/grade"

	"github.com/google/uuid"
)

type TrainingSession struct {
	Id                       uuid.UUID
	UserId                   uuid.UUID
	PersonaId                uuid.UUID
	ParcelId                 uuid.UUID
	Status                   SessionStatus
	ElevenLabsSessionToken   *string
	ElevenLabsConversationId *string
	ConversationTranscript   *string
	FeedbackScore            *int
	FeedbackText             *string
	FeedbackGeneratedAt      *time.Time
	SessionDurationInSeconds *int
	CreatedAt                time.Time
	UpdatedAt                time.Time

	// Loaded on demand for responses and the feedback job.
	Persona *Persona
	Parcel  *Parcel
}

// Grade is derived from the score on every read and never stored.
func (s *TrainingSession) Grade() *string {
	return grade.ForScore(s.FeedbackScore)
}

func (s *TrainingSession) ConversationId() string {
	if s.ElevenLabsConversationId == nil {
		return ""
	}
	return *s.ElevenLabsConversationId
}

// SessionStats summarizes a user's history.
type SessionStats struct {
	TotalSessions     int64
	CompletedSessions int64
	BestScore         *int
	BestGrade         *string
	SessionsRemaining int
}
