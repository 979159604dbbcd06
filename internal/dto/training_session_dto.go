package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTrainingSessionRequest struct {
	PersonaId uuid.UUID `json:"persona_id" validate:"required"`
	ParcelId  uuid.UUID `json:"parcel_id" validate:"required"`
}

type EndConversationRequest struct {
	// Reported by the client once the voice service assigns it; optional.
	ElevenLabsConversationId string `json:"elevenlabs_conversation_id" validate:"omitempty,max=255"`
	SessionDuration          *int   `json:"session_duration" validate:"omitempty,min=0,max=86400"`
}

type StartConversationResponse struct {
	Token            string           `json:"token"`
	AgentId          string           `json:"agent_id"`
	DynamicVariables DynamicVariables `json:"dynamic_variables"`
}

type DynamicVariables struct {
	LandParcelSubDetails string `json:"land_parcel_sub_details"`
}

type TrainingSessionPersona struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type TrainingSessionParcel struct {
	Id           uuid.UUID `json:"id"`
	ParcelNumber string    `json:"parcel_number"`
	Location     string    `json:"location"`
}

type TrainingSessionResponse struct {
	Id                       uuid.UUID               `json:"id"`
	Status                   string                  `json:"status"`
	PersonaId                uuid.UUID               `json:"persona_id"`
	ParcelId                 uuid.UUID               `json:"parcel_id"`
	Persona                  *TrainingSessionPersona `json:"persona,omitempty"`
	Parcel                   *TrainingSessionParcel  `json:"parcel,omitempty"`
	FeedbackScore            *int                    `json:"feedback_score"`
	Grade                    *string                 `json:"grade"`
	FeedbackText             *string                 `json:"feedback_text"`
	FeedbackGeneratedAt      *time.Time              `json:"feedback_generated_at"`
	SessionDurationInSeconds *int                    `json:"session_duration_in_seconds"`
	ConversationTranscript   *string                 `json:"conversation_transcript,omitempty"`
	CreatedAt                time.Time               `json:"created_at"`
	UpdatedAt                time.Time               `json:"updated_at"`
}

type TrainingSessionStatsResponse struct {
	TotalSessions     int64   `json:"total_sessions"`
	CompletedSessions int64   `json:"completed_sessions"`
	BestScore         *int    `json:"best_score"`
	BestGrade         *string `json:"best_grade"`
	SessionsRemaining int     `json:"sessions_remaining"`
}

// PublishFeedbackJobMessage is the queue payload of one feedback job.
type PublishFeedbackJobMessage struct {
	SessionId uuid.UUID `json:"session_id"`
}
