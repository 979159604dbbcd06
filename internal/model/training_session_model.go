package model

import (
	"time"

	"github.com/google/uuid"
)

type TrainingSession struct {
	Id                       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                   uuid.UUID `gorm:"type:uuid;not null;index"`
	PersonaId                uuid.UUID `gorm:"type:uuid;not null;index"`
	ParcelId                 uuid.UUID `gorm:"type:uuid;not null;index"`
	Status                   string    `gorm:"type:varchar(50);not null;default:'pending';index"`
	ElevenLabsSessionToken   *string   `gorm:"column:elevenlabs_session_token;type:text"`
	ElevenLabsConversationId *string   `gorm:"column:elevenlabs_conversation_id;type:varchar(255)"`
	ConversationTranscript   *string   `gorm:"type:text"`
	FeedbackScore            *int
	FeedbackText             *string `gorm:"type:text"`
	FeedbackGeneratedAt      *time.Time
	SessionDurationInSeconds *int
	CreatedAt                time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime"`

	User    User    `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Persona Persona `gorm:"foreignKey:PersonaId"`
	Parcel  Parcel  `gorm:"foreignKey:ParcelId"`
}

func (TrainingSession) TableName() string {
	return "training_sessions"
}
