package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Persona struct {
	Id                     uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                   string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description            string         `gorm:"type:text;not null"`
	Characteristics        datatypes.JSON `gorm:"type:jsonb;not null"`
	CharacteristicsVersion int            `gorm:"not null;default:1"`
	// Unique so a lost provisioning race surfaces as a constraint violation.
	ElevenLabsAgentId  *string   `gorm:"column:elevenlabs_agent_id;type:varchar(255);uniqueIndex:idx_personas_elevenlabs_agent_id"`
	ElevenLabsVoiceId  *string   `gorm:"column:elevenlabs_voice_id;type:varchar(255)"`
	CachedSystemPrompt *string   `gorm:"type:text"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (Persona) TableName() string {
	return "personas"
}
