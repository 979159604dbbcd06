package entity

import (
	"time"

	"acquisition-arena-be/pkg/persona"

	"github.com/google/uuid"
)

type Persona struct {
	Id                     uuid.UUID
	Name                   string
	Description            string
	Characteristics        persona.Traits
	CharacteristicsVersion int
	ElevenLabsAgentId      *string
	ElevenLabsVoiceId      *string
	CachedSystemPrompt     *string
	CreatedAt              time.Time
	UpdatedAt              *time.Time
}

func (p *Persona) HasAgent() bool {
	return p.ElevenLabsAgentId != nil && *p.ElevenLabsAgentId != ""
}

func (p *Persona) AgentId() string {
	if p.ElevenLabsAgentId == nil {
		return ""
	}
	return *p.ElevenLabsAgentId
}

func (p *Persona) VoiceId() string {
	if p.ElevenLabsVoiceId == nil {
		return ""
	}
	return *p.ElevenLabsVoiceId
}
