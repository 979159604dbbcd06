package mapper

import (
	"encoding/json"
	"time"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/model"
	"acquisition-arena-be/pkg/persona"

	"gorm.io/datatypes"
)

type PersonaMapper struct{}

func NewPersonaMapper() *PersonaMapper {
	return &PersonaMapper{}
}

func (m *PersonaMapper) ToEntity(p *model.Persona) *entity.Persona {
	if p == nil {
		return nil
	}

	traits := persona.Traits{}
	if len(p.Characteristics) > 0 {
		// Unreadable JSON compiles as all-defaulted traits, which is logged downstream.
		_ = json.Unmarshal(p.Characteristics, &traits)
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Persona{
		Id:                     p.Id,
		Name:                   p.Name,
		Description:            p.Description,
		Characteristics:        traits,
		CharacteristicsVersion: p.CharacteristicsVersion,
		ElevenLabsAgentId:      emptyToNil(p.ElevenLabsAgentId),
		ElevenLabsVoiceId:      emptyToNil(p.ElevenLabsVoiceId),
		CachedSystemPrompt:     p.CachedSystemPrompt,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              updatedAt,
	}
}

func (m *PersonaMapper) ToModel(p *entity.Persona) *model.Persona {
	if p == nil {
		return nil
	}

	raw, err := json.Marshal(p.Characteristics)
	if err != nil || p.Characteristics == nil {
		raw = []byte("{}")
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.Persona{
		Id:                     p.Id,
		Name:                   p.Name,
		Description:            p.Description,
		Characteristics:        datatypes.JSON(raw),
		CharacteristicsVersion: p.CharacteristicsVersion,
		ElevenLabsAgentId:      emptyToNil(p.ElevenLabsAgentId),
		ElevenLabsVoiceId:      emptyToNil(p.ElevenLabsVoiceId),
		CachedSystemPrompt:     p.CachedSystemPrompt,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              updatedAt,
	}
}

func (m *PersonaMapper) ToEntities(personas []*model.Persona) []*entity.Persona {
	entities := make([]*entity.Persona, len(personas))
	for i, p := range personas {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
