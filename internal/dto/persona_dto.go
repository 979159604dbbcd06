package dto

import (
	"time"

	"github.com/google/uuid"
)

type PersonaTraitResponse struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

type PersonaResponse struct {
	Id              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Characteristics []PersonaTraitResponse `json:"characteristics"`
	HasAgent        bool                   `json:"has_agent"`
	CreatedAt       time.Time              `json:"created_at"`
}

type PersonaAgentResponse struct {
	PersonaId uuid.UUID `json:"persona_id"`
	AgentId   string    `json:"agent_id"`
	Recreated bool      `json:"recreated"`
}
