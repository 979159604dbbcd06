package contract

import (
	"context"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PersonaRepository interface {
	Create(ctx context.Context, persona *entity.Persona) error
	Update(ctx context.Context, persona *entity.Persona) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Persona, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Persona, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Agent provisioning
	ClaimAgentId(ctx context.Context, id uuid.UUID, agentId string) (stored string, won bool, err error)
	SetAgentId(ctx context.Context, id uuid.UUID, agentId string) error
	UpdateCachedPrompt(ctx context.Context, id uuid.UUID, prompt string) error
}
