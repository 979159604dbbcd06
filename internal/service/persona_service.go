package service

import (
	"context"
	"fmt"

	"acquisition-arena-be/internal/dto"
	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/voiceagent"

	"github.com/google/uuid"
)

const personaModule = "PERSONA"

type IPersonaService interface {
	List(ctx context.Context) ([]*dto.PersonaResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PersonaResponse, error)
	ProvisionAgent(ctx context.Context, id uuid.UUID) (*dto.PersonaAgentResponse, error)
	UpdateAgent(ctx context.Context, id uuid.UUID) (*dto.PersonaAgentResponse, error)
}

type personaService struct {
	uowFactory unitofwork.RepositoryFactory
	broker     AgentBroker
	events     IEventService
	logger     logger.ILogger
}

func NewPersonaService(
	uowFactory unitofwork.RepositoryFactory,
	broker AgentBroker,
	events IEventService,
	logger logger.ILogger,
) IPersonaService {
	return &personaService{
		uowFactory: uowFactory,
		broker:     broker,
		events:     events,
		logger:     logger,
	}
}

func (s *personaService) List(ctx context.Context) ([]*dto.PersonaResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	personas, err := uow.PersonaRepository().FindAll(ctx, specification.OrderBy{Field: "name"})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.PersonaResponse, 0, len(personas))
	for _, p := range personas {
		res = append(res, toPersonaResponse(p))
	}
	return res, nil
}

func (s *personaService) Get(ctx context.Context, id uuid.UUID) (*dto.PersonaResponse, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPersonaResponse(p), nil
}

// ProvisionAgent makes sure the persona has a voice agent.
func (s *personaService) ProvisionAgent(ctx context.Context, id uuid.UUID) (*dto.PersonaAgentResponse, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	hadAgent := p.HasAgent()

	bp := toBrokerPersona(p)
	ensured := s.broker.EnsureAgent(ctx, bp)
	if !ensured.IsOk() {
		return nil, ensured.Error()
	}
	agentId := ensured.Value()

	if !hadAgent {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		if err := uow.PersonaRepository().UpdateCachedPrompt(ctx, p.Id, s.broker.Compile(bp).SystemPrompt); err != nil {
			s.logger.Warn(personaModule, "Failed to cache system prompt", map[string]interface{}{
				"persona_id": p.Id.String(),
				"error":      err.Error(),
			})
		}
		s.events.PersonaAgentProvisioned(ctx, p.Id, agentId, false)
	}

	return &dto.PersonaAgentResponse{PersonaId: p.Id, AgentId: agentId}, nil
}

// UpdateAgent pushes the persona's current characteristics to its agent.
// It is refused while a conversation with that agent is in progress.
func (s *personaService) UpdateAgent(ctx context.Context, id uuid.UUID) (*dto.PersonaAgentResponse, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasAgent() {
		return nil, entity.ErrAgentNotProvisioned
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notBusy := func(ctx context.Context) error {
		active, err := uow.TrainingSessionRepository().Count(ctx,
			specification.ByPersonaID{PersonaID: p.Id},
			specification.WithStatus(entity.SessionStatusActive),
		)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d in progress", entity.ErrPersonaBusy, active)
		}
		return nil
	}

	updated := s.broker.UpdateAgent(ctx, p.AgentId(), toBrokerPersona(p), voiceagent.WithPrecheck(notBusy))
	if !updated.IsOk() {
		return nil, updated.Error()
	}
	prov := updated.Value()

	if err := uow.PersonaRepository().UpdateCachedPrompt(ctx, p.Id, prov.SystemPrompt); err != nil {
		return nil, err
	}

	s.logger.Info(personaModule, "Agent updated", map[string]interface{}{
		"persona_id": p.Id.String(),
		"agent_id":   prov.AgentID,
		"recreated":  prov.Recreated,
	})
	s.events.PersonaAgentProvisioned(ctx, p.Id, prov.AgentID, prov.Recreated)

	return &dto.PersonaAgentResponse{
		PersonaId: p.Id,
		AgentId:   prov.AgentID,
		Recreated: prov.Recreated,
	}, nil
}

func (s *personaService) load(ctx context.Context, id uuid.UUID) (*entity.Persona, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	p, err := uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, entity.ErrPersonaNotFound
	}
	return p, nil
}

func toPersonaResponse(p *entity.Persona) *dto.PersonaResponse {
	resolved := persona.Resolve(p.Characteristics)
	traits := make([]dto.PersonaTraitResponse, 0, len(resolved))
	for _, r := range resolved {
		traits = append(traits, dto.PersonaTraitResponse{
			Key:         r.Key,
			Label:       persona.Humanize(r.Key),
			Score:       r.Score,
			Description: r.Description,
		})
	}
	return &dto.PersonaResponse{
		Id:              p.Id,
		Name:            p.Name,
		Description:     p.Description,
		Characteristics: traits,
		HasAgent:        p.HasAgent(),
		CreatedAt:       p.CreatedAt,
	}
}
