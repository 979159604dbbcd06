package service

import (
	"context"
	"fmt"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"
	"acquisition-arena-be/pkg/feedback"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/result"
	"acquisition-arena-be/pkg/transcript"
	"acquisition-arena-be/pkg/voiceagent"

	"github.com/google/uuid"
)

// AgentBroker is the voice-agent surface the services drive.
// *voiceagent.Broker implements it.
type AgentBroker interface {
	Compile(p voiceagent.Persona) persona.AgentConfig
	EnsureAgent(ctx context.Context, p voiceagent.Persona) result.Result[string]
	UpdateAgent(ctx context.Context, agentID string, p voiceagent.Persona, opts ...voiceagent.UpdateOption) result.Result[voiceagent.Provisioned]
	MintSessionToken(ctx context.Context, agentID, participant string) result.Result[voiceagent.SessionToken]
	FetchTranscript(ctx context.Context, conversationID string) result.Result[[]transcript.Turn]
}

// FeedbackGenerator grades one transcript. *feedback.Engine implements it.
type FeedbackGenerator interface {
	Generate(ctx context.Context, in feedback.PromptInput) result.Result[feedback.Outcome]
}

var (
	_ AgentBroker       = (*voiceagent.Broker)(nil)
	_ FeedbackGenerator = (*feedback.Engine)(nil)
)

func toBrokerPersona(p *entity.Persona) voiceagent.Persona {
	return voiceagent.Persona{
		ID:          p.Id.String(),
		Name:        p.Name,
		Description: p.Description,
		Traits:      p.Characteristics,
		VoiceID:     p.VoiceId(),
		AgentID:     p.AgentId(),
	}
}

// personaAgentStore keeps agent ids on the persona row.
type personaAgentStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPersonaAgentStore(uowFactory unitofwork.RepositoryFactory) voiceagent.AgentStore {
	return &personaAgentStore{uowFactory: uowFactory}
}

func (s *personaAgentStore) AgentID(ctx context.Context, personaID string) (string, error) {
	id, err := uuid.Parse(personaID)
	if err != nil {
		return "", fmt.Errorf("invalid persona id %q: %w", personaID, err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	p, err := uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", entity.ErrPersonaNotFound
	}
	return p.AgentId(), nil
}

func (s *personaAgentStore) ClaimAgentID(ctx context.Context, personaID, agentID string) (string, bool, error) {
	id, err := uuid.Parse(personaID)
	if err != nil {
		return "", false, fmt.Errorf("invalid persona id %q: %w", personaID, err)
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.PersonaRepository().ClaimAgentId(ctx, id, agentID)
}

func (s *personaAgentStore) SetAgentID(ctx context.Context, personaID, agentID string) error {
	id, err := uuid.Parse(personaID)
	if err != nil {
		return fmt.Errorf("invalid persona id %q: %w", personaID, err)
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.PersonaRepository().SetAgentId(ctx, id, agentID)
}
