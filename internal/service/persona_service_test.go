package service

import (
	"context"
	"testing"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/result"
	"acquisition-arena-be/pkg/voiceagent"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPersonaFixture(t *testing.T, agentId *string) (*memDB, *fakeBroker, *recordingEvents, IPersonaService, *entity.Persona) {
	t.Helper()
	db := newMemDB()
	broker := &fakeBroker{agentId: "agent_new"}
	events := &recordingEvents{}
	p := db.addPersona(&entity.Persona{
		Name:              "Skeptical Sam",
		Description:       "Retired rancher",
		ElevenLabsAgentId: agentId,
		Characteristics: persona.Traits{
			persona.TemperLevel: score(0.8, "quick to anger"),
		},
	})
	svc := NewPersonaService(&fakeFactory{db: db}, broker, events, logger.NewNopLogger())
	return db, broker, events, svc, p
}

func TestPersonaResponseResolvesAllTraits(t *testing.T) {
	_, _, _, svc, p := newPersonaFixture(t, nil)

	res, err := svc.Get(context.Background(), p.Id)
	require.NoError(t, err)

	require.Len(t, res.Characteristics, len(persona.RequiredTraits))
	assert.Equal(t, persona.TemperLevel, res.Characteristics[0].Key)
	assert.Equal(t, "Temper level", res.Characteristics[0].Label)
	assert.Equal(t, 0.8, res.Characteristics[0].Score)
	assert.Equal(t, persona.DefaultScore, res.Characteristics[1].Score)
	assert.False(t, res.HasAgent)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entity.ErrPersonaNotFound)
}

func TestProvisionAgentCachesPrompt(t *testing.T) {
	db, _, events, svc, p := newPersonaFixture(t, nil)

	res, err := svc.ProvisionAgent(context.Background(), p.Id)
	require.NoError(t, err)
	assert.Equal(t, "agent_new", res.AgentId)

	stored := db.persona(p.Id)
	require.NotNil(t, stored.CachedSystemPrompt)
	assert.Equal(t, "You are Skeptical Sam", *stored.CachedSystemPrompt)
	assert.Equal(t, []string{"PERSONA_AGENT_PROVISIONED"}, events.seen())
}

func TestProvisionAgentKeepsExisting(t *testing.T) {
	_, _, events, svc, p := newPersonaFixture(t, ptr("agent_old"))

	res, err := svc.ProvisionAgent(context.Background(), p.Id)
	require.NoError(t, err)
	assert.Equal(t, "agent_old", res.AgentId)
	assert.Empty(t, events.seen())
}

func TestProvisionAgentUpstreamFailure(t *testing.T) {
	_, broker, _, svc, p := newPersonaFixture(t, nil)
	broker.ensureErr = &result.Error{Kind: result.KindUpstream, Reason: "create agent"}

	_, err := svc.ProvisionAgent(context.Background(), p.Id)
	require.Error(t, err)
	assert.True(t, result.IsKind(err, result.KindUpstream))
}

func TestUpdateAgentRefusedWhileConversationActive(t *testing.T) {
	db, broker, _, svc, p := newPersonaFixture(t, ptr("agent_old"))
	db.addSession(&entity.TrainingSession{
		UserId:    uuid.New(),
		PersonaId: p.Id,
		ParcelId:  uuid.New(),
		Status:    entity.SessionStatusActive,
	})

	_, err := svc.UpdateAgent(context.Background(), p.Id)
	assert.ErrorIs(t, err, entity.ErrPersonaBusy)
	assert.Zero(t, broker.updateCalls)
}

func TestUpdateAgentBusyCheckRunsInsideBrokerLock(t *testing.T) {
	db, broker, _, svc, p := newPersonaFixture(t, ptr("agent_old"))
	// A conversation starts after the handler loads the persona but before
	// the lock is granted.
	broker.whileLocked = func() {
		db.addSession(&entity.TrainingSession{PersonaId: p.Id, Status: entity.SessionStatusActive})
	}

	_, err := svc.UpdateAgent(context.Background(), p.Id)
	assert.ErrorIs(t, err, entity.ErrPersonaBusy)
	assert.Zero(t, broker.updateCalls)
}

func TestUpdateAgentRequiresProvisionedAgent(t *testing.T) {
	_, broker, _, svc, p := newPersonaFixture(t, nil)

	_, err := svc.UpdateAgent(context.Background(), p.Id)
	assert.ErrorIs(t, err, entity.ErrAgentNotProvisioned)
	assert.Zero(t, broker.updateCalls)
}

func TestUpdateAgentStoresRecompiledPrompt(t *testing.T) {
	db, broker, events, svc, p := newPersonaFixture(t, ptr("agent_old"))
	broker.updateResult = voiceagent.Provisioned{AgentID: "agent_fresh", SystemPrompt: "new prompt", Recreated: true}
	// Pending and finished sessions do not block an update.
	db.addSession(&entity.TrainingSession{PersonaId: p.Id, Status: entity.SessionStatusPending})
	db.addSession(&entity.TrainingSession{PersonaId: p.Id, Status: entity.SessionStatusCompleted})

	res, err := svc.UpdateAgent(context.Background(), p.Id)
	require.NoError(t, err)
	assert.Equal(t, "agent_fresh", res.AgentId)
	assert.True(t, res.Recreated)

	stored := db.persona(p.Id)
	require.NotNil(t, stored.CachedSystemPrompt)
	assert.Equal(t, "new prompt", *stored.CachedSystemPrompt)
	assert.Equal(t, []string{"PERSONA_AGENT_PROVISIONED"}, events.seen())
}
