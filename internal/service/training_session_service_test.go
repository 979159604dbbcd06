package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"acquisition-arena-be/internal/dto"
	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/internal/repository/memory"
	"acquisition-arena-be/pkg/parcel"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/result"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	db        *memDB
	broker    *fakeBroker
	publisher *fakePublisher
	events    *recordingEvents
	svc       ITrainingSessionService
	persona   *entity.Persona
	parcel    *entity.Parcel
}

func newSessionFixture(t *testing.T, allowance int) *sessionFixture {
	t.Helper()
	db := newMemDB()
	f := &sessionFixture{
		db:        db,
		broker:    &fakeBroker{agentId: "agent_abc", token: "tok_123"},
		publisher: &fakePublisher{},
		events:    &recordingEvents{},
	}
	f.persona = db.addPersona(&entity.Persona{
		Name:        "Skeptical Sam",
		Description: "Retired rancher",
		Characteristics: persona.Traits{
			persona.TemperLevel:     score(0.8, "quick to anger"),
			persona.SkepticismLevel: score(0.9, "doubts every offer"),
		},
	})
	f.parcel = db.addParcel(&entity.Parcel{
		ParcelNumber: "APN-001",
		City:         "Austin",
		State:        "TX",
		PropertyFeatures: parcel.Features{
			"acres": 10.5,
		},
	})
	f.svc = NewTrainingSessionService(
		&fakeFactory{db: db},
		f.broker,
		f.publisher,
		f.events,
		memory.NewBriefCache(0),
		logger.NewNopLogger(),
		allowance,
	)
	return f
}

func (f *sessionFixture) create(t *testing.T, user string) *dto.TrainingSessionResponse {
	t.Helper()
	res, err := f.svc.Create(context.Background(), user, &dto.CreateTrainingSessionRequest{
		PersonaId: f.persona.Id,
		ParcelId:  f.parcel.Id,
	})
	require.NoError(t, err)
	return res
}

func TestCreateStartsPendingAndConsumesAllowance(t *testing.T) {
	f := newSessionFixture(t, 1)

	res := f.create(t, "user-1")
	assert.Equal(t, "pending", res.Status)
	assert.Nil(t, res.FeedbackScore)
	assert.Nil(t, res.Grade)
	require.NotNil(t, res.Persona)
	assert.Equal(t, "Skeptical Sam", res.Persona.Name)
	require.NotNil(t, res.Parcel)
	assert.Equal(t, "Austin, TX", res.Parcel.Location)

	assert.Equal(t, 0, f.db.userByExternal("user-1").SessionsRemaining)

	_, err := f.svc.Create(context.Background(), "user-1", &dto.CreateTrainingSessionRequest{
		PersonaId: f.persona.Id,
		ParcelId:  f.parcel.Id,
	})
	assert.ErrorIs(t, err, entity.ErrNoSessionsRemaining)
	assert.Equal(t, []string{"SESSION_CREATED"}, f.events.seen())
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	f := newSessionFixture(t, 5)

	_, err := f.svc.Create(context.Background(), "user-1", &dto.CreateTrainingSessionRequest{
		PersonaId: uuid.New(),
		ParcelId:  f.parcel.Id,
	})
	assert.ErrorIs(t, err, entity.ErrPersonaNotFound)

	_, err = f.svc.Create(context.Background(), "user-1", &dto.CreateTrainingSessionRequest{
		PersonaId: f.persona.Id,
		ParcelId:  uuid.New(),
	})
	assert.ErrorIs(t, err, entity.ErrParcelNotFound)

	// Rejected requests do not consume the allowance.
	assert.Equal(t, 5, f.db.userByExternal("user-1").SessionsRemaining)
}

func TestStartConversationActivatesSession(t *testing.T) {
	f := newSessionFixture(t, 5)
	created := f.create(t, "user-1")

	res, err := f.svc.StartConversation(context.Background(), "user-1", created.Id)
	require.NoError(t, err)

	assert.Equal(t, "tok_123", res.Token)
	assert.Equal(t, "agent_abc", res.AgentId)
	assert.Equal(t, f.parcel.ConversationBrief(), res.DynamicVariables.LandParcelSubDetails)
	assert.Equal(t, "user-1", f.broker.lastParticipant)

	stored := f.db.session(created.Id)
	assert.Equal(t, entity.SessionStatusActive, stored.Status)
	require.NotNil(t, stored.ElevenLabsSessionToken)
	assert.Equal(t, "tok_123", *stored.ElevenLabsSessionToken)
	assert.True(t, strings.HasPrefix(stored.ConversationId(), "webrtc_"))

	assert.Contains(t, f.events.seen(), "CONVERSATION_STARTED")

	_, err = f.svc.StartConversation(context.Background(), "user-1", created.Id)
	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)
}

func TestStartConversationWithoutAgentLeavesSessionPending(t *testing.T) {
	f := newSessionFixture(t, 5)
	f.broker.ensureErr = &result.Error{Kind: result.KindUpstream, Reason: "create agent"}
	created := f.create(t, "user-1")

	_, err := f.svc.StartConversation(context.Background(), "user-1", created.Id)
	assert.ErrorIs(t, err, entity.ErrAgentNotProvisioned)
	assert.Equal(t, entity.SessionStatusPending, f.db.session(created.Id).Status)
}

func TestStartConversationTokenFailure(t *testing.T) {
	f := newSessionFixture(t, 5)
	f.broker.mintErr = &result.Error{Kind: result.KindTimeout, Reason: "mint token"}
	created := f.create(t, "user-1")

	_, err := f.svc.StartConversation(context.Background(), "user-1", created.Id)
	require.Error(t, err)
	assert.True(t, result.IsKind(err, result.KindTimeout))
	assert.Equal(t, entity.SessionStatusPending, f.db.session(created.Id).Status)
}

func TestEndConversationEnqueuesAfterTransition(t *testing.T) {
	f := newSessionFixture(t, 5)
	created := f.create(t, "user-1")
	_, err := f.svc.StartConversation(context.Background(), "user-1", created.Id)
	require.NoError(t, err)

	var statusAtEnqueue entity.SessionStatus
	f.publisher.onPublish = func(id uuid.UUID) {
		statusAtEnqueue = f.db.session(id).Status
	}

	res, err := f.svc.EndConversation(context.Background(), "user-1", created.Id, &dto.EndConversationRequest{
		ElevenLabsConversationId: "conv_789",
		SessionDuration:          ptr(312),
	})
	require.NoError(t, err)

	assert.Equal(t, "generating_feedback", res.Status)
	assert.Equal(t, []uuid.UUID{created.Id}, f.publisher.published)
	assert.Equal(t, entity.SessionStatusGeneratingFeedback, statusAtEnqueue)

	stored := f.db.session(created.Id)
	assert.Equal(t, "conv_789", stored.ConversationId())
	require.NotNil(t, stored.SessionDurationInSeconds)
	assert.Equal(t, 312, *stored.SessionDurationInSeconds)
	assert.Contains(t, f.events.seen(), "FEEDBACK_GENERATION_STARTED")
}

func TestEndConversationKeepsPlaceholderWhenIdAbsent(t *testing.T) {
	f := newSessionFixture(t, 5)
	created := f.create(t, "user-1")
	_, err := f.svc.StartConversation(context.Background(), "user-1", created.Id)
	require.NoError(t, err)

	_, err = f.svc.EndConversation(context.Background(), "user-1", created.Id, &dto.EndConversationRequest{})
	require.NoError(t, err)

	stored := f.db.session(created.Id)
	assert.Equal(t, entity.SessionStatusGeneratingFeedback, stored.Status)
	assert.True(t, strings.HasPrefix(stored.ConversationId(), "webrtc_"))
	assert.Nil(t, stored.SessionDurationInSeconds)
}

func TestEndConversationRequiresActiveSession(t *testing.T) {
	f := newSessionFixture(t, 5)
	created := f.create(t, "user-1")

	_, err := f.svc.EndConversation(context.Background(), "user-1", created.Id, &dto.EndConversationRequest{})
	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)
	assert.Empty(t, f.publisher.published)
	assert.Equal(t, entity.SessionStatusPending, f.db.session(created.Id).Status)
}

func TestEndConversationEnqueueFailureFailsSession(t *testing.T) {
	f := newSessionFixture(t, 5)
	created := f.create(t, "user-1")
	_, err := f.svc.StartConversation(context.Background(), "user-1", created.Id)
	require.NoError(t, err)

	f.publisher.err = errors.New("queue closed")
	_, err = f.svc.EndConversation(context.Background(), "user-1", created.Id, &dto.EndConversationRequest{})
	require.Error(t, err)

	assert.Equal(t, entity.SessionStatusFailed, f.db.session(created.Id).Status)
	assert.Contains(t, f.events.seen(), "SESSION_FAILED")
}

func TestSessionsAreScopedToOwner(t *testing.T) {
	f := newSessionFixture(t, 5)
	created := f.create(t, "user-1")

	_, err := f.svc.Show(context.Background(), "user-2", created.Id)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	_, err = f.svc.StartConversation(context.Background(), "user-2", created.Id)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	shown, err := f.svc.Show(context.Background(), "user-1", created.Id)
	require.NoError(t, err)
	assert.Equal(t, created.Id, shown.Id)
}

func TestShowIncludesTranscriptAndGrade(t *testing.T) {
	f := newSessionFixture(t, 5)
	user, err := (&fakeUserRepo{db: f.db}).FindOrCreate(context.Background(), "user-1", 5)
	require.NoError(t, err)

	s := f.db.addSession(&entity.TrainingSession{
		UserId:                 user.Id,
		PersonaId:              f.persona.Id,
		ParcelId:               f.parcel.Id,
		Status:                 entity.SessionStatusCompleted,
		FeedbackScore:          ptr(82),
		FeedbackText:           ptr("## Summary\n\nSolid call."),
		ConversationTranscript: ptr("Agent: Hello\n\nUser: Hi"),
	})

	shown, err := f.svc.Show(context.Background(), "user-1", s.Id)
	require.NoError(t, err)
	require.NotNil(t, shown.Grade)
	assert.Equal(t, "B-", *shown.Grade)
	require.NotNil(t, shown.ConversationTranscript)
	assert.Equal(t, "Agent: Hello\n\nUser: Hi", *shown.ConversationTranscript)

	list, err := f.svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].ConversationTranscript)
}

func TestListNewestFirst(t *testing.T) {
	f := newSessionFixture(t, 5)
	first := f.create(t, "user-1")
	second := f.create(t, "user-1")
	f.create(t, "user-2")

	list, err := f.svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Id, list[0].Id)
	assert.Equal(t, first.Id, list[1].Id)
	assert.Equal(t, "Skeptical Sam", list[0].Persona.Name)
}

func TestStatsReportsBestGrade(t *testing.T) {
	f := newSessionFixture(t, 5)
	user, err := (&fakeUserRepo{db: f.db}).FindOrCreate(context.Background(), "user-1", 5)
	require.NoError(t, err)

	for _, s := range []*entity.TrainingSession{
		{Status: entity.SessionStatusCompleted, FeedbackScore: ptr(82)},
		{Status: entity.SessionStatusCompleted, FeedbackScore: ptr(91)},
		{Status: entity.SessionStatusFailed},
	} {
		s.UserId, s.PersonaId, s.ParcelId = user.Id, f.persona.Id, f.parcel.Id
		f.db.addSession(s)
	}

	stats, err := f.svc.Stats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalSessions)
	assert.Equal(t, int64(2), stats.CompletedSessions)
	require.NotNil(t, stats.BestScore)
	assert.Equal(t, 91, *stats.BestScore)
	require.NotNil(t, stats.BestGrade)
	assert.Equal(t, "A-", *stats.BestGrade)
	assert.Equal(t, 5, stats.SessionsRemaining)
}

func TestStatsWithoutScores(t *testing.T) {
	f := newSessionFixture(t, 5)

	stats, err := f.svc.Stats(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSessions)
	assert.Nil(t, stats.BestScore)
	assert.Nil(t, stats.BestGrade)
}

func TestTransitionOutOfTerminalLeavesSessionUntouched(t *testing.T) {
	db := newMemDB()
	repo := &fakeSessionRepo{db: db}
	s := db.addSession(&entity.TrainingSession{Status: entity.SessionStatusCompleted})

	changed, err := repo.TransitionStatus(context.Background(), s.Id,
		entity.SessionStatusCompleted, entity.SessionStatusActive, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, entity.SessionStatusCompleted, db.session(s.Id).Status)
}
