package voiceagent

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/result"
	"acquisition-arena-be/pkg/transcript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu      sync.Mutex
	creates atomic.Int32
	deleted []string

	createDelay time.Duration
	createErr   *result.Error
	updateErr   *result.Error
	tokenErr    *result.Error
	conv        Conversation
	convErr     *result.Error
	convCalls   atomic.Int32
}

func (f *fakeAPI) CreateAgent(ctx context.Context, cfg persona.AgentConfig) result.Result[string] {
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}
	if f.createErr != nil {
		return result.Err[string](f.createErr.Kind, f.createErr.Reason, nil)
	}
	n := f.creates.Add(1)
	return result.Ok(fmt.Sprintf("agent_%d", n))
}

func (f *fakeAPI) UpdateAgent(ctx context.Context, agentID string, cfg persona.AgentConfig) result.Result[Unit] {
	if f.updateErr != nil {
		return result.Err[Unit](f.updateErr.Kind, f.updateErr.Reason, nil)
	}
	return result.Ok(Unit{})
}

func (f *fakeAPI) DeleteAgent(ctx context.Context, agentID string) result.Result[Unit] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, agentID)
	return result.Ok(Unit{})
}

func (f *fakeAPI) ConversationToken(ctx context.Context, agentID, participant string) result.Result[string] {
	if f.tokenErr != nil {
		return result.Err[string](f.tokenErr.Kind, f.tokenErr.Reason, nil)
	}
	return result.Ok("token-for-" + agentID)
}

func (f *fakeAPI) GetConversation(ctx context.Context, conversationID string) result.Result[Conversation] {
	f.convCalls.Add(1)
	if f.convErr != nil {
		return result.Err[Conversation](f.convErr.Kind, f.convErr.Reason, nil)
	}
	return result.Ok(f.conv)
}

type memStore struct {
	mu  sync.Mutex
	ids map[string]string
	// loseClaimTo simulates a writer in another process winning the race.
	loseClaimTo string
}

func newMemStore() *memStore {
	return &memStore{ids: make(map[string]string)}
}

func (m *memStore) AgentID(ctx context.Context, personaID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[personaID], nil
}

func (m *memStore) ClaimAgentID(ctx context.Context, personaID, agentID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loseClaimTo != "" {
		m.ids[personaID] = m.loseClaimTo
	}
	if existing := m.ids[personaID]; existing != "" {
		return existing, false, nil
	}
	m.ids[personaID] = agentID
	return agentID, true, nil
}

func (m *memStore) SetAgentID(ctx context.Context, personaID, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[personaID] = agentID
	return nil
}

func testPersona() Persona {
	return Persona{ID: "p1", Name: "Earl", Description: "Retired rancher"}
}

func newTestBroker(api AgentAPI, store AgentStore, locker Locker) *Broker {
	return NewBroker(api, store, locker, logger.NewNopLogger(),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
}

func TestEnsureAgentReturnsExistingID(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBroker(api, newMemStore(), nil)

	p := testPersona()
	p.AgentID = "agent_existing"
	res := b.EnsureAgent(context.Background(), p)

	require.True(t, res.IsOk())
	assert.Equal(t, "agent_existing", res.Value())
	assert.Equal(t, int32(0), api.creates.Load())
}

func TestEnsureAgentConcurrentCallersCreateOnce(t *testing.T) {
	api := &fakeAPI{createDelay: 20 * time.Millisecond}
	store := newMemStore()
	locker := NewLocalLocker()
	b := newTestBroker(api, store, locker)

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := b.EnsureAgent(context.Background(), testPersona())
			if res.IsOk() {
				ids[i] = res.Value()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), api.creates.Load())
	for _, id := range ids {
		assert.Equal(t, "agent_1", id)
	}
	stored, _ := store.AgentID(context.Background(), "p1")
	assert.Equal(t, "agent_1", stored)
	assert.Empty(t, api.deleted)
	assert.Equal(t, 0, locker.held())
}

func TestEnsureAgentLosingClaimDeletesOrphan(t *testing.T) {
	api := &fakeAPI{}
	store := newMemStore()
	store.loseClaimTo = "agent_other_instance"
	b := newTestBroker(api, store, nil)

	res := b.EnsureAgent(context.Background(), testPersona())

	require.True(t, res.IsOk())
	assert.Equal(t, "agent_other_instance", res.Value())
	assert.Equal(t, []string{"agent_1"}, api.deleted)
}

func TestEnsureAgentCreateFailureIsErr(t *testing.T) {
	api := &fakeAPI{createErr: &result.Error{Kind: result.KindUpstream, Reason: "boom"}}
	store := newMemStore()
	b := newTestBroker(api, store, nil)

	res := b.EnsureAgent(context.Background(), testPersona())

	require.False(t, res.IsOk())
	assert.Equal(t, result.KindUpstream, res.Error().Kind)
	stored, _ := store.AgentID(context.Background(), "p1")
	assert.Empty(t, stored)
}

func TestUpdateAgentInPlace(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBroker(api, newMemStore(), nil)

	res := b.UpdateAgent(context.Background(), "agent_9", testPersona())

	require.True(t, res.IsOk())
	assert.Equal(t, "agent_9", res.Value().AgentID)
	assert.False(t, res.Value().Recreated)
	assert.Contains(t, res.Value().SystemPrompt, "Earl")
}

func TestUpdateAgentFallsBackToRecreate(t *testing.T) {
	for _, kind := range []result.Kind{result.KindNotFound, result.KindBadRequest} {
		t.Run(string(kind), func(t *testing.T) {
			api := &fakeAPI{updateErr: &result.Error{Kind: kind, Reason: "stale"}}
			store := newMemStore()
			store.ids["p1"] = "agent_stale"
			b := newTestBroker(api, store, nil)

			res := b.UpdateAgent(context.Background(), "agent_stale", testPersona())

			require.True(t, res.IsOk())
			assert.True(t, res.Value().Recreated)
			assert.Equal(t, "agent_1", res.Value().AgentID)
			assert.Equal(t, []string{"agent_stale"}, api.deleted)
			stored, _ := store.AgentID(context.Background(), "p1")
			assert.Equal(t, "agent_1", stored)
		})
	}
}

func TestUpdateAgentUpstreamErrorSurfaces(t *testing.T) {
	api := &fakeAPI{updateErr: &result.Error{Kind: result.KindUpstream, Reason: "503"}}
	b := newTestBroker(api, newMemStore(), nil)

	res := b.UpdateAgent(context.Background(), "agent_9", testPersona())

	require.False(t, res.IsOk())
	assert.Equal(t, result.KindUpstream, res.Error().Kind)
	assert.Empty(t, api.deleted)
}

func TestUpdateAgentRecreateFailureClearsStoredID(t *testing.T) {
	api := &fakeAPI{
		updateErr: &result.Error{Kind: result.KindNotFound, Reason: "gone"},
		createErr: &result.Error{Kind: result.KindUpstream, Reason: "down"},
	}
	store := newMemStore()
	store.ids["p1"] = "agent_stale"
	b := newTestBroker(api, store, nil)

	res := b.UpdateAgent(context.Background(), "agent_stale", testPersona())

	require.False(t, res.IsOk())
	stored, _ := store.AgentID(context.Background(), "p1")
	assert.Empty(t, stored)
}

func TestUpdateAgentRecreateHoldsPersonaLock(t *testing.T) {
	api := &fakeAPI{
		updateErr:   &result.Error{Kind: result.KindNotFound, Reason: "gone"},
		createDelay: 200 * time.Millisecond,
	}
	store := newMemStore()
	store.ids["p1"] = "agent_stale"
	b := newTestBroker(api, store, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var updated result.Result[Provisioned]
	wg.Add(1)
	go func() {
		defer wg.Done()
		updated = b.UpdateAgent(ctx, "agent_stale", testPersona())
	}()

	// Lands while the recreate is in flight and the stored id is cleared.
	time.Sleep(50 * time.Millisecond)
	ensured := b.EnsureAgent(ctx, testPersona())
	wg.Wait()

	require.True(t, updated.IsOk())
	require.True(t, ensured.IsOk())
	assert.Equal(t, updated.Value().AgentID, ensured.Value())
	assert.Equal(t, int32(1), api.creates.Load())
	assert.Equal(t, []string{"agent_stale"}, api.deleted)
	stored, _ := store.AgentID(ctx, "p1")
	assert.Equal(t, ensured.Value(), stored)
}

func TestUpdateAgentPrecheckRunsUnderLock(t *testing.T) {
	api := &fakeAPI{}
	locker := NewLocalLocker()
	b := newTestBroker(api, newMemStore(), locker)
	errBusy := errors.New("busy")

	var lockedDuringCheck bool
	res := b.UpdateAgent(context.Background(), "agent_9", testPersona(),
		WithPrecheck(func(ctx context.Context) error {
			tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			release, err := locker.Lock(tctx, "persona-agent:p1")
			if err == nil {
				release()
			}
			lockedDuringCheck = errors.Is(err, ErrLockTimeout)
			return errBusy
		}),
	)

	require.False(t, res.IsOk())
	assert.Equal(t, result.KindCaller, res.Error().Kind)
	assert.ErrorIs(t, res.Error(), errBusy)
	assert.True(t, lockedDuringCheck)
	assert.Equal(t, int32(0), api.creates.Load())
	assert.Equal(t, 0, locker.held())
}

func TestUpdateAgentUsesNewerStoredID(t *testing.T) {
	api := &fakeAPI{}
	store := newMemStore()
	store.ids["p1"] = "agent_new"
	b := newTestBroker(api, store, nil)

	res := b.UpdateAgent(context.Background(), "agent_old", testPersona())

	require.True(t, res.IsOk())
	assert.Equal(t, "agent_new", res.Value().AgentID)
}

func TestMintSessionToken(t *testing.T) {
	b := newTestBroker(&fakeAPI{}, newMemStore(), nil)

	res := b.MintSessionToken(context.Background(), "agent_1", "user_1")

	require.True(t, res.IsOk())
	assert.Equal(t, "token-for-agent_1", res.Value().Token)
	assert.Regexp(t, `^webrtc_1700000000_[0-9a-f]{16}$`, res.Value().ConversationID)
	assert.True(t, IsPlaceholder(res.Value().ConversationID))
}

func TestMintSessionTokenRequiresAgent(t *testing.T) {
	b := newTestBroker(&fakeAPI{}, newMemStore(), nil)

	res := b.MintSessionToken(context.Background(), "", "user_1")
	require.False(t, res.IsOk())
	assert.Equal(t, result.KindCaller, res.Error().Kind)
}

func TestFetchTranscript(t *testing.T) {
	api := &fakeAPI{conv: Conversation{ID: "conv_1"}}
	api.conv.Turns = append(api.conv.Turns, turn("agent", "Hello?"), turn("user", "Hi"))
	b := newTestBroker(api, newMemStore(), nil)

	res := b.FetchTranscript(context.Background(), "conv_1")
	require.True(t, res.IsOk())
	assert.Len(t, res.Value(), 2)
}

func TestFetchTranscriptCallerErrorsSkipRemote(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBroker(api, newMemStore(), nil)

	for _, id := range []string{"", "   ", "webrtc_1700000000_abcdef0123456789"} {
		res := b.FetchTranscript(context.Background(), id)
		require.False(t, res.IsOk())
		assert.Equal(t, result.KindCaller, res.Error().Kind)
	}
	assert.Equal(t, int32(0), api.convCalls.Load())
}

func TestFetchTranscriptNotFound(t *testing.T) {
	api := &fakeAPI{convErr: &result.Error{Kind: result.KindNotFound, Reason: "missing"}}
	b := newTestBroker(api, newMemStore(), nil)

	res := b.FetchTranscript(context.Background(), "conv_404")
	require.False(t, res.IsOk())
	assert.Equal(t, result.KindNotFound, res.Error().Kind)
}

func TestCompileUsesConfiguredLanguage(t *testing.T) {
	b := NewBroker(&fakeAPI{}, newMemStore(), nil, logger.NewNopLogger(), WithLanguage("es"))
	cfg := b.Compile(testPersona())

	assert.Equal(t, "es", cfg.Language)
	assert.Len(t, cfg.Defaulted, len(persona.RequiredTraits))
	assert.True(t, strings.HasPrefix(cfg.AgentName, "Earl"))
}

func turn(role, text string) transcript.Turn {
	return transcript.Turn{Role: role, Text: text}
}
