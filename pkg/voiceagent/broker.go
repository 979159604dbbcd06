package voiceagent

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/result"
	"acquisition-arena-be/pkg/transcript"
)

const (
	module = "VOICE_AGENT"

	// PlaceholderPrefix marks conversation ids minted locally before the
	// client reports the real one.
	PlaceholderPrefix = "webrtc_"
)

// AgentAPI is the remote surface the broker drives. *Client implements it.
type AgentAPI interface {
	CreateAgent(ctx context.Context, cfg persona.AgentConfig) result.Result[string]
	UpdateAgent(ctx context.Context, agentID string, cfg persona.AgentConfig) result.Result[Unit]
	DeleteAgent(ctx context.Context, agentID string) result.Result[Unit]
	ConversationToken(ctx context.Context, agentID, participant string) result.Result[string]
	GetConversation(ctx context.Context, conversationID string) result.Result[Conversation]
}

// AgentStore persists the durable agent id of a persona.
type AgentStore interface {
	// AgentID re-reads the stored id; "" means unprovisioned.
	AgentID(ctx context.Context, personaID string) (string, error)
	// ClaimAgentID stores agentID only if the persona has none. It returns
	// the id that is stored afterwards and whether it was this call's.
	ClaimAgentID(ctx context.Context, personaID, agentID string) (stored string, won bool, err error)
	// SetAgentID overwrites the stored id; "" clears it.
	SetAgentID(ctx context.Context, personaID, agentID string) error
}

// Persona is the broker's view of a persona row.
type Persona struct {
	ID          string
	Name        string
	Description string
	Traits      persona.Traits
	VoiceID     string
	AgentID     string
}

type SessionToken struct {
	Token          string
	ConversationID string
}

// Provisioned describes the agent left in place by UpdateAgent.
type Provisioned struct {
	AgentID      string
	SystemPrompt string
	Recreated    bool
}

type Broker struct {
	api      AgentAPI
	store    AgentStore
	locker   Locker
	logger   logger.ILogger
	language string

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

type BrokerOption func(*Broker)

// WithRand fixes the opening-line source, for reproducible tests.
func WithRand(rng *rand.Rand) BrokerOption {
	return func(b *Broker) { b.rng = rng }
}

func WithClock(now func() time.Time) BrokerOption {
	return func(b *Broker) { b.now = now }
}

func WithLanguage(lang string) BrokerOption {
	return func(b *Broker) {
		if lang != "" {
			b.language = lang
		}
	}
}

func NewBroker(api AgentAPI, store AgentStore, locker Locker, log logger.ILogger, opts ...BrokerOption) *Broker {
	if locker == nil {
		locker = NewLocalLocker()
	}
	b := &Broker{
		api:      api,
		store:    store,
		locker:   locker,
		logger:   log,
		language: "en",
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile renders the agent configuration for p. Missing traits are logged
// and compiled at the midpoint.
func (b *Broker) Compile(p Persona) persona.AgentConfig {
	b.rngMu.Lock()
	cfg := persona.Compile(persona.Input{
		Name:        p.Name,
		Description: p.Description,
		Traits:      p.Traits,
		VoiceID:     p.VoiceID,
	}, b.rng)
	b.rngMu.Unlock()

	cfg.Language = b.language
	if len(cfg.Defaulted) > 0 {
		b.logger.Warn(module, "Persona traits missing, defaulted to midpoint", map[string]interface{}{
			"persona_id": p.ID,
			"traits":     cfg.Defaulted,
		})
	}
	return cfg
}

// EnsureAgent returns the persona's durable agent id, creating it on first
// use. Concurrent callers for one persona end up with a single stored id.
func (b *Broker) EnsureAgent(ctx context.Context, p Persona) result.Result[string] {
	if p.AgentID != "" {
		return result.Ok(p.AgentID)
	}
	if p.ID == "" {
		return result.Err[string](result.KindCaller, "ensure agent: persona has no id", nil)
	}

	release, err := b.locker.Lock(ctx, agentLockKey(p.ID))
	if err != nil {
		return result.Err[string](result.KindTimeout, "ensure agent: acquire lock", err)
	}
	defer release()

	stored, err := b.store.AgentID(ctx, p.ID)
	if err != nil {
		return result.FromError[string]("ensure agent: reread persona", err)
	}
	if stored != "" {
		b.logger.Debug(module, "Agent provisioned by another caller", map[string]interface{}{
			"persona_id": p.ID,
			"agent_id":   stored,
		})
		return result.Ok(stored)
	}

	created := b.api.CreateAgent(ctx, b.Compile(p))
	if !created.IsOk() {
		b.logger.Error(module, "Agent creation failed", map[string]interface{}{
			"persona_id": p.ID,
			"error":      created.Error().Error(),
		})
		return created
	}
	agentID := created.Value()

	stored, won, err := b.store.ClaimAgentID(ctx, p.ID, agentID)
	if err != nil {
		b.deleteOrphan(ctx, p.ID, agentID)
		return result.FromError[string]("ensure agent: persist agent id", err)
	}
	if !won {
		b.logger.Warn(module, "Lost agent provisioning race, removing duplicate", map[string]interface{}{
			"persona_id": p.ID,
			"kept":       stored,
			"discarded":  agentID,
		})
		b.deleteOrphan(ctx, p.ID, agentID)
		return result.Ok(stored)
	}

	b.logger.Info(module, "Agent created", map[string]interface{}{
		"persona_id": p.ID,
		"agent_id":   agentID,
	})
	return result.Ok(agentID)
}

// UpdateOption adjusts a single UpdateAgent call.
type UpdateOption func(*UpdateOptions)

type UpdateOptions struct {
	prechecks []func(ctx context.Context) error
}

func ResolveUpdateOptions(opts ...UpdateOption) UpdateOptions {
	var o UpdateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Precheck runs the registered checks in order and returns the first error.
func (o UpdateOptions) Precheck(ctx context.Context) error {
	for _, check := range o.prechecks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WithPrecheck runs check while the persona's agent lock is held. A non-nil
// error aborts the update before the remote agent is touched and is carried
// as the cause of a caller-kind failure.
func WithPrecheck(check func(ctx context.Context) error) UpdateOption {
	return func(o *UpdateOptions) {
		o.prechecks = append(o.prechecks, check)
	}
}

func agentLockKey(personaID string) string {
	return "persona-agent:" + personaID
}

// UpdateAgent pushes a recompiled configuration. A remote not-found or
// bad-request falls back to delete-then-recreate; the stored id is cleared
// in between so a failed recreate leaves the persona lazily re-provisionable.
// The whole call holds the same per-persona lock as EnsureAgent.
func (b *Broker) UpdateAgent(ctx context.Context, agentID string, p Persona, opts ...UpdateOption) result.Result[Provisioned] {
	if agentID == "" {
		return result.Err[Provisioned](result.KindCaller, "update agent: empty agent id", nil)
	}
	if p.ID == "" {
		return result.Err[Provisioned](result.KindCaller, "update agent: persona has no id", nil)
	}

	o := ResolveUpdateOptions(opts...)

	release, err := b.locker.Lock(ctx, agentLockKey(p.ID))
	if err != nil {
		return result.Err[Provisioned](result.KindTimeout, "update agent: acquire lock", err)
	}
	defer release()

	if err := o.Precheck(ctx); err != nil {
		return result.Err[Provisioned](result.KindCaller, "update agent: precheck", err)
	}

	// A recreate that finished while we waited leaves a newer id behind.
	stored, err := b.store.AgentID(ctx, p.ID)
	if err != nil {
		return result.FromError[Provisioned]("update agent: reread persona", err)
	}
	if stored != "" {
		agentID = stored
	}

	cfg := b.Compile(p)
	updated := b.api.UpdateAgent(ctx, agentID, cfg)
	if updated.IsOk() {
		return result.Ok(Provisioned{AgentID: agentID, SystemPrompt: cfg.SystemPrompt})
	}

	kind := updated.Error().Kind
	if kind != result.KindNotFound && kind != result.KindBadRequest {
		return result.FromError[Provisioned]("update agent", updated.Error())
	}

	b.logger.Warn(module, "Agent update rejected, recreating", map[string]interface{}{
		"persona_id": p.ID,
		"agent_id":   agentID,
		"kind":       string(kind),
	})

	if del := b.api.DeleteAgent(ctx, agentID); !del.IsOk() {
		return result.FromError[Provisioned]("update agent: delete stale agent", del.Error())
	}
	if err := b.store.SetAgentID(ctx, p.ID, ""); err != nil {
		return result.FromError[Provisioned]("update agent: clear agent id", err)
	}

	created := b.api.CreateAgent(ctx, cfg)
	if !created.IsOk() {
		return result.FromError[Provisioned]("update agent: recreate", created.Error())
	}
	if err := b.store.SetAgentID(ctx, p.ID, created.Value()); err != nil {
		b.deleteOrphan(ctx, p.ID, created.Value())
		return result.FromError[Provisioned]("update agent: persist agent id", err)
	}

	return result.Ok(Provisioned{AgentID: created.Value(), SystemPrompt: cfg.SystemPrompt, Recreated: true})
}

// MintSessionToken returns a short-lived credential for one conversation and
// a placeholder conversation id until the client reports the real one.
func (b *Broker) MintSessionToken(ctx context.Context, agentID, participant string) result.Result[SessionToken] {
	if agentID == "" {
		return result.Err[SessionToken](result.KindCaller, "mint token: empty agent id", nil)
	}

	token := b.api.ConversationToken(ctx, agentID, participant)
	if !token.IsOk() {
		return result.FromError[SessionToken]("mint token", token.Error())
	}

	suffix, err := randomHex(8)
	if err != nil {
		return result.Err[SessionToken](result.KindUpstream, "mint token: conversation id", err)
	}
	return result.Ok(SessionToken{
		Token:          token.Value(),
		ConversationID: fmt.Sprintf("%s%d_%s", PlaceholderPrefix, b.now().Unix(), suffix),
	})
}

// FetchTranscript returns the ordered turns of a finished conversation.
// An empty or placeholder id is the caller's mistake and is never sent.
func (b *Broker) FetchTranscript(ctx context.Context, conversationID string) result.Result[[]transcript.Turn] {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return result.Err[[]transcript.Turn](result.KindCaller, "fetch transcript: missing conversation id", nil)
	}
	if IsPlaceholder(conversationID) {
		return result.Err[[]transcript.Turn](result.KindCaller, "fetch transcript: conversation id was never reported", nil)
	}

	conv := b.api.GetConversation(ctx, conversationID)
	if !conv.IsOk() {
		return result.FromError[[]transcript.Turn]("fetch transcript", conv.Error())
	}
	return result.Ok(conv.Value().Turns)
}

func IsPlaceholder(conversationID string) bool {
	return strings.HasPrefix(conversationID, PlaceholderPrefix)
}

func (b *Broker) deleteOrphan(ctx context.Context, personaID, agentID string) {
	if del := b.api.DeleteAgent(ctx, agentID); !del.IsOk() {
		b.logger.Error(module, "Failed to delete orphan agent", map[string]interface{}{
			"persona_id": personaID,
			"agent_id":   agentID,
			"error":      del.Error().Error(),
		})
	}
}
