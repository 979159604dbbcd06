package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/contract"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"
	"acquisition-arena-be/pkg/feedback"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/result"
	"acquisition-arena-be/pkg/transcript"
	"acquisition-arena-be/pkg/voiceagent"

	"github.com/google/uuid"
)

// memDB backs every fake repository. Rows are copied on the way in and out.
type memDB struct {
	mu       sync.Mutex
	clock    time.Time
	users    map[uuid.UUID]*entity.User
	personas map[uuid.UUID]*entity.Persona
	parcels  map[uuid.UUID]*entity.Parcel
	sessions map[uuid.UUID]*entity.TrainingSession
}

func newMemDB() *memDB {
	return &memDB{
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		users:    map[uuid.UUID]*entity.User{},
		personas: map[uuid.UUID]*entity.Persona{},
		parcels:  map[uuid.UUID]*entity.Parcel{},
		sessions: map[uuid.UUID]*entity.TrainingSession{},
	}
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Minute)
	return db.clock
}

func (db *memDB) addPersona(p *entity.Persona) *entity.Persona {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.Id == uuid.Nil {
		p.Id = uuid.New()
	}
	p.CreatedAt = db.tick()
	cp := *p
	db.personas[p.Id] = &cp
	return p
}

func (db *memDB) addParcel(p *entity.Parcel) *entity.Parcel {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.Id == uuid.Nil {
		p.Id = uuid.New()
	}
	p.CreatedAt = db.tick()
	cp := *p
	db.parcels[p.Id] = &cp
	return p
}

func (db *memDB) addSession(s *entity.TrainingSession) *entity.TrainingSession {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.Id == uuid.Nil {
		s.Id = uuid.New()
	}
	now := db.tick()
	s.CreatedAt, s.UpdatedAt = now, now
	cp := *s
	db.sessions[s.Id] = &cp
	return s
}

func (db *memDB) session(id uuid.UUID) *entity.TrainingSession {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.sessions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (db *memDB) persona(id uuid.UUID) *entity.Persona {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *db.personas[id]
	return &cp
}

func (db *memDB) userByExternal(externalId string) *entity.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.ExternalId == externalId {
			cp := *u
			return &cp
		}
	}
	return nil
}

// filter is the subset of specifications the services use.
type filter struct {
	ids        map[uuid.UUID]bool
	userId     *uuid.UUID
	personaId  *uuid.UUID
	externalId *string
	statuses   map[entity.SessionStatus]bool
	newest     bool
}

func compile(specs []specification.Specification) filter {
	var f filter
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			f.ids = map[uuid.UUID]bool{s.ID: true}
		case specification.ByIDs:
			f.ids = map[uuid.UUID]bool{}
			for _, id := range s.IDs {
				f.ids[id] = true
			}
		case specification.UserOwnedBy:
			id := s.UserID
			f.userId = &id
		case specification.ByPersonaID:
			id := s.PersonaID
			f.personaId = &id
		case specification.ByExternalID:
			ext := s.ExternalID
			f.externalId = &ext
		case specification.ByStatus:
			f.statuses = map[entity.SessionStatus]bool{}
			for _, st := range s.Statuses {
				f.statuses[st] = true
			}
		case specification.OrderBy:
			f.newest = s.Field == "created_at" && s.Desc
		default:
			panic(fmt.Sprintf("fake repository: unsupported specification %T", spec))
		}
	}
	return f
}

func (f filter) idOK(id uuid.UUID) bool {
	return f.ids == nil || f.ids[id]
}

type fakeFactory struct {
	db *memDB
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{db: f.db}
}

type fakeUoW struct {
	db *memDB
}

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) UserRepository() contract.UserRepository {
	return &fakeUserRepo{db: u.db}
}
func (u *fakeUoW) PersonaRepository() contract.PersonaRepository {
	return &fakePersonaRepo{db: u.db}
}
func (u *fakeUoW) ParcelRepository() contract.ParcelRepository {
	return &fakeParcelRepo{db: u.db}
}
func (u *fakeUoW) TrainingSessionRepository() contract.TrainingSessionRepository {
	return &fakeSessionRepo{db: u.db}
}

type fakeUserRepo struct{ db *memDB }

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	f := compile(specs)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if f.idOK(u.Id) && (f.externalId == nil || *f.externalId == u.ExternalId) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindOrCreate(ctx context.Context, externalId string, allowance int) (*entity.User, error) {
	if u, _ := r.FindOne(ctx, specification.ByExternalID{ExternalID: externalId}); u != nil {
		return u, nil
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u := &entity.User{Id: uuid.New(), ExternalId: externalId, SessionsRemaining: allowance, CreatedAt: r.db.tick()}
	r.db.users[u.Id] = u
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) DecrementSessions(ctx context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return false, entity.ErrUserNotFound
	}
	if u.SessionsRemaining <= 0 {
		return false, nil
	}
	u.SessionsRemaining--
	return true, nil
}

type fakePersonaRepo struct{ db *memDB }

func (r *fakePersonaRepo) Create(ctx context.Context, p *entity.Persona) error {
	r.db.addPersona(p)
	return nil
}

func (r *fakePersonaRepo) Update(ctx context.Context, p *entity.Persona) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *p
	r.db.personas[p.Id] = &cp
	return nil
}

func (r *fakePersonaRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Persona, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakePersonaRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Persona, error) {
	f := compile(specs)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Persona
	for _, p := range r.db.personas {
		if f.idOK(p.Id) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakePersonaRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakePersonaRepo) ClaimAgentId(ctx context.Context, id uuid.UUID, agentId string) (string, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.personas[id]
	if !ok {
		return "", false, entity.ErrPersonaNotFound
	}
	if p.HasAgent() {
		return p.AgentId(), false, nil
	}
	p.ElevenLabsAgentId = &agentId
	return agentId, true, nil
}

func (r *fakePersonaRepo) SetAgentId(ctx context.Context, id uuid.UUID, agentId string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.personas[id]
	if !ok {
		return entity.ErrPersonaNotFound
	}
	if agentId == "" {
		p.ElevenLabsAgentId = nil
	} else {
		p.ElevenLabsAgentId = &agentId
	}
	return nil
}

func (r *fakePersonaRepo) UpdateCachedPrompt(ctx context.Context, id uuid.UUID, prompt string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.personas[id]
	if !ok {
		return entity.ErrPersonaNotFound
	}
	p.CachedSystemPrompt = &prompt
	return nil
}

type fakeParcelRepo struct{ db *memDB }

func (r *fakeParcelRepo) Create(ctx context.Context, p *entity.Parcel) error {
	r.db.addParcel(p)
	return nil
}

func (r *fakeParcelRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Parcel, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeParcelRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Parcel, error) {
	f := compile(specs)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Parcel
	for _, p := range r.db.parcels {
		if f.idOK(p.Id) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParcelNumber < out[j].ParcelNumber })
	return out, nil
}

func (r *fakeParcelRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeSessionRepo struct{ db *memDB }

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.TrainingSession) error {
	if s.Status == "" {
		s.Status = entity.SessionStatusPending
	}
	r.db.addSession(s)
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TrainingSession, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TrainingSession, error) {
	f := compile(specs)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.TrainingSession
	for _, s := range r.db.sessions {
		if !f.idOK(s.Id) ||
			(f.userId != nil && *f.userId != s.UserId) ||
			(f.personaId != nil && *f.personaId != s.PersonaId) ||
			(f.statuses != nil && !f.statuses[s.Status]) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.newest {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeSessionRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, fields map[string]interface{}) (bool, error) {
	changed, err := from.Transition(to)
	if err != nil || !changed {
		return false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok {
		return false, entity.ErrSessionNotFound
	}
	if s.Status != from {
		if s.Status.IsTerminal() {
			return false, nil
		}
		return false, fmt.Errorf("%w: session is %s, expected %s", entity.ErrInvalidStateTransition, s.Status, from)
	}
	applyFields(s, fields)
	s.Status = to
	s.UpdatedAt = r.db.tick()
	return true, nil
}

func (r *fakeSessionRepo) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok || s.Status.IsTerminal() {
		return false, nil
	}
	s.Status = entity.SessionStatusFailed
	return true, nil
}

func (r *fakeSessionRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok {
		return entity.ErrSessionNotFound
	}
	applyFields(s, fields)
	return nil
}

func (r *fakeSessionRepo) BestScore(ctx context.Context, userId uuid.UUID) (*int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var best *int
	for _, s := range r.db.sessions {
		if s.UserId != userId || s.FeedbackScore == nil {
			continue
		}
		if best == nil || *s.FeedbackScore > *best {
			v := *s.FeedbackScore
			best = &v
		}
	}
	return best, nil
}

func applyFields(s *entity.TrainingSession, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "elevenlabs_session_token":
			str := v.(string)
			s.ElevenLabsSessionToken = &str
		case "elevenlabs_conversation_id":
			str := v.(string)
			s.ElevenLabsConversationId = &str
		case "conversation_transcript":
			str := v.(string)
			s.ConversationTranscript = &str
		case "feedback_text":
			str := v.(string)
			s.FeedbackText = &str
		case "feedback_score":
			n := v.(int)
			s.FeedbackScore = &n
		case "session_duration_in_seconds":
			n := v.(int)
			s.SessionDurationInSeconds = &n
		case "feedback_generated_at":
			t := v.(time.Time)
			s.FeedbackGeneratedAt = &t
		default:
			panic("fake repository: unknown column " + k)
		}
	}
}

type fakeBroker struct {
	mu sync.Mutex

	agentId         string
	ensureErr       *result.Error
	ensureCalls     int
	updateResult    voiceagent.Provisioned
	updateErr       *result.Error
	updateCalls     int
	token           string
	mintErr         *result.Error
	turns           []transcript.Turn
	transcriptErr   *result.Error
	fetchCalls      int
	fetchedIds      []string
	lastParticipant string
	// whileLocked runs where the real broker holds the persona lock.
	whileLocked func()
}

func (b *fakeBroker) Compile(p voiceagent.Persona) persona.AgentConfig {
	return persona.AgentConfig{AgentName: p.Name, SystemPrompt: "You are " + p.Name}
}

func (b *fakeBroker) EnsureAgent(ctx context.Context, p voiceagent.Persona) result.Result[string] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureCalls++
	if p.AgentID != "" {
		return result.Ok(p.AgentID)
	}
	if b.ensureErr != nil {
		return result.Err[string](b.ensureErr.Kind, b.ensureErr.Reason, nil)
	}
	return result.Ok(b.agentId)
}

func (b *fakeBroker) UpdateAgent(ctx context.Context, agentID string, p voiceagent.Persona, opts ...voiceagent.UpdateOption) result.Result[voiceagent.Provisioned] {
	if b.whileLocked != nil {
		b.whileLocked()
	}
	if err := voiceagent.ResolveUpdateOptions(opts...).Precheck(ctx); err != nil {
		return result.Err[voiceagent.Provisioned](result.KindCaller, "update agent: precheck", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateCalls++
	if b.updateErr != nil {
		return result.Err[voiceagent.Provisioned](b.updateErr.Kind, b.updateErr.Reason, nil)
	}
	return result.Ok(b.updateResult)
}

func (b *fakeBroker) MintSessionToken(ctx context.Context, agentID, participant string) result.Result[voiceagent.SessionToken] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastParticipant = participant
	if b.mintErr != nil {
		return result.Err[voiceagent.SessionToken](b.mintErr.Kind, b.mintErr.Reason, nil)
	}
	return result.Ok(voiceagent.SessionToken{Token: b.token, ConversationID: voiceagent.PlaceholderPrefix + "1700000000_abcdef"})
}

func (b *fakeBroker) FetchTranscript(ctx context.Context, conversationID string) result.Result[[]transcript.Turn] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetchCalls++
	b.fetchedIds = append(b.fetchedIds, conversationID)
	if b.transcriptErr != nil {
		return result.Err[[]transcript.Turn](b.transcriptErr.Kind, b.transcriptErr.Reason, nil)
	}
	return result.Ok(b.turns)
}

type fakeEngine struct {
	mu      sync.Mutex
	outcome feedback.Outcome
	err     *result.Error
	panics  bool
	inputs  []feedback.PromptInput
}

func (e *fakeEngine) Generate(ctx context.Context, in feedback.PromptInput) result.Result[feedback.Outcome] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = append(e.inputs, in)
	if e.panics {
		panic("completion client exploded")
	}
	if e.err != nil {
		return result.Err[feedback.Outcome](e.err.Kind, e.err.Reason, nil)
	}
	return result.Ok(e.outcome)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []uuid.UUID
	err       error
	// onPublish observes the store at enqueue time.
	onPublish func(id uuid.UUID)
}

func (p *fakePublisher) PublishFeedbackJob(ctx context.Context, sessionId uuid.UUID) error {
	if p.onPublish != nil {
		p.onPublish(sessionId)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, sessionId)
	return nil
}

type recordingEvents struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingEvents) add(t string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, t)
}

func (r *recordingEvents) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

func (r *recordingEvents) SessionCreated(ctx context.Context, session *entity.TrainingSession) {
	r.add("SESSION_CREATED")
}
func (r *recordingEvents) ConversationStarted(ctx context.Context, session *entity.TrainingSession, agentId string) {
	r.add("CONVERSATION_STARTED")
}
func (r *recordingEvents) FeedbackGenerationStarted(ctx context.Context, sessionId uuid.UUID) {
	r.add("FEEDBACK_GENERATION_STARTED")
}
func (r *recordingEvents) FeedbackGenerated(ctx context.Context, sessionId uuid.UUID, score int, grade string, degraded bool) {
	r.add("FEEDBACK_GENERATED")
}
func (r *recordingEvents) SessionFailed(ctx context.Context, sessionId uuid.UUID, reason string) {
	r.add("SESSION_FAILED")
}
func (r *recordingEvents) PersonaAgentProvisioned(ctx context.Context, personaId uuid.UUID, agentId string, recreated bool) {
	r.add("PERSONA_AGENT_PROVISIONED")
}

func ptr[T any](v T) *T { return &v }

func score(v float64, desc string) persona.Trait {
	return persona.Trait{Score: &v, Description: desc}
}
