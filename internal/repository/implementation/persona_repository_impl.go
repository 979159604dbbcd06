package implementation

import (
	"context"
	"errors"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/mapper"
	"acquisition-arena-be/internal/model"
	"acquisition-arena-be/internal/repository/contract"
	"acquisition-arena-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PersonaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PersonaMapper
}

func NewPersonaRepository(db *gorm.DB) contract.PersonaRepository {
	return &PersonaRepositoryImpl{
		db:     db,
		mapper: mapper.NewPersonaMapper(),
	}
}

func (r *PersonaRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PersonaRepositoryImpl) Create(ctx context.Context, persona *entity.Persona) error {
	m := r.mapper.ToModel(persona)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*persona = *r.mapper.ToEntity(m)
	return nil
}

// Update rewrites descriptive fields only. The agent id has its own
// guarded writers below.
func (r *PersonaRepositoryImpl) Update(ctx context.Context, persona *entity.Persona) error {
	m := r.mapper.ToModel(persona)
	return r.db.WithContext(ctx).Model(&model.Persona{}).
		Where("id = ?", persona.Id).
		Select("name", "description", "characteristics", "characteristics_version", "elevenlabs_voice_id", "cached_system_prompt").
		Updates(m).Error
}

func (r *PersonaRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Persona, error) {
	var m model.Persona
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PersonaRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Persona, error) {
	var models []*model.Persona
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PersonaRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Persona{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimAgentId writes agentId only while the persona has none. Losing to a
// concurrent writer (0 rows, or the unique index firing) rereads the winner.
func (r *PersonaRepositoryImpl) ClaimAgentId(ctx context.Context, id uuid.UUID, agentId string) (string, bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Persona{}).
		Where("id = ? AND (elevenlabs_agent_id IS NULL OR elevenlabs_agent_id = '')", id).
		Update("elevenlabs_agent_id", agentId)

	if res.Error != nil && !isUniqueViolation(res.Error) {
		return "", false, res.Error
	}
	if res.Error == nil && res.RowsAffected == 1 {
		return agentId, true, nil
	}

	current, err := r.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return "", false, err
	}
	if current == nil {
		return "", false, entity.ErrPersonaNotFound
	}
	return current.AgentId(), false, nil
}

func (r *PersonaRepositoryImpl) SetAgentId(ctx context.Context, id uuid.UUID, agentId string) error {
	var value interface{}
	if agentId != "" {
		value = agentId
	}
	return r.db.WithContext(ctx).Model(&model.Persona{}).
		Where("id = ?", id).
		Update("elevenlabs_agent_id", value).Error
}

func (r *PersonaRepositoryImpl) UpdateCachedPrompt(ctx context.Context, id uuid.UUID, prompt string) error {
	return r.db.WithContext(ctx).Model(&model.Persona{}).
		Where("id = ?", id).
		Update("cached_system_prompt", prompt).Error
}
