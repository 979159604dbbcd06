package implementation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/mapper"
	"acquisition-arena-be/internal/model"
	"acquisition-arena-be/internal/repository/contract"
	"acquisition-arena-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainingSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TrainingSessionMapper
}

func NewTrainingSessionRepository(db *gorm.DB) contract.TrainingSessionRepository {
	return &TrainingSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTrainingSessionMapper(),
	}
}

func (r *TrainingSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TrainingSessionRepositoryImpl) Create(ctx context.Context, session *entity.TrainingSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Omit("User", "Persona", "Parcel").Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *TrainingSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TrainingSession, error) {
	var m model.TrainingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TrainingSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TrainingSession, error) {
	var models []*model.TrainingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TrainingSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TrainingSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TrainingSessionRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, fields map[string]interface{}) (bool, error) {
	changed, err := from.Transition(to)
	if err != nil || !changed {
		return false, err
	}

	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = string(to)

	res := r.db.WithContext(ctx).Model(&model.TrainingSession{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// Lost the compare-and-set: decide from the row as it is now.
	current, err := r.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, entity.ErrSessionNotFound
	}
	if current.Status.IsTerminal() {
		return false, nil
	}
	return false, fmt.Errorf("%w: session is %s, expected %s", entity.ErrInvalidStateTransition, current.Status, from)
}

func (r *TrainingSessionRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	failable := make([]string, len(entity.FailableStatuses))
	for i, s := range entity.FailableStatuses {
		failable[i] = string(s)
	}

	res := r.db.WithContext(ctx).Model(&model.TrainingSession{}).
		Where("id = ? AND status IN ?", id, failable).
		Update("status", string(entity.SessionStatusFailed))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TrainingSessionRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if _, ok := fields["status"]; ok {
		return fmt.Errorf("status must change through TransitionStatus")
	}
	return r.db.WithContext(ctx).Model(&model.TrainingSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *TrainingSessionRepositoryImpl) BestScore(ctx context.Context, userId uuid.UUID) (*int, error) {
	var best sql.NullInt64
	err := r.db.WithContext(ctx).Model(&model.TrainingSession{}).
		Where("user_id = ? AND feedback_score IS NOT NULL", userId).
		Select("MAX(feedback_score)").
		Row().Scan(&best)
	if err != nil {
		return nil, err
	}
	if !best.Valid {
		return nil, nil
	}
	score := int(best.Int64)
	return &score, nil
}
