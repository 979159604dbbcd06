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
	"gorm.io/gorm/clause"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var m model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// FindOrCreate inserts with ON CONFLICT DO NOTHING so two first requests
// from the same subject converge on one row.
func (r *UserRepositoryImpl) FindOrCreate(ctx context.Context, externalId string, allowance int) (*entity.User, error) {
	m := &model.User{ExternalId: externalId, SessionsRemaining: allowance}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return nil, err
	}

	user, err := r.FindOne(ctx, specification.ByExternalID{ExternalID: externalId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entity.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepositoryImpl) DecrementSessions(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND sessions_remaining > 0", id).
		Update("sessions_remaining", gorm.Expr("sessions_remaining - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
