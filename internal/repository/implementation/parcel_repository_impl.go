package implementation

import (
	"context"
	"errors"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/mapper"
	"acquisition-arena-be/internal/model"
	"acquisition-arena-be/internal/repository/contract"
	"acquisition-arena-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ParcelRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ParcelMapper
}

func NewParcelRepository(db *gorm.DB) contract.ParcelRepository {
	return &ParcelRepositoryImpl{
		db:     db,
		mapper: mapper.NewParcelMapper(),
	}
}

func (r *ParcelRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ParcelRepositoryImpl) Create(ctx context.Context, parcel *entity.Parcel) error {
	m := r.mapper.ToModel(parcel)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*parcel = *r.mapper.ToEntity(m)
	return nil
}

func (r *ParcelRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Parcel, error) {
	var m model.Parcel
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ParcelRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Parcel, error) {
	var models []*model.Parcel
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ParcelRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Parcel{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
