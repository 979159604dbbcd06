package mapper

import (
	"encoding/json"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/model"
	"acquisition-arena-be/pkg/parcel"

	"gorm.io/datatypes"
)

type ParcelMapper struct{}

func NewParcelMapper() *ParcelMapper {
	return &ParcelMapper{}
}

func (m *ParcelMapper) ToEntity(p *model.Parcel) *entity.Parcel {
	if p == nil {
		return nil
	}

	features := parcel.Features{}
	if len(p.PropertyFeatures) > 0 {
		_ = json.Unmarshal(p.PropertyFeatures, &features)
	}

	return &entity.Parcel{
		Id:               p.Id,
		ParcelNumber:     p.ParcelNumber,
		City:             p.City,
		State:            p.State,
		PropertyFeatures: features,
		CreatedAt:        p.CreatedAt,
	}
}

func (m *ParcelMapper) ToModel(p *entity.Parcel) *model.Parcel {
	if p == nil {
		return nil
	}

	raw, err := json.Marshal(p.PropertyFeatures)
	if err != nil || p.PropertyFeatures == nil {
		raw = []byte("{}")
	}

	return &model.Parcel{
		Id:               p.Id,
		ParcelNumber:     p.ParcelNumber,
		City:             p.City,
		State:            p.State,
		PropertyFeatures: datatypes.JSON(raw),
		CreatedAt:        p.CreatedAt,
	}
}

func (m *ParcelMapper) ToEntities(parcels []*model.Parcel) []*entity.Parcel {
	entities := make([]*entity.Parcel, len(parcels))
	for i, p := range parcels {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
