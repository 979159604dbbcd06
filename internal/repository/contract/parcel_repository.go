package contract

import (
	"context"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/specification"
)

type ParcelRepository interface {
	Create(ctx context.Context, parcel *entity.Parcel) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Parcel, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Parcel, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
