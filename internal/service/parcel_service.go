package service

import (
	"context"

	"acquisition-arena-be/internal/dto"
	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/memory"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IParcelService interface {
	List(ctx context.Context) ([]*dto.ParcelResponse, error)
	Brief(ctx context.Context, id uuid.UUID) (*dto.ParcelBriefResponse, error)
}

type parcelService struct {
	uowFactory unitofwork.RepositoryFactory
	briefs     *memory.BriefCache
}

func NewParcelService(uowFactory unitofwork.RepositoryFactory, briefs *memory.BriefCache) IParcelService {
	return &parcelService{
		uowFactory: uowFactory,
		briefs:     briefs,
	}
}

func (s *parcelService) List(ctx context.Context) ([]*dto.ParcelResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	parcels, err := uow.ParcelRepository().FindAll(ctx, specification.OrderBy{Field: "parcel_number"})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ParcelResponse, 0, len(parcels))
	for _, p := range parcels {
		res = append(res, &dto.ParcelResponse{
			Id:               p.Id,
			ParcelNumber:     p.ParcelNumber,
			City:             p.City,
			State:            p.State,
			Location:         p.Location(),
			PropertyFeatures: p.PropertyFeatures,
			CreatedAt:        p.CreatedAt,
		})
	}
	return res, nil
}

func (s *parcelService) Brief(ctx context.Context, id uuid.UUID) (*dto.ParcelBriefResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	p, err := uow.ParcelRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, entity.ErrParcelNotFound
	}

	return &dto.ParcelBriefResponse{
		ParcelId: p.Id,
		Brief:    cachedBrief(s.briefs, p),
	}, nil
}

// cachedBrief renders the parcel's conversation brief once per cache lifetime.
func cachedBrief(briefs *memory.BriefCache, p *entity.Parcel) string {
	if briefs == nil {
		return p.ConversationBrief()
	}
	if brief, ok := briefs.Get(p.Id); ok {
		return brief
	}
	brief := p.ConversationBrief()
	briefs.Save(p.Id, brief)
	return brief
}
