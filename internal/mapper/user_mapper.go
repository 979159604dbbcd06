package mapper

import (
	"time"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}

	var updatedAt *time.Time
	if !u.UpdatedAt.IsZero() {
		t := u.UpdatedAt
		updatedAt = &t
	}

	return &entity.User{
		Id:                u.Id,
		ExternalId:        u.ExternalId,
		Email:             u.Email,
		SessionsRemaining: u.SessionsRemaining,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}

	var updatedAt time.Time
	if u.UpdatedAt != nil {
		updatedAt = *u.UpdatedAt
	}

	return &model.User{
		Id:                u.Id,
		ExternalId:        u.ExternalId,
		Email:             u.Email,
		SessionsRemaining: u.SessionsRemaining,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}
