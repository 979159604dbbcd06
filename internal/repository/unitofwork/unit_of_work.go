package unitofwork

import (
	"context"

	"acquisition-arena-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PersonaRepository() contract.PersonaRepository
	ParcelRepository() contract.ParcelRepository
	TrainingSessionRepository() contract.TrainingSessionRepository
}
