package contract

import (
	"context"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	// FindOrCreate returns the user for an identity-provider subject, creating
	// it with the given allowance on first sight.
	FindOrCreate(ctx context.Context, externalId string, allowance int) (*entity.User, error)
	// DecrementSessions consumes one session; false means none were left.
	DecrementSessions(ctx context.Context, id uuid.UUID) (bool, error)
}
