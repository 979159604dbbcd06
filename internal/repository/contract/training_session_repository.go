package contract

import (
	"context"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TrainingSessionRepository interface {
	Create(ctx context.Context, session *entity.TrainingSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TrainingSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TrainingSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// TransitionStatus moves a session from -> to together with fields, as a
	// compare-and-set on the current status. changed=false with a nil error
	// means the session was already terminal.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, fields map[string]interface{}) (changed bool, err error)
	// MarkFailed moves any non-terminal session to failed.
	MarkFailed(ctx context.Context, id uuid.UUID) (changed bool, err error)
	// UpdateFields writes columns without touching status.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	BestScore(ctx context.Context, userId uuid.UUID) (*int, error)
}
