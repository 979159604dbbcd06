package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is created lazily from the identity provider's subject claim.
type User struct {
	Id                uuid.UUID
	ExternalId        string
	Email             string
	SessionsRemaining int
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}
