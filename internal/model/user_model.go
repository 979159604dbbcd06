package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalId        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Email             string    `gorm:"type:varchar(255)"`
	SessionsRemaining int       `gorm:"not null;default:5"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
