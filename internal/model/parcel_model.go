package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Parcel struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ParcelNumber     string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	City             string         `gorm:"type:varchar(255);not null"`
	State            string         `gorm:"type:varchar(100);not null"`
	PropertyFeatures datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
}

func (Parcel) TableName() string {
	return "parcels"
}
