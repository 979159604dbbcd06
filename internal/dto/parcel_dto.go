package dto

import (
	"time"

	"github.com/google/uuid"
)

type ParcelResponse struct {
	Id               uuid.UUID      `json:"id"`
	ParcelNumber     string         `json:"parcel_number"`
	City             string         `json:"city"`
	State            string         `json:"state"`
	Location         string         `json:"location"`
	PropertyFeatures map[string]any `json:"property_features"`
	CreatedAt        time.Time      `json:"created_at"`
}

type ParcelBriefResponse struct {
	ParcelId uuid.UUID `json:"parcel_id"`
	Brief    string    `json:"brief"`
}
