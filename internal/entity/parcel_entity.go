package entity

import (
	"time"

	"acquisition-arena-be/pkg/parcel"

	"github.com/google/uuid"
)

type Parcel struct {
	Id               uuid.UUID
	ParcelNumber     string
	City             string
	State            string
	PropertyFeatures parcel.Features
	CreatedAt        time.Time
}

func (p *Parcel) Location() string {
	return p.City + ", " + p.State
}

// ConversationBrief is the dynamic-variable text handed to the voice agent.
func (p *Parcel) ConversationBrief() string {
	return parcel.Brief(p.City, p.State, p.ParcelNumber, p.PropertyFeatures)
}
