package specification

import (
	"acquisition-arena-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByPersonaID struct {
	PersonaID uuid.UUID
}

func (s ByPersonaID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("persona_id = ?", s.PersonaID)
}

type ByStatus struct {
	Statuses []entity.SessionStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

func WithStatus(statuses ...entity.SessionStatus) Specification {
	return ByStatus{Statuses: statuses}
}

// NewestFirst orders sessions for history listings.
func NewestFirst() Specification {
	return OrderBy{Field: "created_at", Desc: true}
}
