package specification

import "gorm.io/gorm"

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

type ByParcelNumber struct {
	ParcelNumber string
}

func (s ByParcelNumber) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("parcel_number = ?", s.ParcelNumber)
}
