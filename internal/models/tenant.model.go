package models

import (
	"gorm.io/gorm"
)

type Tenant struct {
	BaseUUIDModel
	FullName string `gorm:"type:text;not null"        json:"fullName"`
	Email    string `gorm:"type:text;not null;index"  json:"email"`
	Phone    string `gorm:"type:text"                 json:"phone"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) (err error) {
	if err := t.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if t.FullName == "" || t.Email == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
