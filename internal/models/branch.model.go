package models

import (
	"gorm.io/gorm"
)

type Branch struct {
	BaseUUIDModel
	Name    string `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Address string `gorm:"type:text"                      json:"address"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) (err error) {
	if err := b.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if b.Name == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
