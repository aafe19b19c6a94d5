package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseUUIDModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime"      json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"      json:"updatedAt"`
	DeletedAt gorm.DeletedAt `                           json:"deletedAt"`
}

// AuditTargetID lets freshly created records identify themselves to the
// audit trail.
func (m *BaseUUIDModel) AuditTargetID() uuid.UUID {
	return m.ID
}

func (m *BaseUUIDModel) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return err
}
