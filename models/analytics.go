package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalyticsEvent is a best-effort usage event. Writes never fail a caller.
type AnalyticsEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Event     string    `gorm:"type:varchar(50);index;not null"`
	SessionID string    `gorm:"type:varchar(80);index"`

	Source     string `gorm:"type:varchar(50)"`
	DeviceType string `gorm:"type:varchar(20)"`
	Payload    datatypes.JSON

	OccurredAt time.Time
	CreatedAt  time.Time
}

func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
