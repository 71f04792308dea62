// models/followup.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FollowUpLog records one follow-up dispatch attempt for a customer.
type FollowUpLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	Channel    string    `gorm:"type:varchar(20)"` // email, sms
	Template   string    `gorm:"type:varchar(50)"`
	Status     string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMsg   string    `gorm:"type:text"`
	SentAt     time.Time
	gorm.Model
}

func (f *FollowUpLog) BeforeCreate(tx *gorm.DB) (err error) {
	f.ID = uuid.New()
	return
}
