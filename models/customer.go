package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lead status lifecycle values.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusQuoted    = "quoted"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

// Lead priority values, recomputed on every write from quote totals and
// engagement signals. Never set directly by callers.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Customer is a lead, keyed by lowercased email. Created on first
// occurrence of the email; later writes update in place.
type Customer struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`

	Name    string `gorm:"not null"`
	Email   string `gorm:"uniqueIndex;not null"`
	Phone   string
	Address string
	Notes   string

	LeadStatus   string     `gorm:"type:varchar(20);default:'new'"`
	LeadPriority string     `gorm:"type:varchar(10);default:'low'"`
	FollowUpAt   *time.Time `gorm:"index"`
	Tags         datatypes.JSON

	Source     string `gorm:"type:varchar(50)"`
	DeviceType string `gorm:"type:varchar(20)"`
	SessionID  string `gorm:"type:varchar(80);index"`

	QuoteCount     int     `gorm:"default:0"`
	LastQuoteTotal float64 `gorm:"type:decimal(10,2);default:0.0"`
	HasAIAnalysis  bool    `gorm:"default:false"`

	Quotes []QuoteRecord `gorm:"foreignKey:CustomerID"`

	gorm.Model
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
