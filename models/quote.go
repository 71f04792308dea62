package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuoteRecord persists one priced quote. Lines are append-only; the only
// update ever applied is attaching an explanation.
type QuoteRecord struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
	SessionID  string     `gorm:"type:varchar(80);index"`

	QuoteNumber string    `gorm:"uniqueIndex;not null"`
	QuoteDate   time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	ValidUntil  time.Time

	Subtotal       float64 `gorm:"type:decimal(10,2);not null"`
	TotalLabor     float64 `gorm:"type:decimal(10,2);default:0.0"`
	TotalTax       float64 `gorm:"type:decimal(10,2);default:0.0"`
	GrandTotal     float64 `gorm:"type:decimal(10,2);not null"`
	FinalTotal     float64 `gorm:"type:decimal(10,2);not null"`
	MinimumApplied bool    `gorm:"default:false"`

	PricingDetails       datatypes.JSON
	WindowSpecifications datatypes.JSON

	QuoteExplanation     string `gorm:"type:text"`
	ExplanationGenerated bool   `gorm:"default:false"`

	Source     string `gorm:"type:varchar(50)"`
	DeviceType string `gorm:"type:varchar(20)"`
	Notes      string

	Lines []QuoteLineRecord `gorm:"foreignKey:QuoteID"`
}

func (q *QuoteRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return
}

// QuoteLineRecord is the priced result for one window spec.
type QuoteLineRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	QuoteID uuid.UUID `gorm:"type:uuid;index;not null"`

	Position   int     `gorm:"not null"`
	Width      float64 `gorm:"not null"`
	Height     float64 `gorm:"not null"`
	Quantity   int     `gorm:"default:1"`
	WindowType string  `gorm:"type:varchar(30);not null"`
	Material   string  `gorm:"type:varchar(30);not null"`
	Brand      string  `gorm:"type:varchar(50)"`
	Options    datatypes.JSON

	UniversalInches    float64 `gorm:"not null"`
	MaterialMultiplier float64 `gorm:"default:1.0"`
	TypeMultiplier     float64 `gorm:"default:1.0"`
	BrandMultiplier    float64 `gorm:"default:1.0"`

	UnitPrice   float64 `gorm:"type:decimal(10,2);not null"`
	Subtotal    float64 `gorm:"type:decimal(10,2);not null"`
	LaborCost   float64 `gorm:"type:decimal(10,2);default:0.0"`
	OptionsCost float64 `gorm:"type:decimal(10,2);default:0.0"`
	TaxAmount   float64 `gorm:"type:decimal(10,2);default:0.0"`
	TotalPrice  float64 `gorm:"type:decimal(10,2);not null"`
}

func (l *QuoteLineRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
