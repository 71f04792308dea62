package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Material is a frame material with its pricing multiplier.
type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Multiplier  float64   `gorm:"default:1.0"`
	Description string
	IsActive    bool `gorm:"default:true"`

	gorm.Model
}

func (m *Material) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// WindowType is a window style with pricing and labor multipliers.
// Brand compatibility is a flat set of names, resolved by lookup.
type WindowType struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	Name             string    `gorm:"uniqueIndex;not null"`
	Multiplier       float64   `gorm:"default:1.0"`
	LaborComplexity  float64   `gorm:"default:1.0"`
	CompatibleBrands datatypes.JSON
	IsActive         bool `gorm:"default:true"`

	gorm.Model
}

func (w *WindowType) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// WindowBrand is a manufacturer with its pricing multiplier.
type WindowBrand struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	Name            string    `gorm:"uniqueIndex;not null"`
	Multiplier      float64   `gorm:"default:1.0"`
	Tier            string    `gorm:"type:varchar(20)"`
	CompatibleTypes datatypes.JSON
	IsActive        bool `gorm:"default:true"`

	gorm.Model
}

func (b *WindowBrand) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// WindowOption is an add-on with a flat per-unit price. Option prices are
// additive and carry no multipliers.
type WindowOption struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Price       float64   `gorm:"type:decimal(10,2);not null"`
	Description string
	IsActive    bool `gorm:"default:true"`

	gorm.Model
}

func (o *WindowOption) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

// PricingConfigRow holds the active pricing configuration. The most
// recently updated active row wins.
type PricingConfigRow struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`

	PricePerUI        float64 `gorm:"type:decimal(10,4);not null"`
	SalesMarkup       float64 `gorm:"type:decimal(6,4);default:1.0"`
	InstallationRate  float64 `gorm:"type:decimal(6,4);default:0.0"`
	TaxRate           float64 `gorm:"type:decimal(6,4);default:0.0"`
	HiddenMarkup      float64 `gorm:"type:decimal(6,4);default:1.0"`
	ApplyHiddenMarkup bool    `gorm:"default:false"`
	LaborBaseRate     float64 `gorm:"type:decimal(10,2);default:0.0"`
	MinimumOrderValue float64 `gorm:"type:decimal(10,2);default:0.0"`
	IsActive          bool    `gorm:"default:true"`

	gorm.Model
}

func (p *PricingConfigRow) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
