package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisResult persists one vision call for a session.
type AnalysisResult struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	SessionID string    `gorm:"type:varchar(80);index;not null"`

	ImageDigest string `gorm:"type:varchar(64)"`

	DetectedType    string  `gorm:"type:varchar(30)"`
	Material        string  `gorm:"type:varchar(30)"`
	Condition       string  `gorm:"type:varchar(30)"`
	EstimatedWidth  float64
	EstimatedHeight float64
	Confidence      float64
	Recommendations datatypes.JSON

	QualityScore float64

	Source     string `gorm:"type:varchar(50)"`
	DeviceType string `gorm:"type:varchar(20)"`
	AnalyzedAt time.Time

	gorm.Model
}

func (a *AnalysisResult) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
