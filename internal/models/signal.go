package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PredictionType string

const (
	PredictionWaitHigh PredictionType = "WAIT_HIGH"
	PredictionNormal   PredictionType = "NORMAL"
	PredictionCaution  PredictionType = "CAUTION"
	// PredictionIAMath is reserved; the classifier never emits it.
	PredictionIAMath PredictionType = "IA_MATH"
)

// Signal is a time-boxed classification for one platform. Written once,
// never updated. At most one row exists per (platform, window_start).
type Signal struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;index:idx_signals_platform_created,priority:2" json:"created_at"`

	Platform       string         `gorm:"type:varchar(50);not null;uniqueIndex:uniq_signals_platform_window,priority:1;index:idx_signals_platform_created,priority:1" json:"platform"`
	PredictionType PredictionType `gorm:"type:varchar(20);not null" json:"prediction_type"`
	Confidence     float64        `gorm:"type:numeric(4,2);not null" json:"confidence"`
	SuggestedRange string         `gorm:"type:varchar(40);not null" json:"suggested_range"`
	Reason         string         `gorm:"type:text;not null" json:"reason"`

	AnalysisData datatypes.JSONType[PatternSummary] `gorm:"type:jsonb" json:"analysis_data"`

	ExpiresAt   time.Time `gorm:"type:timestamptz;not null;index" json:"expires_at"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	WindowStart time.Time `gorm:"type:timestamptz;not null;uniqueIndex:uniq_signals_platform_window,priority:2" json:"window_start"`
}

func (Signal) TableName() string {
	return "signals"
}

func (s *Signal) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Summary returns the embedded analysis.
func (s Signal) Summary() PatternSummary {
	return s.AnalysisData.Data()
}

// Persisted reports whether the signal was durably stored.
func (s Signal) Persisted() bool {
	return s.ID != ""
}
