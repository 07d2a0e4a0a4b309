package models

import (
	"errors"
	"math"
	"time"
)

var (
	ErrOutcomeMissingMultiplier = errors.New("outcome multiplier missing")
	ErrOutcomeInvalidMultiplier = errors.New("outcome multiplier not a finite positive number")
	ErrOutcomeMissingPlatform   = errors.New("outcome platform missing")
)

// OutcomeRow is one round as written by the feed. Columns are nullable
// because upstream writers are not trusted.
type OutcomeRow struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Platform   string     `gorm:"type:varchar(50);not null;uniqueIndex:uniq_outcome_platform_round,priority:1;index:idx_outcome_platform_time,priority:1" json:"platform"`
	Multiplier *float64   `gorm:"type:double precision" json:"multiplier"`
	RoundTime  *time.Time `gorm:"type:timestamptz;uniqueIndex:uniq_outcome_platform_round,priority:2;index:idx_outcome_platform_time,priority:2,sort:desc" json:"round_time"`
	IngestedAt time.Time  `gorm:"type:timestamptz;autoCreateTime" json:"ingested_at"`
}

func (OutcomeRow) TableName() string {
	return "outcome_events"
}

// OutcomeEvent is a validated round. A zero RoundTime means the stored
// timestamp was missing.
type OutcomeEvent struct {
	Platform   string    `json:"platform"`
	Multiplier float64   `json:"multiplier"`
	RoundTime  time.Time `json:"round_time"`
}

// Event validates the row. Rows without a usable multiplier are rejected;
// a missing timestamp is tolerated.
func (r OutcomeRow) Event() (OutcomeEvent, error) {
	if r.Platform == "" {
		return OutcomeEvent{}, ErrOutcomeMissingPlatform
	}
	if r.Multiplier == nil {
		return OutcomeEvent{}, ErrOutcomeMissingMultiplier
	}
	m := *r.Multiplier
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return OutcomeEvent{}, ErrOutcomeInvalidMultiplier
	}
	ev := OutcomeEvent{Platform: r.Platform, Multiplier: m}
	if r.RoundTime != nil {
		ev.RoundTime = *r.RoundTime
	}
	return ev, nil
}
