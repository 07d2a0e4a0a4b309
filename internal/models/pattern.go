package models

import "time"

// MinutesSinceHighUnknown is reported when the window has no high round or
// its timestamp is missing.
const MinutesSinceHighUnknown = 999

// Distribution counts rounds per multiplier band.
type Distribution struct {
	Low      int `json:"1-2x"`
	Medium   int `json:"2-5x"`
	High     int `json:"5-10x"`
	VeryHigh int `json:"10x+"`
}

func (d Distribution) Total() int {
	return d.Low + d.Medium + d.High + d.VeryHigh
}

// PatternSummary is the reduced view of an outcome window.
type PatternSummary struct {
	LowStreak          int          `json:"low_streak"`
	MinutesSinceHigh   int          `json:"minutes_since_high"`
	AvgMultiplier      float64      `json:"avg_multiplier"`
	Distribution       Distribution `json:"distribution"`
	TotalRounds        int          `json:"total_rounds"`
	LastHighMultiplier *float64     `json:"last_high_multiplier,omitempty"`
	LastHighTime       *time.Time   `json:"last_high_time,omitempty"`
}
