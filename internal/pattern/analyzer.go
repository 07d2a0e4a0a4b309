// Package pattern reduces a window of rounds into the statistics the
// classifier scores.
package pattern

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"aviatorpro/internal/models"
)

const (
	// LowThreshold separates low rounds from the rest.
	LowThreshold = 2.0
	// HighThreshold marks a high round.
	HighThreshold = 5.0

	veryHighThreshold = 10.0
	bucketFloor       = 1.0
)

// Analyze summarizes events, which must be ordered newest first. It never
// fails: an empty window yields zero counts and the unknown sentinel.
func Analyze(events []models.OutcomeEvent, now time.Time) models.PatternSummary {
	out := models.PatternSummary{
		MinutesSinceHigh: models.MinutesSinceHighUnknown,
		TotalRounds:      len(events),
	}

	for _, ev := range events {
		if ev.Multiplier >= LowThreshold {
			break
		}
		out.LowStreak++
	}

	var (
		sum       float64
		foundHigh bool
	)
	for _, ev := range events {
		m := ev.Multiplier
		sum += m
		bucket(&out.Distribution, m)

		if foundHigh || m < HighThreshold {
			continue
		}
		foundHigh = true
		mult := m
		out.LastHighMultiplier = &mult
		if ev.RoundTime.IsZero() {
			continue
		}
		ts := ev.RoundTime
		out.LastHighTime = &ts
		out.MinutesSinceHigh = minutesSince(now, ts)
	}

	if len(events) > 0 {
		out.AvgMultiplier = round2(sum / float64(len(events)))
	}
	return out
}

// bucket counts m into its band. Values below 1.0 are left uncounted.
func bucket(d *models.Distribution, m float64) {
	switch {
	case m >= veryHighThreshold:
		d.VeryHigh++
	case m >= HighThreshold:
		d.High++
	case m >= LowThreshold:
		d.Medium++
	case m >= bucketFloor:
		d.Low++
	}
}

func minutesSince(now, ts time.Time) int {
	mins := math.Floor(now.Sub(ts).Minutes())
	if mins < 0 || math.IsNaN(mins) {
		return 0
	}
	if mins > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(mins)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
