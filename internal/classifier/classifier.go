// Package classifier turns a pattern summary into a signal using additive,
// tiered heuristics.
package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"aviatorpro/internal/models"
)

const (
	RangeStrongHigh = "3.5x - 8x"
	RangeHigh       = "2.5x - 6x"
	RangeNormal     = "2x - 4x"
	RangeAvoid      = "Evitar apostas"

	ReasonCautionFallback = "irregular pattern, wait."
	ReasonNormalFallback  = "normal game behavior."

	DefaultTTL = 60 * time.Minute
)

var (
	strongThreshold  = decimal.RequireFromString("0.65")
	waitThreshold    = decimal.RequireFromString("0.40")
	cautionThreshold = decimal.RequireFromString("0.20")
	confidenceCap    = decimal.RequireFromString("0.95")
	lowShareTrigger  = decimal.RequireFromString("0.65")
	lowShareDelta    = decimal.RequireFromString("0.15")
	hundred          = decimal.NewFromInt(100)
)

// tier is one rung of a mutually exclusive rule group. Tiers are listed
// strongest first; only the first match in a group contributes.
type tier struct {
	min    int
	delta  decimal.Decimal
	format string
}

var streakTiers = []tier{
	{15, decimal.RequireFromString("0.35"), "%d consecutive low candles"},
	{10, decimal.RequireFromString("0.25"), "%d low candles in a row"},
	{7, decimal.RequireFromString("0.15"), "%d recent low candles"},
}

var silenceTiers = []tier{
	{60, decimal.RequireFromString("0.30"), "%dmin without a high candle (≥5x)"},
	{45, decimal.RequireFromString("0.20"), "%dmin without a high candle"},
	{30, decimal.RequireFromString("0.10"), "%dmin without a high candle"},
}

type avgTier struct {
	below  decimal.Decimal
	delta  decimal.Decimal
	format string
}

var averageTiers = []avgTier{
	{decimal.RequireFromString("1.7"), decimal.RequireFromString("0.20"), "very low average (%sx)"},
	{decimal.RequireFromString("1.9"), decimal.RequireFromString("0.10"), "below-normal average (%sx)"},
}

// Score is the uncapped confidence with the fragments that produced it.
type Score struct {
	Total   decimal.Decimal
	Reasons []string
}

// Evaluate applies every rule group to s.
func Evaluate(s models.PatternSummary) Score {
	var out Score
	add := func(delta decimal.Decimal, reason string) {
		out.Total = out.Total.Add(delta)
		out.Reasons = append(out.Reasons, reason)
	}

	for _, t := range streakTiers {
		if s.LowStreak >= t.min {
			add(t.delta, fmt.Sprintf(t.format, s.LowStreak))
			break
		}
	}
	for _, t := range silenceTiers {
		if s.MinutesSinceHigh >= t.min {
			add(t.delta, fmt.Sprintf(t.format, s.MinutesSinceHigh))
			break
		}
	}
	avg := decimal.NewFromFloat(s.AvgMultiplier)
	for _, t := range averageTiers {
		if avg.LessThan(t.below) {
			add(t.delta, fmt.Sprintf(t.format, avg.String()))
			break
		}
	}
	if s.TotalRounds > 0 {
		share := decimal.NewFromInt(int64(s.Distribution.Low)).Div(decimal.NewFromInt(int64(s.TotalRounds)))
		if share.GreaterThan(lowShareTrigger) {
			add(lowShareDelta, share.Mul(hundred).Round(0).String()+"% are low candles")
		}
	}
	return out
}

// Bucket maps an uncapped confidence to a prediction and suggested range.
func Bucket(total decimal.Decimal) (models.PredictionType, string) {
	switch {
	case total.GreaterThanOrEqual(strongThreshold):
		return models.PredictionWaitHigh, RangeStrongHigh
	case total.GreaterThanOrEqual(waitThreshold):
		return models.PredictionWaitHigh, RangeHigh
	case total.LessThan(cautionThreshold):
		return models.PredictionCaution, RangeAvoid
	default:
		return models.PredictionNormal, RangeNormal
	}
}

// Cap clamps the stored confidence and rounds it to two places.
func Cap(total decimal.Decimal) float64 {
	if total.GreaterThan(confidenceCap) {
		total = confidenceCap
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Classifier builds unpersisted signals. The zero value uses DefaultTTL.
type Classifier struct {
	TTL time.Duration
}

func (c Classifier) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

// Classify scores s and returns a fresh active signal for platform.
func (c Classifier) Classify(platform string, s models.PatternSummary, now time.Time) models.Signal {
	score := Evaluate(s)
	kind, suggested := Bucket(score.Total)

	reasons := score.Reasons
	if len(reasons) == 0 {
		switch kind {
		case models.PredictionCaution:
			reasons = []string{ReasonCautionFallback}
		case models.PredictionNormal:
			reasons = []string{ReasonNormalFallback}
		}
	}

	return models.Signal{
		CreatedAt:      now,
		Platform:       platform,
		PredictionType: kind,
		Confidence:     Cap(score.Total),
		SuggestedRange: suggested,
		Reason:         strings.Join(reasons, ", "),
		AnalysisData:   datatypes.NewJSONType(s),
		ExpiresAt:      now.Add(c.ttl()),
		IsActive:       true,
	}
}

// Classify uses the default TTL.
func Classify(platform string, s models.PatternSummary, now time.Time) models.Signal {
	return Classifier{}.Classify(platform, s, now)
}
