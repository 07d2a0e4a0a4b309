package signal

import (
	"time"
)

// Gate decides which platform is live. The even-hour platform owns every
// even hour of the day in Loc, the odd-hour platform the rest.
type Gate struct {
	EvenHour string
	OddHour  string
	Loc      *time.Location
}

func (g Gate) location() *time.Location {
	if g.Loc == nil {
		return time.UTC
	}
	return g.Loc
}

// ActivePlatform returns the platform whose window contains t.
func (g Gate) ActivePlatform(t time.Time) string {
	if t.In(g.location()).Hour()%2 == 0 {
		return g.EvenHour
	}
	return g.OddHour
}

// IsPlatformWindowActive reports whether platform is live at t. Unknown
// platforms are never live.
func (g Gate) IsPlatformWindowActive(platform string, t time.Time) bool {
	if platform == "" {
		return false
	}
	return g.ActivePlatform(t) == platform
}

// NextSwitch returns the start of the hour after t in the gate timezone,
// which is when the active platform flips.
func (g Gate) NextSwitch(t time.Time) time.Time {
	return HourStart(t, g.location()).Add(time.Hour)
}

// HourStart truncates t to the start of its calendar hour in loc. It steps
// back from t instead of rebuilding the wall clock, so the repeated hour at
// a DST fall-back gets its own start.
func HourStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return lt.Add(-time.Duration(lt.Minute())*time.Minute -
		time.Duration(lt.Second())*time.Second -
		time.Duration(lt.Nanosecond()))
}
