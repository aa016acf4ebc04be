package market

import "time"

// Session represents a trading session classified by UTC hour
type Session string

const (
	SessionAsian      Session = "asian"
	SessionLondon     Session = "london"
	SessionNewYork    Session = "new_york"
	SessionOverlap    Session = "london_ny_overlap"
	SessionAfterHours Session = "after_hours"
)

// ClassifySession maps a candle timestamp to its trading session.
// Classification is driven by the candle's own timestamp, never the wall
// clock, so repeated evaluations of the same data stay deterministic.
func ClassifySession(t time.Time) Session {
	hour := t.UTC().Hour()

	switch {
	case hour >= 0 && hour < 7:
		return SessionAsian
	case hour >= 7 && hour < 12:
		return SessionLondon
	case hour >= 12 && hour < 16:
		return SessionOverlap
	case hour >= 16 && hour < 21:
		return SessionNewYork
	default:
		return SessionAfterHours
	}
}

// IsPeakLiquidity reports whether the session is independently classified
// as peak liquidity. The confidence scorer uses this to suppress low-volume
// penalties that would contradict a peak-session bonus.
func (s Session) IsPeakLiquidity() bool {
	return s == SessionOverlap || s == SessionLondon
}
