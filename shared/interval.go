package shared

import "time"

const (
	// DateLayout is the format layout for parsing dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Interval represents the market data sampling period.
type Interval int

const (
	FiveMinute Interval = iota
	OneHour
)

// String stringifies the provided interval.
func (i *Interval) String() string {
	switch *i {
	case FiveMinute:
		return "5m"
	case OneHour:
		return "1H"
	default:
		return "unknown"
	}
}

// Duration returns the length of the provided interval.
func (i *Interval) Duration() time.Duration {
	switch *i {
	case FiveMinute:
		return time.Minute * 5
	case OneHour:
		return time.Hour
	default:
		return 0
	}
}

// ParseInterval parses an interval from the provided string.
func ParseInterval(interval string) (Interval, bool) {
	switch interval {
	case "5m":
		return FiveMinute, true
	case "1H":
		return OneHour, true
	default:
		return 0, false
	}
}

// UTCTime returns the current time in utc.
func UTCTime() time.Time {
	return time.Now().UTC()
}
