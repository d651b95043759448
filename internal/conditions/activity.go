package conditions

import "time"

// Activity is how busy the streets are likely to be.
type Activity string

const (
	ActivityHigh     Activity = "High"
	ActivityModerate Activity = "Moderate"
	ActivityLow      Activity = "Low"
)

// IsWeekend reports whether evenings on this weekday count as weekend
// nights. Sunday, Friday and Saturday do; Thursday does not.
func IsWeekend(day time.Weekday) bool {
	return day == time.Sunday || day == time.Friday || day == time.Saturday
}

// StreetActivity returns the activity bucket for an hour of the day.
func StreetActivity(hour int, day time.Weekday) Activity {
	weekend := IsWeekend(day)
	switch {
	case hour >= 17 && hour < 19:
		return ActivityHigh
	case hour >= 19 && hour < 21:
		if weekend {
			return ActivityHigh
		}
		return ActivityModerate
	case hour >= 21 && hour < 23:
		if weekend {
			return ActivityModerate
		}
		return ActivityLow
	case hour >= 23 || hour < 5:
		return ActivityLow
	default:
		return ActivityModerate
	}
}
