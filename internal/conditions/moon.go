package conditions

import "math"

// MoonPhase represents the current lunar phase.
type MoonPhase int

const (
	MoonNew MoonPhase = iota
	MoonWaxingCrescent
	MoonFirstQuarter
	MoonWaxingGibbous
	MoonFull
	MoonWaningGibbous
	MoonLastQuarter
	MoonWaningCrescent
)

// LunarCycle is approximately 29.53 days.
const LunarCycle = 29.53

// phaseLength is the width of one of the eight buckets in days.
const phaseLength = 3.69

var moonNames = [...]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

var moonEmoji = [...]string{"🌑", "🌒", "🌓", "🌔", "🌕", "🌖", "🌗", "🌘"}

func (p MoonPhase) String() string {
	if p < MoonNew || p > MoonWaningCrescent {
		return "Moon"
	}
	return moonNames[p]
}

// Emoji returns the glyph used on share cards.
func (p MoonPhase) Emoji() string {
	if p < MoonNew || p > MoonWaningCrescent {
		return moonEmoji[0]
	}
	return moonEmoji[p]
}

// ParseMoonPhase is the inverse of String.
func ParseMoonPhase(s string) (MoonPhase, bool) {
	for i, name := range moonNames {
		if name == s {
			return MoonPhase(i), true
		}
	}
	return MoonNew, false
}

// MoonPhaseForDay buckets a day of the year into one of the eight phases.
// The bucket width does not divide the cycle exactly, so the last sliver of
// each cycle wraps back to New Moon.
func MoonPhaseForDay(dayOfYear int) MoonPhase {
	pos := math.Mod(float64(dayOfYear), LunarCycle)
	if pos < 0 {
		pos += LunarCycle
	}
	return MoonPhase(int(pos/phaseLength) % 8)
}
