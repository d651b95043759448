package conditions

// Visibility is ordered best to worst so that degrading is an increment.
type Visibility int

const (
	VisibilityExcellent Visibility = iota
	VisibilityGood
	VisibilityModerate
	VisibilityLow
)

var visibilityNames = [...]string{"Excellent", "Good", "Moderate", "Low"}

func (v Visibility) String() string {
	if v < VisibilityExcellent || v > VisibilityLow {
		return visibilityNames[VisibilityLow]
	}
	return visibilityNames[v]
}

// ParseVisibility is the inverse of String.
func ParseVisibility(s string) (Visibility, bool) {
	for i, name := range visibilityNames {
		if name == s {
			return Visibility(i), true
		}
	}
	return VisibilityLow, false
}

// Worse returns the next bucket down, stopping at Low.
func (v Visibility) Worse() Visibility {
	if v >= VisibilityLow {
		return VisibilityLow
	}
	return v + 1
}

const gustyWindMph = 14

// visibilityFor picks the base bucket from the moon, then knocks it down a
// step on gusty nights. coin is only consulted for dim phases.
func visibilityFor(moon MoonPhase, windMph int, coin func() bool) Visibility {
	var v Visibility
	switch moon {
	case MoonFull, MoonWaxingGibbous:
		v = VisibilityExcellent
	case MoonFirstQuarter, MoonWaningGibbous:
		v = VisibilityGood
	default:
		if coin() {
			v = VisibilityGood
		} else {
			v = VisibilityModerate
		}
	}
	if windMph > gustyWindMph {
		v = v.Worse()
	}
	return v
}

// VerdictScore rates the evening from 1 to 9.
func VerdictScore(tempF, windMph int, vis Visibility, activity Activity) int {
	score := 0
	switch {
	case tempF >= 45 && tempF <= 75:
		score += 3
	case tempF >= 35 && tempF <= 85:
		score += 2
	default:
		score++
	}

	switch {
	case windMph < 10:
		score += 2
	case windMph < 15:
		score++
	}

	switch vis {
	case VisibilityExcellent:
		score += 3
	case VisibilityGood:
		score += 2
	default:
		score++
	}

	if activity == ActivityHigh || activity == ActivityModerate {
		score++
	}
	return score
}

// VerdictText returns the headline for a verdict score.
func VerdictText(score int) string {
	switch {
	case score >= 8:
		return "Excellent conditions for a night run tonight. Get out there and own the night!"
	case score >= 6:
		return "Great conditions for a night run. Visibility is good and streets are active enough for comfort."
	case score >= 4:
		return "Decent conditions tonight. Layer up appropriately and stick to well-lit, familiar routes."
	default:
		return "Challenging conditions tonight. Consider a shorter route on main corridors with good lighting."
	}
}

const (
	TipCold          = "Layer up — wear moisture-wicking base layer and wind-resistant outer layer."
	TipHot           = "Stay hydrated — carry water even on short runs in warm conditions."
	TipWindy         = "Wind advisory — plan your route so you run into the wind first and have it at your back on the return."
	TipLowVisibility = "Lower visibility tonight — make sure your reflective gear and lights are fully charged."
	TipLowActivity   = "Low street activity — stick to main corridors and let someone know your route."
	TipFullMoon      = "Full moon tonight — enjoy the extra natural light on open routes!"
	TipDefault       = "Great conditions — enjoy your run!"
)

// Tips lists advice for every condition that applies, in a fixed order.
func Tips(tempF, windMph int, vis Visibility, activity Activity, moon MoonPhase) []string {
	var tips []string
	if tempF < 40 {
		tips = append(tips, TipCold)
	}
	if tempF > 80 {
		tips = append(tips, TipHot)
	}
	if windMph > 12 {
		tips = append(tips, TipWindy)
	}
	if vis == VisibilityLow || vis == VisibilityModerate {
		tips = append(tips, TipLowVisibility)
	}
	if activity == ActivityLow {
		tips = append(tips, TipLowActivity)
	}
	if moon == MoonFull {
		tips = append(tips, TipFullMoon)
	}
	if len(tips) == 0 {
		tips = append(tips, TipDefault)
	}
	return tips
}
