// Package conditions builds the "tonight's conditions" report shown on the
// home page. Nothing here reads real weather: every value is derived from
// the calendar, the clock and a random source.
package conditions

import (
	"fmt"
	"math"
	"time"

	"github.com/lox/runsafetonight/internal/random"
)

// DefaultLocation is the label shown when no city has been chosen.
const DefaultLocation = "US Average (set your city for local data)"

// sunsetHours is the approximate local sunset per month at ~38°N.
var sunsetHours = [12]float64{17.25, 17.75, 18.25, 19.75, 20.25, 20.58, 20.5, 20.0, 19.25, 18.25, 17.17, 16.92}

// TempRange is an inclusive evening temperature band in Fahrenheit.
type TempRange struct {
	Low  int
	High int
}

var tempRanges = [12]TempRange{
	{25, 35}, {28, 40}, {35, 52}, {45, 62}, {55, 72}, {65, 82},
	{70, 88}, {68, 86}, {60, 78}, {48, 65}, {35, 50}, {28, 38},
}

const (
	minWindMph = 2
	maxWindMph = 18
)

// Report is one evening's running conditions.
type Report struct {
	Sunset         string
	TemperatureF   int
	WindMph        int
	Visibility     Visibility
	Moon           MoonPhase
	StreetActivity Activity
	VerdictScore   int
	Verdict        string
	Tips           []string
	GeneratedAt    time.Time
	Location       string
}

// Generator produces reports. Only the dim-moon visibility coin uses the
// random source; temperature and wind are fixed for a calendar day.
type Generator struct {
	rng      random.Source
	location string
}

// NewGenerator returns a Generator labelled with location. An empty
// location uses DefaultLocation.
func NewGenerator(rng random.Source, location string) *Generator {
	if location == "" {
		location = DefaultLocation
	}
	return &Generator{rng: rng, location: location}
}

// Generate builds the report for now, interpreted in now's location.
func (g *Generator) Generate(now time.Time) Report {
	month := now.Month()
	day := now.Day()

	temp := Temperature(month, day)
	wind := Wind(month, day)
	moon := MoonPhaseForDay(now.YearDay())
	vis := visibilityFor(moon, wind, func() bool { return g.rng.Float64() > 0.5 })
	activity := StreetActivity(now.Hour(), now.Weekday())
	score := VerdictScore(temp, wind, vis, activity)

	return Report{
		Sunset:         Sunset(month),
		TemperatureF:   temp,
		WindMph:        wind,
		Visibility:     vis,
		Moon:           moon,
		StreetActivity: activity,
		VerdictScore:   score,
		Verdict:        VerdictText(score),
		Tips:           Tips(temp, wind, vis, activity, moon),
		GeneratedAt:    now,
		Location:       g.location,
	}
}

// Sunset formats the month's approximate sunset as "h:mm PM".
func Sunset(month time.Month) string {
	hours := sunsetHours[monthIndex(month)]
	h := int(math.Floor(hours))
	m := int(math.Round(math.Mod(hours, 1) * 60))
	return formatClock(h, m)
}

func formatClock(h, m int) string {
	ampm := "AM"
	if h >= 12 {
		ampm = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, ampm)
}

// TempRangeFor returns the evening band for a month.
func TempRangeFor(month time.Month) TempRange {
	return tempRanges[monthIndex(month)]
}

// Temperature is stable for a given day of the month so that every edge
// cache sees the same value all day.
func Temperature(month time.Month, day int) int {
	r := TempRangeFor(month)
	return int(math.Round(float64(r.Low) + random.Seeded(day)*float64(r.High-r.Low)))
}

// Wind is seeded by day plus zero-based month.
func Wind(month time.Month, day int) int {
	return int(math.Round(minWindMph + random.Seeded(day+monthIndex(month))*(maxWindMph-minWindMph)))
}

func monthIndex(month time.Month) int {
	i := int(month) - 1
	if i < 0 || i > 11 {
		return 0
	}
	return i
}
