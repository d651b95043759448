// Package pulse fabricates the community activity panel: headline counts
// and a short feed of recent-looking events.
package pulse

import (
	"fmt"
	"strings"
	"time"

	"github.com/lox/runsafetonight/internal/random"
)

// FeedSize is the number of items in every generated feed.
const FeedSize = 5

// Category identifies the kind of feed event.
type Category string

const (
	CategoryCheckin Category = "checkin"
	CategoryRoute   Category = "route"
	CategorySafety  Category = "safety"
	CategoryGroup   Category = "group"
)

// Categories lists every category in sampling order.
var Categories = []Category{CategoryCheckin, CategoryRoute, CategorySafety, CategoryGroup}

// Dot returns the colour of the marker rendered beside the item.
func (c Category) Dot() string {
	switch c {
	case CategoryCheckin:
		return "green"
	case CategoryRoute:
		return "blue"
	case CategorySafety:
		return "gold"
	case CategoryGroup:
		return "rose"
	default:
		return "green"
	}
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Stats are the headline counters.
type Stats struct {
	RunnersTonight   int `json:"runnersTonight"`
	RoutesThisWeek   int `json:"routesThisWeek"`
	SafetyNotes      int `json:"safetyNotes"`
	GroupRunsTonight int `json:"groupRunsTonight"`
}

// FeedItem is a single event. Text may contain <strong> emphasis.
type FeedItem struct {
	Category   Category
	Text       string
	MinutesAgo int
}

// Snapshot is the full community panel.
type Snapshot struct {
	Stats       Stats
	Feed        []FeedItem
	GeneratedAt time.Time
}

var cities = []string{
	"Austin, TX", "Portland, OR", "Chicago, IL", "Denver, CO", "Seattle, WA",
	"Brooklyn, NY", "San Francisco, CA", "Miami, FL", "Boston, MA", "Nashville, TN",
	"Atlanta, GA", "Minneapolis, MN", "Los Angeles, CA", "Philadelphia, PA", "Washington, DC",
}

var names = []string{
	"Sarah M.", "Alex R.", "Marcus T.", "Priya N.", "Kenji M.",
	"Daniela V.", "Tanya B.", "Ryan P.", "Aisha T.", "David L.",
	"Jasmine K.", "Mei W.", "Carlos G.", "Jordan F.", "Keisha M.",
}

var distances = []string{"3.1", "3.8", "4.2", "5.0", "5.5", "6.2", "2.8", "4.5", "7.1", "3.5"}

// bounded is a base plus a random offset in [0, spread).
type bounded struct {
	base   int
	spread int
}

func (b bounded) draw(rng random.Source) int {
	return b.base + rng.IntN(b.spread)
}

var (
	routesThisWeek = bounded{120, 80}
	safetyNotes    = bounded{30, 25}
)

// Generator produces snapshots from a random source.
type Generator struct {
	rng random.Source
}

func NewGenerator(rng random.Source) *Generator {
	return &Generator{rng: rng}
}

// Generate builds the snapshot for now, interpreted in now's location.
func (g *Generator) Generate(now time.Time) Snapshot {
	stats := Stats{
		RunnersTonight:   runnersBucket(now.Hour()).draw(g.rng),
		RoutesThisWeek:   routesThisWeek.draw(g.rng),
		SafetyNotes:      safetyNotes.draw(g.rng),
		GroupRunsTonight: groupRunsBucket(now.Weekday()).draw(g.rng),
	}

	feed := make([]FeedItem, 0, FeedSize)
	for i := 0; i < FeedSize; i++ {
		feed = append(feed, g.feedItem(i))
	}

	return Snapshot{Stats: stats, Feed: feed, GeneratedAt: now}
}

func runnersBucket(hour int) bounded {
	switch {
	case hour >= 17 && hour < 20:
		return bounded{2200, 1200}
	case hour >= 20 && hour < 22:
		return bounded{1800, 800}
	case hour >= 22 || hour < 5:
		return bounded{400, 600}
	case hour >= 5 && hour < 7:
		return bounded{800, 400}
	default:
		return bounded{300, 300}
	}
}

// groupRunsBucket follows the weekly crew schedule: Tuesday and Thursday
// are club nights, Saturday is the long social run.
func groupRunsBucket(day time.Weekday) bounded {
	switch day {
	case time.Tuesday, time.Thursday:
		return bounded{15, 10}
	case time.Saturday:
		return bounded{20, 12}
	default:
		return bounded{8, 10}
	}
}

func (g *Generator) feedItem(i int) FeedItem {
	name := names[g.rng.IntN(len(names))]
	city := cities[g.rng.IntN(len(cities))]
	distance := distances[g.rng.IntN(len(distances))]
	minutesAgo := i*5 + g.rng.IntN(8)
	category := Categories[g.rng.IntN(len(Categories))]

	var text string
	switch category {
	case CategoryCheckin:
		text = fmt.Sprintf("<strong>%s</strong> checked in from %s — %s mi night run completed", name, city, distance)
	case CategoryRoute:
		text = fmt.Sprintf("<strong>Night Crew %s</strong> shared a new route", cityName(city))
	case CategorySafety:
		text = fmt.Sprintf("<strong>Safety note:</strong> New update for %s", city)
	case CategoryGroup:
		text = fmt.Sprintf("<strong>Group run:</strong> %s Night Crew — %s", cityName(city), g.groupRunTime())
	}

	return FeedItem{Category: category, Text: text, MinutesAgo: minutesAgo}
}

// groupRunTime picks a start between 6:00 and 9:30 PM on the half hour.
func (g *Generator) groupRunTime() string {
	hour := 18 + g.rng.IntN(4)
	minute := "00"
	if g.rng.Float64() > 0.5 {
		minute = "30"
	}
	return fmt.Sprintf("%d:%s PM", hour-12, minute)
}

// cityName drops the state suffix from "City, ST".
func cityName(city string) string {
	name, _, _ := strings.Cut(city, ",")
	return name
}
