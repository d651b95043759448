package presenter

import (
	"bytes"
	"html/template"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lox/runsafetonight/internal/conditions"
	"github.com/lox/runsafetonight/internal/pulse"
)

const (
	idSunset      = "cond-sunset"
	idTemp        = "cond-temp"
	idWind        = "cond-wind"
	idVisibility  = "cond-visibility"
	idMoon        = "cond-moon"
	idStreets     = "cond-streets"
	idVerdictText = "verdict-text"
	idTips        = "conditions-tips"

	idRunners   = "pulse-runners"
	idRoutes    = "pulse-routes"
	idNotes     = "pulse-notes"
	idGroupRuns = "pulse-groups"
	idFeed      = "pulse-feed"
)

var conditionFields = []string{idSunset, idTemp, idWind, idVisibility, idMoon, idStreets}

var statFields = []string{idRunners, idRoutes, idNotes, idGroupRuns}

var numbers = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return numbers.Sprintf("%d", n)
}

// EaseOutCubic maps linear progress in [0,1] onto the counter curve.
func EaseOutCubic(p float64) float64 {
	return 1 - math.Pow(1-p, 3)
}

// CounterValue is the number a counter animating towards target shows after
// elapsed.
func CounterValue(target int, elapsed time.Duration) int {
	p := min(float64(elapsed)/float64(CounterDuration), 1)
	if p < 0 {
		p = 0
	}
	return int(math.Round(float64(target) * EaseOutCubic(p)))
}

func (c *Controller) setText(id, text string) {
	if text == "" {
		return
	}
	if el, ok := c.view.Element(id); ok {
		el.SetText(text)
	}
}

var tipsTmpl = template.Must(template.New("tips").Parse(
	`<ul class="conditions-tips">{{range .}}<li>{{.}}</li>{{end}}</ul>`))

func (c *Controller) renderConditions(r conditions.Report) {
	c.setText(idSunset, r.Sunset)
	c.setText(idTemp, strconv.Itoa(r.TemperatureF)+"°F")
	c.setText(idWind, strconv.Itoa(r.WindMph)+" mph")
	c.setText(idVisibility, r.Visibility.String())
	c.setText(idMoon, r.Moon.String())
	c.setText(idStreets, string(r.StreetActivity))
	c.setText(idVerdictText, r.Verdict)

	if el, ok := c.view.Element(idTips); ok && len(r.Tips) > 0 {
		var buf bytes.Buffer
		if err := tipsTmpl.Execute(&buf, r.Tips); err != nil {
			c.logger.Warn("render tips failed", "error", err)
			return
		}
		el.SetHTML(buf.String())
	}
}

// feedEntry is one rendered feed row. Text carries trusted <strong> markup.
type feedEntry struct {
	Dot  string
	Text template.HTML
	Time string
}

var feedTmpl = template.Must(template.New("feed").Parse(
	`<div class="pulse-feed-item"><div class="pulse-feed-dot {{.Dot}}"></div>` +
		`<div class="pulse-feed-text">{{.Text}}</div><div class="pulse-feed-time">{{.Time}}</div></div>`))

func renderFeedEntry(e feedEntry) (string, error) {
	var buf bytes.Buffer
	if err := feedTmpl.Execute(&buf, e); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Controller) renderPulse(s pulse.Snapshot) {
	stats := map[string]int{
		idRunners:   s.Stats.RunnersTonight,
		idRoutes:    s.Stats.RoutesThisWeek,
		idNotes:     s.Stats.SafetyNotes,
		idGroupRuns: s.Stats.GroupRunsTonight,
	}
	for _, id := range statFields {
		if el, ok := c.view.Element(id); ok {
			c.animateNumber(el, stats[id])
		}
	}

	feed, ok := c.view.Element(idFeed)
	if !ok || len(s.Feed) == 0 {
		return
	}
	feed.SetHTML("")
	for _, item := range s.Feed {
		html, err := renderFeedEntry(feedEntry{
			Dot:  item.Category.Dot(),
			Text: template.HTML(item.Text),
			Time: item.TimeLabel(),
		})
		if err != nil {
			c.logger.Warn("render feed item failed", "error", err)
			continue
		}
		feed.Append(html)
	}
}

// animateNumber counts el up from zero to target. Must be called with mu
// held.
func (c *Controller) animateNumber(el Element, target int) {
	id := el.ID()
	if stop, ok := c.animating[id]; ok {
		stop()
		delete(c.animating, id)
	}
	if c.opts.ReducedMotion || target <= 0 {
		el.SetText(FormatCount(max(target, 0)))
		return
	}

	el.SetText(FormatCount(0))
	start := c.clock.Now()
	var stop func()
	stop = c.clock.Every(frameInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		elapsed := c.clock.Now().Sub(start)
		el.SetText(FormatCount(CounterValue(target, elapsed)))
		if elapsed >= CounterDuration {
			stop()
			delete(c.animating, id)
		}
	})
	c.animating[id] = stop
}

// initCounters animates elements carrying data-count the first time they
// scroll into view.
func (c *Controller) initCounters() {
	c.on(EventVisible, func(ev Event) {
		if c.counted[ev.Target] {
			return
		}
		el, ok := c.view.Element(ev.Target)
		if !ok {
			return
		}
		target, err := strconv.Atoi(el.Attr("data-count"))
		if err != nil || target == 0 {
			return
		}
		c.counted[ev.Target] = true
		c.animateNumber(el, target)
	})
}

// curatedFeed is rotated into the live feed between refreshes.
var curatedFeed = []feedEntry{
	{"green", "<strong>Priya N.</strong> checked in from Seattle: 3.8 mi night run completed", "just now"},
	{"blue", `<strong>Night Crew Denver</strong> posted: "Cherry Creek Trail loop lit and clear tonight"`, "1m ago"},
	{"gold", "<strong>Safety note:</strong> Construction detour on Lakefront Trail near Fullerton, Chicago", "3m ago"},
	{"rose", "<strong>Group run:</strong> Austin Night Crew, 8 PM at Lady Bird Lake trailhead", "5m ago"},
	{"green", `<strong>Kenji M.</strong> first night run in NYC: "Central Park at dusk was magical"`, "7m ago"},
	{"blue", `<strong>Night Crew SF</strong> shared route: "Embarcadero Glow Loop, 5K"`, "10m ago"},
	{"green", "<strong>Daniela V.</strong> checked in from Miami: 5.1 mi night run completed", "12m ago"},
	{"gold", "<strong>Route update:</strong> New lighting installed on Burke-Gilman Trail, Seattle", "15m ago"},
	{"rose", "<strong>Group run:</strong> Chicago Lakefront Crew, 7 PM at North Ave Beach", "18m ago"},
	{"green", `<strong>Tanya B.</strong> completed solo night run in Portland: "Waterfront was perfect"`, "20m ago"},
}

func (c *Controller) initFeedRotation() {
	feed, ok := c.view.Element(idFeed)
	if !ok {
		return
	}
	c.stopFeed = c.clock.Every(FeedRotateInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.rotateFeed(feed)
	})
}

func (c *Controller) rotateFeed(feed Element) {
	entry := curatedFeed[c.feedIndex%len(curatedFeed)]
	c.feedIndex++

	html, err := renderFeedEntry(entry)
	if err != nil {
		c.logger.Warn("render feed item failed", "error", err)
		return
	}
	feed.Prepend(html)
	for feed.Children() > FeedLimit {
		feed.RemoveLast()
	}
}
