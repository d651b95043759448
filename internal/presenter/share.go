package presenter

import (
	"strings"

	"github.com/lox/runsafetonight/internal/api"
)

const (
	idNightCrewForm  = "nightcrew-form"
	idNightCrewEmail = "nightcrew-email"
	idNightCrewCity  = "nightcrew-city"

	idShareButton = "share-plan-btn"
	idDistance    = "route-distance"
	idEnvironment = "route-env"
	idComfort     = "route-comfort"
	idLighting    = "route-light"
)

var planFields = []string{idDistance, idEnvironment, idComfort, idLighting}

// Toast messages.
const (
	SignupFailedMessage = "We couldn't add you to the Night Crew just now. Please try again."
	CopiedMessage       = "Run plan copied to clipboard! Share it with a friend."
	ShareManualMessage  = "Share your run plan with a friend before heading out."
	ShareTitle          = "My Night Run Plan: RunSafeTonight"
)

// Plan is a route plan picked in the planner.
type Plan struct {
	Distance    string
	Environment string
	Comfort     string
	Lighting    string
}

// PlanText formats plan for sharing.
func PlanText(p Plan) string {
	var b strings.Builder
	b.WriteString("My Night Run Plan:\n")
	b.WriteString("Distance: " + p.Distance + "\n")
	b.WriteString("Environment: " + p.Environment + "\n")
	b.WriteString("Comfort: " + p.Comfort + "\n")
	b.WriteString("Lighting: " + p.Lighting + "\n")
	b.WriteString("Via RunSafeTonight.com")
	return b.String()
}

func (c *Controller) value(id string) string {
	if el, ok := c.view.Element(id); ok {
		return el.Value()
	}
	return ""
}

func (c *Controller) initSharePlan() {
	if _, ok := c.view.Element(idShareButton); !ok {
		return
	}
	c.on(EventSharePlan, func(Event) {
		text := PlanText(Plan{
			Distance:    c.value(idDistance),
			Environment: c.value(idEnvironment),
			Comfort:     c.value(idComfort),
			Lighting:    c.value(idLighting),
		})
		c.sharePlan(text)
	})
}

// sharePlan tries the share sheet, then the clipboard, then asks the user
// to share by hand. A dismissed share sheet is not an error.
func (c *Controller) sharePlan(text string) {
	switch {
	case c.opts.Share != nil:
		if err := c.opts.Share.Share(ShareTitle, text, c.opts.PageURL); err != nil {
			c.logger.Debug("share dismissed", "error", err)
		}
	case c.opts.Clipboard != nil:
		if err := c.opts.Clipboard.WriteText(text); err != nil {
			c.logger.Debug("clipboard write failed", "error", err)
			c.showToast(ShareManualMessage)
			return
		}
		c.showToast(CopiedMessage)
	default:
		c.showToast(ShareManualMessage)
	}
}

func (c *Controller) initNightCrewForm() {
	if _, ok := c.view.Element(idNightCrewForm); !ok {
		return
	}
	c.events.On(EventNightCrew, c.submitNightCrew)
}

// submitNightCrew posts the signup without holding mu so timers keep
// running while the request is in flight.
func (c *Controller) submitNightCrew(Event) {
	c.mu.Lock()
	email, ok := c.view.Element(idNightCrewEmail)
	if !ok || strings.TrimSpace(email.Value()) == "" {
		c.mu.Unlock()
		return
	}
	address := strings.TrimSpace(email.Value())
	city := strings.TrimSpace(c.value(idNightCrewCity))
	c.mu.Unlock()

	var err error
	if c.remote != nil {
		err = c.remote.JoinNightCrew(c.context(), address, city)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("nightcrew signup failed", "error", err)
		c.showToast(SignupFailedMessage)
		return
	}
	c.showToast(api.WelcomeMessage)
	email.SetValue("")
	if el, ok := c.view.Element(idNightCrewCity); ok {
		el.SetValue("")
	}
}
