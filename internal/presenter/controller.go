package presenter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lox/runsafetonight/internal/client"
	"github.com/lox/runsafetonight/internal/readiness"
)

// Event names the controller listens for.
const (
	EventScroll         = "scroll"
	EventKeyDown        = "keydown"
	EventVisible        = "visible"
	EventHamburger      = "hamburger:click"
	EventMobileNavLink  = "mobile-nav:link"
	EventBackToTop      = "back-to-top:click"
	EventReadinessPick  = "readiness:option"
	EventReadinessReset = "readiness:reset"
	EventNightCrew      = "nightcrew:submit"
	EventSharePlan      = "share-plan:click"
	EventAccordion      = "accordion:click"
	EventTab            = "tab:click"
	EventAnchor         = "anchor:click"
)

// Page behaviour constants.
const (
	HeaderScrollThreshold    = 50
	BackToTopScrollThreshold = 600
	ToastDuration            = 4 * time.Second
	CounterDuration          = 2 * time.Second
	FeedRotateInterval       = 8 * time.Second
	FeedLimit                = 6
	AnchorHeaderOffset       = 80

	frameInterval = 16 * time.Millisecond
)

// Remote is the data the page loads over the network.
type Remote interface {
	Dashboard(ctx context.Context) client.Dashboard
	JoinNightCrew(ctx context.Context, email, city string) error
}

// Sharer is the platform share sheet.
type Sharer interface {
	Share(title, text, url string) error
}

// Clipboard copies text for the user.
type Clipboard interface {
	WriteText(text string) error
}

type Options struct {
	Clock Clock
	// Share and Clipboard are nil when the platform lacks them.
	Share     Sharer
	Clipboard Clipboard
	PageURL   string
	// ReducedMotion renders counters at their final value immediately.
	ReducedMotion bool
}

// Controller owns all page state. Handlers and timers are serialised by mu.
type Controller struct {
	view   View
	events EventSource
	remote Remote
	opts   Options
	clock  Clock
	logger *slog.Logger

	ctx context.Context
	wg  sync.WaitGroup

	mu          sync.Mutex
	scrolled    bool
	quiz        readiness.State
	stopAdvance func()
	advanceGen  int
	stopToast   func()
	stopFeed    func()
	feedIndex   int
	animating   map[string]func()
	counted     map[string]bool
}

func New(view View, events EventSource, remote Remote, opts Options, logger *slog.Logger) *Controller {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Controller{
		view:      view,
		events:    events,
		remote:    remote,
		opts:      opts,
		clock:     opts.Clock,
		logger:    logger.With("component", "presenter"),
		quiz:      readiness.NewState(),
		animating: make(map[string]func()),
		counted:   make(map[string]bool),
	}
}

// Start wires every feature whose elements are present and begins loading
// conditions and pulse in the background. Use Wait to block on the load.
func (c *Controller) Start(ctx context.Context) {
	c.ctx = ctx
	c.initHeader()
	c.initScrollAnimations()
	c.initAnchors()
	c.initMobileNav()
	c.initBackToTop()
	c.initCounters()
	c.initFeedRotation()
	c.initReadiness()
	c.initNightCrewForm()
	c.initSharePlan()
	c.initAccordion()
	c.initTabs()

	if c.remote != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.Refresh(ctx)
		}()
	}
}

func (c *Controller) context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Wait blocks until background loads started by Start have rendered.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Stop cancels every pending timer.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, stop := range []func(){c.stopAdvance, c.stopToast, c.stopFeed} {
		if stop != nil {
			stop()
		}
	}
	c.stopAdvance, c.stopToast, c.stopFeed = nil, nil, nil
	for id, stop := range c.animating {
		stop()
		delete(c.animating, id)
	}
}

// Refresh loads conditions and pulse and renders whatever arrives.
func (c *Controller) Refresh(ctx context.Context) {
	d := c.remote.Dashboard(ctx)
	c.logger.Debug("dashboard loaded", "conditions", d.ConditionsSource, "pulse", d.PulseSource)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderConditions(d.Conditions)
	c.renderPulse(d.Pulse)
}

func (c *Controller) on(name string, h Handler) {
	c.events.On(name, func(ev Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		h(ev)
	})
}

func (c *Controller) initHeader() {
	header, ok := c.view.Element("site-header")
	if !ok {
		return
	}
	c.on(EventScroll, func(ev Event) {
		scrolled := ev.ScrollY > HeaderScrollThreshold
		if scrolled != c.scrolled {
			c.scrolled = scrolled
			header.SetClass("scrolled", scrolled)
		}
	})
}

// revealClasses mark elements that animate in on first intersection.
var revealClasses = []string{"fade-in", "fade-in-left", "fade-in-right", "scale-in"}

func (c *Controller) initScrollAnimations() {
	found := false
	for _, class := range revealClasses {
		if len(c.view.ElementsByClass(class)) > 0 {
			found = true
			break
		}
	}
	if !found {
		return
	}
	c.on(EventVisible, func(ev Event) {
		el, ok := c.view.Element(ev.Target)
		if !ok || el.HasClass("visible") {
			return
		}
		for _, class := range revealClasses {
			if el.HasClass(class) {
				el.SetClass("visible", true)
				return
			}
		}
	})
}

// initAnchors scrolls in-page links to their target, leaving room for the
// fixed header. Event.Value is the href ("#readiness"); the target's
// document offset comes from its data-top attribute.
func (c *Controller) initAnchors() {
	c.on(EventAnchor, func(ev Event) {
		id, ok := strings.CutPrefix(ev.Value, "#")
		if !ok || id == "" {
			return
		}
		target, ok := c.view.Element(id)
		if !ok {
			return
		}
		top, err := strconv.Atoi(target.Attr("data-top"))
		if err != nil {
			return
		}
		c.view.ScrollTo(max(top-AnchorHeaderOffset, 0))
	})
}

func (c *Controller) initBackToTop() {
	btn, ok := c.view.Element("back-to-top")
	if !ok {
		return
	}
	c.on(EventScroll, func(ev Event) {
		btn.SetClass("visible", ev.ScrollY > BackToTopScrollThreshold)
	})
	c.on(EventBackToTop, func(Event) {
		c.view.ScrollTo(0)
	})
}

func (c *Controller) initMobileNav() {
	hamburger, ok := c.view.Element("hamburger")
	if !ok {
		return
	}
	nav, ok := c.view.Element("mobile-nav")
	if !ok {
		return
	}

	c.on(EventHamburger, func(Event) {
		c.setNavOpen(hamburger, nav, !nav.HasClass("open"))
	})
	c.on(EventMobileNavLink, func(Event) {
		c.setNavOpen(hamburger, nav, false)
	})
	c.on(EventKeyDown, func(ev Event) {
		if ev.Key == "Escape" && nav.HasClass("open") {
			c.setNavOpen(hamburger, nav, false)
		}
	})
}

func (c *Controller) setNavOpen(hamburger, nav Element, open bool) {
	nav.SetClass("open", open)
	hamburger.SetClass("active", open)
	hamburger.SetAttr("aria-expanded", strconv.FormatBool(open))
	nav.SetAttr("aria-hidden", strconv.FormatBool(!open))
	if body, ok := c.view.Element("body"); ok {
		overflow := ""
		if open {
			overflow = "hidden"
		}
		body.SetStyle("overflow", overflow)
	}
}

// showToast displays message for ToastDuration. A newer toast restarts the
// timer.
func (c *Controller) showToast(message string) {
	toast, ok := c.view.Element("toast")
	if !ok {
		return
	}
	toast.SetText(message)
	toast.SetClass("show", true)

	if c.stopToast != nil {
		c.stopToast()
	}
	c.stopToast = c.clock.AfterFunc(ToastDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		toast.SetClass("show", false)
		c.stopToast = nil
	})
}

func (c *Controller) initAccordion() {
	if len(c.view.ElementsByClass("accordion-item")) == 0 {
		return
	}
	c.on(EventAccordion, func(ev Event) {
		items := c.view.ElementsByClass("accordion-item")
		var clicked Element
		for _, item := range items {
			if item.ID() == ev.Target {
				clicked = item
			}
		}
		if clicked == nil {
			return
		}
		wasActive := clicked.HasClass("active")
		for _, item := range items {
			item.SetClass("active", false)
			item.SetAttr("aria-expanded", "false")
		}
		if !wasActive {
			clicked.SetClass("active", true)
			clicked.SetAttr("aria-expanded", "true")
		}
	})
}

func (c *Controller) initTabs() {
	if len(c.view.ElementsByClass("tab")) == 0 {
		return
	}
	c.on(EventTab, func(ev Event) {
		for _, class := range []string{"tab", "tab-content"} {
			for _, el := range c.view.ElementsByClass(class) {
				if el.Attr("data-group") != ev.Target {
					continue
				}
				el.SetClass("active", el.Attr("data-tab") == ev.Value)
			}
		}
	})
}
