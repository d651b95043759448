// Package presenter drives the landing page: it wires UI events to the
// conditions, pulse and readiness logic and renders the results into a View.
//
// The controller never assumes an element exists. Every lookup that misses
// turns the corresponding feature into a no-op.
package presenter

import (
	"sync"
	"time"
)

// Event is a single UI interaction.
type Event struct {
	Name string
	// Target is the id of the element the event fired on, or the group for
	// tab events.
	Target  string
	Value   string
	Key     string
	Step    int
	ScrollY int
}

type Handler func(Event)

// EventSource delivers UI events to registered handlers.
type EventSource interface {
	On(name string, h Handler)
}

// Element is a rendered node.
type Element interface {
	ID() string
	Text() string
	SetText(s string)
	HTML() string
	SetHTML(s string)
	Append(html string)
	Prepend(html string)
	Children() int
	RemoveLast()
	HasClass(name string) bool
	SetClass(name string, on bool)
	Attr(name string) string
	SetAttr(name, value string)
	Style(prop string) string
	SetStyle(prop, value string)
	// Value is the current input value; for selects, the selected label.
	Value() string
	SetValue(v string)
}

// View looks elements up. Lookups report false for missing elements.
type View interface {
	Element(id string) (Element, bool)
	ElementsByClass(class string) []Element
	ScrollTo(y int)
}

// Clock schedules callbacks. Returned functions cancel the schedule.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) (stop func())
	Every(d time.Duration, f func()) (stop func())
}

// SystemClock is a Clock backed by the runtime timers.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

func (SystemClock) Every(d time.Duration, f func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				f()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Bus is an in-process EventSource.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) On(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Emit runs the handlers registered for ev.Name in registration order and
// reports whether any were registered.
func (b *Bus) Emit(ev Event) bool {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Name]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(ev)
	}
	return len(hs) > 0
}
