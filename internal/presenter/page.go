package presenter

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/lox/runsafetonight/internal/readiness"
)

// Page is an in-memory View. It backs terminal rendering and tests.
type Page struct {
	mu       sync.Mutex
	elements map[string]*PageElement
	order    []string
	scrollY  int
}

func NewPage() *Page {
	return &Page{elements: make(map[string]*PageElement)}
}

// Add creates an element with the given classes, replacing any element
// with the same id.
func (p *Page) Add(id string, classes ...string) *PageElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := &PageElement{
		id:      id,
		classes: make(map[string]bool),
		attrs:   make(map[string]string),
		styles:  make(map[string]string),
	}
	for _, c := range classes {
		el.classes[c] = true
	}
	if _, ok := p.elements[id]; !ok {
		p.order = append(p.order, id)
	}
	p.elements[id] = el
	return el
}

func (p *Page) Element(id string) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// ElementsByClass returns matches in insertion order.
func (p *Page) ElementsByClass(class string) []Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Element
	for _, id := range p.order {
		if el := p.elements[id]; el.HasClass(class) {
			out = append(out, el)
		}
	}
	return out
}

func (p *Page) ScrollTo(y int) {
	p.mu.Lock()
	p.scrollY = y
	p.mu.Unlock()
}

func (p *Page) ScrollY() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollY
}

// LandingPage builds the element set of the home page.
func LandingPage() *Page {
	p := NewPage()
	p.Add("body")
	p.Add("site-header")
	p.Add("hamburger")
	p.Add("mobile-nav")
	p.Add("back-to-top")
	p.Add("toast")
	p.Add("hero-copy", "fade-in")

	for _, id := range conditionFields {
		p.Add(id)
	}
	p.Add(idVerdictText)
	p.Add(idTips)

	for _, id := range statFields {
		p.Add(id, "pulse-stat-number")
	}
	p.Add(idFeed)

	p.Add(idQuestions)
	p.Add(idResults).SetStyle("display", "none")
	p.Add(idProgress)
	p.Add(idCurrentStep)
	p.Add(idPercent)
	p.Add(idScore)
	p.Add(idFeedback)
	p.Add(idRecommendations)
	for _, q := range readiness.Questions {
		step := p.Add(stepID(q.Number), "readiness-step")
		if q.Number != 1 {
			step.SetStyle("display", "none")
		}
		for _, opt := range q.Options {
			p.Add(OptionID(q.Number, opt.Value), "readiness-option", "btn--secondary").SetText(opt.Label)
		}
	}

	p.Add(idNightCrewForm)
	p.Add(idNightCrewEmail)
	p.Add(idNightCrewCity)

	p.Add(idShareButton)
	for _, id := range planFields {
		p.Add(id)
	}
	return p
}

// PageElement is an element of a Page.
type PageElement struct {
	mu       sync.Mutex
	id       string
	text     string
	children []string
	classes  map[string]bool
	attrs    map[string]string
	styles   map[string]string
	value    string
}

func (e *PageElement) ID() string { return e.id }

func (e *PageElement) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *PageElement) SetText(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = s
	e.children = nil
}

func (e *PageElement) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.Join(e.children, "")
}

func (e *PageElement) SetHTML(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = ""
	e.children = nil
	if s != "" {
		e.children = []string{s}
	}
}

func (e *PageElement) Append(html string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children = append(e.children, html)
}

func (e *PageElement) Prepend(html string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children = slices.Insert(e.children, 0, html)
}

func (e *PageElement) Children() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.children)
}

// ChildHTML returns a copy of the child fragments.
func (e *PageElement) ChildHTML() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.children)
}

func (e *PageElement) RemoveLast() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.children) > 0 {
		e.children = e.children[:len(e.children)-1]
	}
}

func (e *PageElement) HasClass(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classes[name]
}

func (e *PageElement) SetClass(name string, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on {
		e.classes[name] = true
	} else {
		delete(e.classes, name)
	}
}

// Classes returns the element's classes, sorted.
func (e *PageElement) Classes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.classes))
}

func (e *PageElement) Attr(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attrs[name]
}

func (e *PageElement) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

func (e *PageElement) Style(prop string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.styles[prop]
}

func (e *PageElement) SetStyle(prop, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if value == "" {
		delete(e.styles, prop)
		return
	}
	e.styles[prop] = value
}

func (e *PageElement) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *PageElement) SetValue(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = v
}
