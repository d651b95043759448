package presenter

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/lox/runsafetonight/internal/readiness"
)

const (
	idQuestions       = "readiness-questions"
	idResults         = "readiness-results"
	idProgress        = "readiness-progress"
	idCurrentStep     = "readiness-current"
	idPercent         = "readiness-percent"
	idScore           = "readiness-score"
	idFeedback        = "readiness-feedback"
	idRecommendations = "readiness-recommendations"
)

func stepID(step int) string {
	return "readiness-step-" + strconv.Itoa(step)
}

// OptionID is the id of the button for one answer.
func OptionID(step int, value string) string {
	return fmt.Sprintf("readiness-option-%d-%s", step, value)
}

// Quiz returns the current quiz state.
func (c *Controller) Quiz() readiness.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz
}

func (c *Controller) initReadiness() {
	if _, ok := c.view.Element(idQuestions); !ok {
		return
	}
	c.on(EventReadinessPick, c.selectOption)
	c.on(EventReadinessReset, func(Event) { c.resetQuiz() })
}

// selectOption highlights the choice and advances after
// readiness.AdvanceDelay. Picking again before then replaces the answer.
func (c *Controller) selectOption(ev Event) {
	if ev.Step != c.quiz.Step || c.quiz.Done() {
		return
	}
	next, err := c.quiz.Select(ev.Value)
	if err != nil {
		c.logger.Debug("ignoring readiness selection", "step", ev.Step, "error", err)
		return
	}
	c.highlight(ev.Step, ev.Value)

	if c.stopAdvance != nil {
		c.stopAdvance()
	}
	c.advanceGen++
	gen := c.advanceGen
	c.stopAdvance = c.clock.AfterFunc(readiness.AdvanceDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A timer that fired while a newer pick or a reset held mu is stale.
		if gen != c.advanceGen {
			return
		}
		c.stopAdvance = nil
		c.quiz = next
		if next.Done() {
			c.showResults()
			return
		}
		c.showStep(next.Step)
	})
}

func (c *Controller) highlight(step int, selected string) {
	q, ok := readiness.QuestionFor(step)
	if !ok {
		return
	}
	for _, opt := range q.Options {
		el, ok := c.view.Element(OptionID(step, opt.Value))
		if !ok {
			continue
		}
		on := opt.Value == selected
		el.SetClass("btn--primary", on)
		el.SetClass("btn--secondary", !on)
	}
}

func (c *Controller) showStep(step int) {
	for i := 1; i <= readiness.NumQuestions; i++ {
		if el, ok := c.view.Element(stepID(i)); ok {
			display := "none"
			if i == step {
				display = "block"
			}
			el.SetStyle("display", display)
		}
	}
	c.setProgress(step * 100 / readiness.NumQuestions)
	if el, ok := c.view.Element(idCurrentStep); ok {
		el.SetText(strconv.Itoa(step))
	}
}

func (c *Controller) setProgress(percent int) {
	if el, ok := c.view.Element(idProgress); ok {
		el.SetStyle("width", strconv.Itoa(percent)+"%")
	}
	if el, ok := c.view.Element(idPercent); ok {
		el.SetText(strconv.Itoa(percent) + "%")
	}
}

var recsTmpl = template.Must(template.New("recs").Parse(
	`<div class="readiness-recs">{{range .}}<a href="{{.Link}}" class="pulse-feed-item">` +
		`<div class="rec-icon">{{.Icon}}</div><div><div class="rec-title">{{.Title}}</div>` +
		`<div class="rec-desc">{{.Description}}</div></div></a>{{end}}</div>`))

func (c *Controller) showResults() {
	if el, ok := c.view.Element(idQuestions); ok {
		el.SetStyle("display", "none")
	}
	if el, ok := c.view.Element(idResults); ok {
		el.SetStyle("display", "block")
	}
	c.setProgress(100)

	result := c.quiz.Result()
	if el, ok := c.view.Element(idScore); ok {
		c.animateNumber(el, result.Score)
	}
	if el, ok := c.view.Element(idFeedback); ok {
		el.SetText(result.Feedback)
	}
	if el, ok := c.view.Element(idRecommendations); ok {
		var buf bytes.Buffer
		if err := recsTmpl.Execute(&buf, result.Recommendations); err != nil {
			c.logger.Warn("render recommendations failed", "error", err)
			return
		}
		el.SetHTML(buf.String())
	}
}

func (c *Controller) resetQuiz() {
	c.advanceGen++
	if c.stopAdvance != nil {
		c.stopAdvance()
		c.stopAdvance = nil
	}
	c.quiz = c.quiz.Reset()

	if el, ok := c.view.Element(idQuestions); ok {
		el.SetStyle("display", "block")
	}
	if el, ok := c.view.Element(idResults); ok {
		el.SetStyle("display", "none")
	}
	for step := 1; step <= readiness.NumQuestions; step++ {
		c.highlight(step, "")
	}
	c.showStep(1)
}
