package readiness

import (
	"fmt"
	"maps"
	"time"
)

// AdvanceDelay is how long the selected option stays highlighted before the
// quiz moves on.
const AdvanceDelay = 400 * time.Millisecond

// StepResults is the step value once every question has been answered.
const StepResults = NumQuestions + 1

// State is one quiz session. The zero value is not valid; use NewState.
type State struct {
	Step    int
	Answers Answers
}

// NewState starts a quiz at the first question.
func NewState() State {
	return State{Step: 1, Answers: Answers{}}
}

// Done reports whether the quiz has reached the results.
func (s State) Done() bool {
	return s.Step >= StepResults
}

// Progress is the percentage shown on the progress bar for the current step.
func (s State) Progress() int {
	if s.Done() {
		return 100
	}
	return s.Step * 100 / NumQuestions
}

// Select records option as the answer to the current step and returns the
// state the quiz should move to after AdvanceDelay. The receiver is not
// modified.
func (s State) Select(option string) (State, error) {
	if s.Done() {
		return s, fmt.Errorf("quiz already complete")
	}
	if s.Step < 1 {
		return s, fmt.Errorf("invalid step %d", s.Step)
	}

	next := State{Step: s.Step + 1, Answers: maps.Clone(s.Answers)}
	if next.Answers == nil {
		next.Answers = Answers{}
	}
	next.Answers[s.Step] = option
	return next, nil
}

// Result scores the answers recorded so far.
func (s State) Result() Result {
	return Score(s.Answers)
}

// Reset clears every answer and returns to the first question.
func (s State) Reset() State {
	return NewState()
}

// Option is one selectable answer.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is one step of the quiz.
type Question struct {
	Number  int      `json:"number"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Questions is the catalog, in step order.
var Questions = []Question{
	{
		Number: QuestionExperience,
		Prompt: "How often do you run after dark?",
		Options: []Option{
			{"beginner", "Never, I'm just starting"},
			{"some", "A few times"},
			{"regular", "Most weeks"},
			{"veteran", "It's my main running time"},
		},
	},
	{
		Number: QuestionAwareness,
		Prompt: "Do you know which stretches of your usual route are poorly lit?",
		Options: []Option{
			{"yes", "Yes, I could list them"},
			{"somewhat", "Roughly"},
			{"no", "Not really"},
		},
	},
	{
		Number: QuestionGear,
		Prompt: "What do you wear to be seen?",
		Options: []Option{
			{"none", "Regular running clothes"},
			{"basic", "Something bright"},
			{"reflective", "Reflective vest or strips"},
			{"full", "Reflective gear plus lights"},
		},
	},
	{
		Number: QuestionSharing,
		Prompt: "Does anyone know your route and return time?",
		Options: []Option{
			{"never", "No"},
			{"sometimes", "Sometimes"},
			{"always", "Every run"},
			{"buddy", "I run with a buddy"},
		},
	},
	{
		Number: QuestionComfort,
		Prompt: "How do you feel heading out after sunset?",
		Options: []Option{
			{"anxious", "Anxious"},
			{"cautious", "Cautious"},
			{"comfortable", "Comfortable"},
			{"confident", "Confident"},
		},
	},
}

// QuestionFor returns the catalog entry for a step.
func QuestionFor(step int) (Question, bool) {
	if step < 1 || step > len(Questions) {
		return Question{}, false
	}
	return Questions[step-1], true
}
