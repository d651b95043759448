// Package readiness scores the 60-second night readiness check.
package readiness

// Question numbers, in the order the quiz asks them.
const (
	QuestionExperience = 1
	QuestionAwareness  = 2
	QuestionGear       = 3
	QuestionSharing    = 4
	QuestionComfort    = 5

	NumQuestions = 5
)

// Answers maps a question number to the selected option key.
type Answers map[int]string

// Recommendation is a follow-up card shown under the score.
type Recommendation struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"desc"`
	Link        string `json:"link"`
}

// Tier is a feedback band.
type Tier string

const (
	TierConfident Tier = "confident"
	TierSolid     Tier = "solid"
	TierBuilding  Tier = "building"
	TierBeginning Tier = "beginning"
)

// Result is the outcome of a completed quiz.
type Result struct {
	Score           int              `json:"score"`
	Tier            Tier             `json:"tier"`
	Feedback        string           `json:"feedback"`
	Recommendations []Recommendation `json:"recommendations"`
}

const (
	// fallbackPoints is awarded for a missing or unrecognised answer.
	fallbackPoints = 5
	// awarenessPoints is flat: asking yourself the question is what counts.
	awarenessPoints = 15

	maxScore = 100
)

var points = map[int]map[string]int{
	QuestionExperience: {"beginner": 5, "some": 15, "regular": 22, "veteran": 25},
	QuestionGear:       {"none": 5, "basic": 10, "reflective": 18, "full": 25},
	QuestionSharing:    {"never": 5, "sometimes": 12, "always": 20, "buddy": 20},
	QuestionComfort:    {"anxious": 5, "cautious": 10, "comfortable": 14, "confident": 15},
}

// Points returns what a single answer contributes.
func Points(question int, option string) int {
	if question == QuestionAwareness {
		return awarenessPoints
	}
	if p, ok := points[question][option]; ok {
		return p
	}
	return fallbackPoints
}

// Score computes the result for a set of answers. Answers may be partial.
func Score(answers Answers) Result {
	total := 0
	for q := 1; q <= NumQuestions; q++ {
		total += Points(q, answers[q])
	}
	total = clamp(total, 0, maxScore)

	tier := TierFor(total)
	return Result{
		Score:           total,
		Tier:            tier,
		Feedback:        feedback[tier],
		Recommendations: Recommendations(answers),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TierFor maps a score to its feedback band.
func TierFor(score int) Tier {
	switch {
	case score >= 85:
		return TierConfident
	case score >= 65:
		return TierSolid
	case score >= 45:
		return TierBuilding
	default:
		return TierBeginning
	}
}

var feedback = map[Tier]string{
	TierConfident: "You're a confident, well-prepared night runner. Your strategy game is strong. Keep sharing your knowledge with the community.",
	TierSolid:     "You have a solid foundation for night running. A few upgrades to your gear and habits will take you to the next level.",
	TierBuilding:  "You're building your night running skills. Focus on visibility gear and route sharing to boost your confidence and safety.",
	TierBeginning: "You're at the beginning of your night running journey. Start with our strategy guides and short, well-lit routes. The confidence will come.",
}

// Feedback returns the text for a tier.
func Feedback(t Tier) string {
	return feedback[t]
}

var (
	RecVisibility = Recommendation{
		Icon:        "💡",
		Title:       "Upgrade Your Visibility",
		Description: "Start with a reflective vest and a simple clip-on light. These two items dramatically increase your safety.",
		Link:        "/strategy/visual-presence.html",
	}
	RecShareRoute = Recommendation{
		Icon:        "📱",
		Title:       "Share Your Route",
		Description: "Make it a habit to share your route and ETA with someone before every night run. It's a simple, powerful safety layer.",
		Link:        "/strategy/community-safety.html",
	}
	RecRouteIntelligence = Recommendation{
		Icon:        "🗺️",
		Title:       "Learn Route Intelligence",
		Description: "Master the Loop Strategy and Exit Point Rule. These two concepts will transform how you plan every night run.",
		Link:        "/strategy/route-intelligence.html",
	}
	RecResilience = Recommendation{
		Icon:        "🧠",
		Title:       "Build Emotional Resilience",
		Description: "Hypervigilance fatigue is real. Learn breath resets and scanning rhythms that keep you alert without burning out.",
		Link:        "/strategy/emotional-resilience.html",
	}
	RecCommunity = Recommendation{
		Icon:        "🤝",
		Title:       "Join the Night Crew",
		Description: "Connect with night runners in your city. Share routes, find running buddies, and get local safety intel.",
		Link:        "#nightcrew",
	}
)

// weakSpots pairs a question's weak answers with the card that addresses
// them. Order here is display order.
var weakSpots = []struct {
	question int
	weak     []string
	rec      Recommendation
}{
	{QuestionGear, []string{"none", "basic"}, RecVisibility},
	{QuestionSharing, []string{"never", "sometimes"}, RecShareRoute},
	{QuestionExperience, []string{"beginner", "some"}, RecRouteIntelligence},
	{QuestionComfort, []string{"anxious", "cautious"}, RecResilience},
}

// Recommendations lists a card for each weak answer, then the community
// card, which is always last.
func Recommendations(answers Answers) []Recommendation {
	var recs []Recommendation
	for _, ws := range weakSpots {
		answer := answers[ws.question]
		for _, w := range ws.weak {
			if answer == w {
				recs = append(recs, ws.rec)
				break
			}
		}
	}
	return append(recs, RecCommunity)
}
