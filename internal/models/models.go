package models

import (
	"database/sql"
	"time"
)

// NightCrewMember is a signup from the Night Crew form.
type NightCrewMember struct {
	ID        string
	Email     string
	City      sql.NullString
	Source    string // "web", "lambda" or "cli"
	CreatedAt time.Time
}

// ReadinessSubmission records a completed readiness check. Answers are not
// kept, only the outcome.
type ReadinessSubmission struct {
	ID        int64
	Score     int
	Tier      string
	CreatedAt time.Time
}

// ReadinessSummary aggregates submissions.
type ReadinessSummary struct {
	Count   int
	Average float64
	ByTier  map[string]int
}
