package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/runsafetonight/internal/client"
	"github.com/lox/runsafetonight/internal/conditions"
	"github.com/lox/runsafetonight/internal/pulse"
	"github.com/lox/runsafetonight/internal/random"
	"github.com/lox/runsafetonight/internal/readiness"
)

var evening = time.Date(2026, time.October, 23, 21, 0, 0, 0, time.UTC)

func TestPrintConditions(t *testing.T) {
	report := conditions.NewGenerator(random.New(1), "Denver").Generate(evening)

	var buf strings.Builder
	require.NoError(t, printConditions(&buf, report, client.SourceFallback))

	out := buf.String()
	assert.Contains(t, out, "Conditions for Denver (fallback)")
	assert.Contains(t, out, report.Verdict)
	assert.Contains(t, out, "mph")
}

func TestPrintPulse(t *testing.T) {
	snap := pulse.NewGenerator(random.New(1)).Generate(evening)

	var buf strings.Builder
	require.NoError(t, printPulse(&buf, snap, client.SourceRemote))

	out := buf.String()
	assert.Contains(t, out, "Community pulse (remote)")
	assert.NotContains(t, out, "<strong>")
	assert.Equal(t, pulse.FeedSize, strings.Count(out, "m ago"))
}

func TestValidOption(t *testing.T) {
	q, ok := readiness.QuestionFor(readiness.QuestionGear)
	require.True(t, ok)

	assert.True(t, validOption(q, "reflective"))
	assert.False(t, validOption(q, "veteran"))
	assert.Equal(t, "none, basic, reflective, full", optionValues(q))
}

func TestReadinessCmd_RejectsUnknownAnswer(t *testing.T) {
	cmd := &ReadinessCmd{Answers: []string{"veteran", "sometimes"}}
	err := cmd.Run(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question 2")
}
