package methodology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanResponse(t *testing.T) {
	text := "Add input validation, enforce authentication and authorization, " +
		"use encryption at rest, and guard every query against injection."

	result := Validate("security-consultant", OWASP, text)

	assert.InDelta(t, 1.0, result.Score, 0.001)
	assert.InDelta(t, 1.0, result.Adherence, 0.001)
	assert.Equal(t, "excellent", result.Compliance)
	assert.Empty(t, result.Issues)
	assert.Len(t, result.Strengths, 5)
}

func TestValidateCriticalViolation(t *testing.T) {
	result := Validate("security-consultant", OWASP, "Store the plaintext password for speed")

	require.Len(t, result.Issues, 2)

	// one coverage warning, one critical violation
	assert.InDelta(t, 0.6, result.Score, 0.001)
	assert.InDelta(t, 0.3, result.Adherence, 0.001)
	assert.Equal(t, "fair", result.Compliance)
}

func TestValidateRepeatedErrors(t *testing.T) {
	text := "Put the business logic in the ui and let one god object hold state"

	result := Validate("senior-architect", CleanArchitecture, text)

	assert.InDelta(t, 0.5, result.Score, 0.001)
	assert.InDelta(t, 0.5, result.Adherence, 0.001)
	assert.Equal(t, "poor", result.Compliance)
}

func TestValidateUnknownFramework(t *testing.T) {
	result := Validate("someone", Framework("tdd"), "whatever")

	assert.InDelta(t, 1.0, result.Score, 0.001)
	assert.Equal(t, "excellent", result.Compliance)
	assert.Empty(t, result.Issues)
}

func TestValidateAgentUsesPersonaFrameworks(t *testing.T) {
	results := ValidateAgent("security-consultant", "identify and protect")
	require.Len(t, results, 2)
	assert.Equal(t, OWASP, results[0].Framework)
	assert.Equal(t, NISTCSF, results[1].Framework)
}

func TestForAgentDefault(t *testing.T) {
	assert.Equal(t, []Framework{SOLID}, ForAgent("someone-new"))
}

func TestTrackerTrend(t *testing.T) {
	tracker := NewTracker()

	for _, score := range []float64{0.5, 0.5, 0.9, 0.9} {
		tracker.Record(&ValidationResult{Agent: "backend-builder", Adherence: score})
	}

	assert.Equal(t, "improving", tracker.Trend("backend-builder"))
	assert.InDelta(t, 0.7, tracker.Average("backend-builder"), 0.001)
}

func TestTrackerTrendNeedsHistory(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(&ValidationResult{Agent: "a", Adherence: 0.2})
	tracker.Record(&ValidationResult{Agent: "a", Adherence: 0.9})

	assert.Equal(t, "stable", tracker.Trend("a"))
}

func TestTrackerSystemHealthWindow(t *testing.T) {
	tracker := NewTracker()

	// 5 old low scores pushed out of the 20-sample window by 20 high ones
	for i := 0; i < 5; i++ {
		tracker.Record(&ValidationResult{Agent: "a", Adherence: 0.0})
	}
	for i := 0; i < 20; i++ {
		tracker.Record(&ValidationResult{Agent: "a", Adherence: 1.0})
	}

	assert.InDelta(t, 1.0, tracker.SystemHealth(), 0.001)
}
