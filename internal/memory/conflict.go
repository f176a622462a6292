package memory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type ConflictType string

const (
	ConflictArchitecture   ConflictType = "architecture"
	ConflictTechnology     ConflictType = "technology"
	ConflictSecurityVsPerf ConflictType = "security_vs_performance"
	ConflictImplementation ConflictType = "implementation"
	ConflictPattern        ConflictType = "pattern"
	ConflictScope          ConflictType = "scope"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

type Conflict struct {
	ID            string       `json:"id"`
	TopicA        string       `json:"topic_a"`
	TopicB        string       `json:"topic_b"`
	SharedTopics  []string     `json:"shared_topics,omitempty"`
	OverlapRatio  float64      `json:"overlap_ratio"`
	Type          ConflictType `json:"type"`
	Severity      Severity     `json:"severity"`
	SeverityScore int          `json:"severity_score"`
	Description   string       `json:"description"`
}

// developmentTopics is the fixed keyword list that decides whether two
// decisions talk about the same area at all.
var developmentTopics = []string{
	"database", "authentication", "api", "frontend", "backend",
	"cache", "deployment", "testing", "security", "performance",
	"architecture", "framework", "library", "pattern", "storage",
	"queue", "logging", "monitoring",
}

var contradictionWords = []string{
	"cannot", "incompatible", "conflicts", "contradicts", "never", "must not",
}

var performanceWords = []string{
	"performance", "scalability", "bottleneck",
}

// DetectConflicts runs pairwise overlap detection over the decision
// set. Only overlapping pairs are classified.
func DetectConflicts(decisions []*Decision) []*Conflict {
	var conflicts []*Conflict

	for i := 0; i < len(decisions); i++ {
		for j := i + 1; j < len(decisions); j++ {
			if c := CheckPair(decisions[i], decisions[j]); c != nil {
				conflicts = append(conflicts, c)
			}
		}
	}

	return conflicts
}

// CheckPair reports a conflict when two decisions overlap and at least
// one severity signal fires. Overlapping but compatible decisions
// produce nothing.
func CheckPair(a, b *Decision) *Conflict {
	shared := sharedTopics(a, b)
	ratio := wordOverlapRatio(a.Decision, b.Decision)

	if len(shared) == 0 && ratio <= 0.3 {
		return nil
	}

	score := severityScore(a, b, shared)
	if score == 0 {
		return nil
	}

	return &Conflict{
		ID:            uuid.NewString(),
		TopicA:        a.Topic,
		TopicB:        b.Topic,
		SharedTopics:  shared,
		OverlapRatio:  ratio,
		Type:          classifyConflict(a, b, shared),
		Severity:      severityFor(score),
		SeverityScore: score,
		Description:   fmt.Sprintf("'%s' and '%s' overlap on %s", a.Topic, b.Topic, describeOverlap(shared, ratio)),
	}
}

func describeOverlap(shared []string, ratio float64) string {
	if len(shared) > 0 {
		return strings.Join(shared, ", ")
	}
	return fmt.Sprintf("%.0f%% of their wording", ratio*100)
}

func decisionText(d *Decision) string {
	return strings.ToLower(d.Topic + " " + d.Decision + " " + d.Rationale + " " + d.Scope)
}

func sharedTopics(a, b *Decision) []string {
	textA := decisionText(a)
	textB := decisionText(b)

	var shared []string
	for _, topic := range developmentTopics {
		if strings.Contains(textA, topic) && strings.Contains(textB, topic) {
			shared = append(shared, topic)
		}
	}
	return shared
}

func wordOverlapRatio(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for w := range wordsA {
		if wordsB[w] {
			common++
		}
	}

	larger := len(wordsA)
	if len(wordsB) > larger {
		larger = len(wordsB)
	}

	return float64(common) / float64(larger)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()[]\"'")
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

func classifyConflict(a, b *Decision, shared []string) ConflictType {
	combined := decisionText(a) + " " + decisionText(b)

	hasSecurity := strings.Contains(combined, "security")
	hasPerformance := containsAny(combined, performanceWords)
	if hasSecurity && hasPerformance {
		return ConflictSecurityVsPerf
	}

	if containsAny(combined, []string{"architecture", "structure", "layer", "design"}) {
		return ConflictArchitecture
	}
	if containsAny(combined, []string{"database", "framework", "library", "language", "storage", "queue"}) {
		return ConflictTechnology
	}
	if containsAny(combined, []string{"pattern", "convention", "style"}) {
		return ConflictPattern
	}
	if containsAny(combined, []string{"implementation", "approach", "method"}) {
		return ConflictImplementation
	}

	return ConflictScope
}

func severityScore(a, b *Decision, shared []string) int {
	score := 0

	for _, topic := range shared {
		if topic == "security" || topic == "architecture" || topic == "database" {
			score += 2
			break
		}
	}

	combined := decisionText(a) + " " + decisionText(b)
	if containsAny(combined, contradictionWords) {
		score += 2
	}
	if containsAny(combined, performanceWords) {
		score++
	}

	return score
}

func severityFor(score int) Severity {
	switch {
	case score >= 4:
		return SeverityCritical
	case score >= 2:
		return SeverityHigh
	case score >= 1:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
