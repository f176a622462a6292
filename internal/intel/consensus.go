package intel

import (
	"sort"
	"strings"
)

type ConsensusLevel string

const (
	ConsensusHigh     ConsensusLevel = "high"
	ConsensusModerate ConsensusLevel = "moderate"
	ConsensusLow      ConsensusLevel = "low"
)

type Consensus struct {
	Level           ConsensusLevel `json:"level"`
	Confidence      float64        `json:"confidence"`
	UnanimousThemes []string       `json:"unanimous_themes,omitempty"`
	MajorityThemes  []string       `json:"majority_themes,omitempty"`
}

// AnalyzeConsensus grades how aligned the responses are. A theme is
// unanimous when every agent mentions it, majority when more than half
// do.
func AnalyzeConsensus(responses []*AgentResponse) *Consensus {
	c := &Consensus{Level: ConsensusLow}
	if len(responses) == 0 {
		return c
	}

	total := 0.0
	texts := make([]string, len(responses))
	for i, r := range responses {
		total += r.Confidence
		texts[i] = strings.ToLower(r.text())
	}
	c.Confidence = total / float64(len(responses))

	switch {
	case c.Confidence >= 0.8:
		c.Level = ConsensusHigh
	case c.Confidence >= 0.6:
		c.Level = ConsensusModerate
	}

	for _, area := range developmentAreas {
		mentions := 0
		for _, text := range texts {
			if strings.Contains(text, area) {
				mentions++
			}
		}
		if mentions == len(responses) {
			c.UnanimousThemes = append(c.UnanimousThemes, area)
		} else if mentions > len(responses)/2 {
			c.MajorityThemes = append(c.MajorityThemes, area)
		}
	}

	sort.Strings(c.UnanimousThemes)
	sort.Strings(c.MajorityThemes)
	return c
}
