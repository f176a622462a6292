package intel

import (
	"sort"
	"strings"
)

// Overlap marks two agents weighing in on the same development areas.
// Overlaps are where conflicts come from, so the resolver looks here
// first.
type Overlap struct {
	Agents     [2]string `json:"agents"`
	Areas      []string  `json:"areas"`
	Confidence float64   `json:"confidence"`
	Resolver   string    `json:"resolver"`
}

// DetectOverlaps compares every response pair. Confidence grows with
// the number of shared areas, capped at 0.9, nudged by how sure the
// two agents themselves were.
func DetectOverlaps(responses []*AgentResponse) []*Overlap {
	var overlaps []*Overlap

	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			areas := sharedAreas(responses[i], responses[j])
			if len(areas) == 0 {
				continue
			}

			confidence := float64(len(areas)) * 0.2
			if confidence > 0.9 {
				confidence = 0.9
			}
			confidence += (responses[i].Confidence + responses[j].Confidence) / 2 * 0.2

			overlaps = append(overlaps, &Overlap{
				Agents:     [2]string{responses[i].Agent, responses[j].Agent},
				Areas:      areas,
				Confidence: confidence,
				Resolver:   pickResolver(responses[i].Agent, responses[j].Agent),
			})
		}
	}

	return overlaps
}

func sharedAreas(a, b *AgentResponse) []string {
	textA := strings.ToLower(a.text())
	textB := strings.ToLower(b.text())

	var areas []string
	for _, area := range developmentAreas {
		if strings.Contains(textA, area) && strings.Contains(textB, area) {
			areas = append(areas, area)
		}
	}
	sort.Strings(areas)
	return areas
}

// pickResolver names the agent whose call stands when the two
// disagree, by hierarchy rank.
func pickResolver(a, b string) string {
	if HierarchyRank(a) >= HierarchyRank(b) {
		return a
	}
	return b
}
