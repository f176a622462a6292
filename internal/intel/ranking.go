package intel

import (
	"sort"
	"time"
)

// Rankable is anything that can compete for a spot in the core
// convention set or a search result page.
type Rankable interface {
	GetID() string
	GetRelevance() float64
	GetTimestamp() time.Time
	GetFrequency() int
	GetProximity() float64
}

type RankCriteria struct {
	RelevanceWeight float64
	RecencyWeight   float64
	FrequencyWeight float64
	ProximityWeight float64
}

var DefaultRankCriteria = RankCriteria{
	RelevanceWeight: 0.4,
	RecencyWeight:   0.2,
	FrequencyWeight: 0.2,
	ProximityWeight: 0.2,
}

type rankItem struct {
	item  Rankable
	score float64
}

// Rank orders items by the weighted composite score. Relevance is
// normalized against the best in the set so absolute scales don't
// matter.
func Rank(items []Rankable, criteria RankCriteria) []Rankable {
	if len(items) == 0 {
		return items
	}

	maxRelevance := 0.0
	for _, item := range items {
		if r := item.GetRelevance(); r > maxRelevance {
			maxRelevance = r
		}
	}

	ranked := make([]rankItem, len(items))
	for i, item := range items {
		relevance := item.GetRelevance()
		if maxRelevance > 0 {
			relevance /= maxRelevance
		}

		score := relevance * criteria.RelevanceWeight
		score += normalizeRecency(item.GetTimestamp()) * criteria.RecencyWeight
		score += normalizeFrequency(item.GetFrequency()) * criteria.FrequencyWeight
		score += clampProximity(item.GetProximity()) * criteria.ProximityWeight

		ranked[i] = rankItem{item: item, score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	result := make([]Rankable, len(ranked))
	for i, r := range ranked {
		result[i] = r.item
	}
	return result
}

func TopN(items []Rankable, n int, criteria RankCriteria) []Rankable {
	ranked := Rank(items, criteria)
	if len(ranked) < n {
		return ranked
	}
	return ranked[:n]
}

func normalizeRecency(timestamp time.Time) float64 {
	hoursSince := time.Since(timestamp).Hours()

	switch {
	case hoursSince < 24:
		return 1.0
	case hoursSince < 168:
		return 0.8
	case hoursSince < 720:
		return 0.6
	case hoursSince < 2160:
		return 0.4
	default:
		return 0.2
	}
}

func normalizeFrequency(frequency int) float64 {
	switch {
	case frequency >= 100:
		return 1.0
	case frequency >= 50:
		return 0.9
	case frequency >= 20:
		return 0.8
	case frequency >= 10:
		return 0.7
	case frequency >= 5:
		return 0.6
	default:
		return float64(frequency) / 5.0 * 0.5
	}
}

func clampProximity(proximity float64) float64 {
	if proximity > 1.0 {
		return 1.0
	}
	if proximity < 0 {
		return 0
	}
	return proximity
}

type stringRankable struct {
	value    string
	count    int
	lastSeen time.Time
}

func (s *stringRankable) GetID() string           { return s.value }
func (s *stringRankable) GetRelevance() float64   { return 1.0 }
func (s *stringRankable) GetTimestamp() time.Time { return s.lastSeen }
func (s *stringRankable) GetFrequency() int       { return s.count }

func (s *stringRankable) GetProximity() float64 {
	length := len(s.value)
	if length > 100 {
		return 0.3
	}
	if length > 50 {
		return 0.6
	}
	return 0.9
}

// RankStrings orders values by how often they repeat. The synthesis
// step uses it to put the most echoed recommendations first.
func RankStrings(values []string) []string {
	freq := make(map[string]int)
	var order []string
	for _, v := range values {
		if freq[v] == 0 {
			order = append(order, v)
		}
		freq[v]++
	}

	items := make([]Rankable, 0, len(order))
	now := time.Now()
	for _, value := range order {
		items = append(items, &stringRankable{value: value, count: freq[value], lastSeen: now})
	}

	ranked := Rank(items, RankCriteria{FrequencyWeight: 1.0})

	result := make([]string, len(ranked))
	for i, item := range ranked {
		result[i] = item.GetID()
	}
	return result
}
