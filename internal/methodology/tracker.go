package methodology

import "sync"

// Tracker keeps per-agent adherence history so trend and health can be
// reported across orchestration runs.
type Tracker struct {
	mu      sync.RWMutex
	history map[string][]float64
	global  []float64
}

func NewTracker() *Tracker {
	return &Tracker{history: make(map[string][]float64)}
}

func (t *Tracker) Record(result *ValidationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history[result.Agent] = append(t.history[result.Agent], result.Adherence)
	t.global = append(t.global, result.Adherence)
}

// Trend compares the averages of the older and newer halves of an
// agent's history. Fewer than four samples is not enough to call a
// direction.
func (t *Tracker) Trend(agent string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	scores := t.history[agent]
	if len(scores) < 4 {
		return "stable"
	}

	mid := len(scores) / 2
	older := mean(scores[:mid])
	newer := mean(scores[mid:])

	switch {
	case newer-older > 0.1:
		return "improving"
	case older-newer > 0.1:
		return "declining"
	default:
		return "stable"
	}
}

func (t *Tracker) Average(agent string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return mean(t.history[agent])
}

// SystemHealth averages the last 20 recorded adherence scores across
// all agents.
func (t *Tracker) SystemHealth() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	recent := t.global
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	return mean(recent)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
